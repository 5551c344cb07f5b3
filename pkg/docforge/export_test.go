package docforge

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	pid, err := s.AddParagraph("Hello world")
	require.NoError(t, err)
	_, err = s.AddSubParagraph(pid, "First point")
	require.NoError(t, err)
	_, err = s.AddComment(pid, "Needs review")
	require.NoError(t, err)
	_, err = s.AddTable(2, 2, [][]string{{"a", "b"}, {"c", "d"}})
	require.NoError(t, err)
	return s
}

func TestExport_Blank(t *testing.T) {
	data, err := testExporter(t).Export(context.Background(), sampleStore(t))
	require.NoError(t, err)

	text, err := ReadDocumentText(data)
	require.NoError(t, err)

	require.Len(t, text.Paragraphs, 4)
	assert.Equal(t, ParagraphText{Text: "Hello world"}, text.Paragraphs[0])
	assert.Equal(t, ParagraphText{Text: "First point", StyleID: StyleListBullet}, text.Paragraphs[1])
	assert.Equal(t, ParagraphText{Text: "Comment: Needs review", Italic: true}, text.Paragraphs[2])
	// Spacer paragraph after the table.
	assert.Equal(t, ParagraphText{}, text.Paragraphs[3])

	require.Len(t, text.Tables, 1)
	assert.Equal(t, [][]string{{"Column 1", "Column 2"}, {"a", "b"}, {"c", "d"}}, text.Tables[0])

	doc := zipEntry(t, data, partDocument)
	assert.Contains(t, doc, `<w:spacing w:after="200"></w:spacing>`)
	assert.Contains(t, doc, `<w:tblStyle w:val="TableGrid"></w:tblStyle>`)
	assert.Contains(t, doc, `<w:tblHeader></w:tblHeader>`)
	assert.Less(t, strings.Index(doc, "Hello world"), strings.Index(doc, "<w:sectPr>"))

	styles := zipEntry(t, data, partStyles)
	assert.Contains(t, styles, `w:styleId="ListBullet"`)
	assert.Contains(t, styles, `w:styleId="TableGrid"`)

	numbering := zipEntry(t, data, partNumbering)
	assert.Contains(t, numbering, `<w:numFmt w:val="bullet"/>`)
	assert.Contains(t, zipEntry(t, data, partDocumentRels), relTypeNumbering)
	assert.Contains(t, zipEntry(t, data, partContentTypes), ctNumbering)
}

func TestExport_Deterministic(t *testing.T) {
	s := sampleStore(t)
	_, err := s.AddImage(pngBytes(t, 8, 8))
	require.NoError(t, err)

	e := testExporter(t)
	first, err := e.Export(context.Background(), s)
	require.NoError(t, err)
	second, err := e.Export(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "exports of an unchanged store differ")
}

func TestExport_PartOrder(t *testing.T) {
	data, err := testExporter(t).Export(context.Background(), sampleStore(t))
	require.NoError(t, err)

	dr, err := DocxReaderFromBytes(data)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(dr.reader.File), 2)
	assert.Equal(t, partContentTypes, dr.reader.File[0].Name)
	assert.Equal(t, partRootRels, dr.reader.File[1].Name)
	for _, f := range dr.reader.File {
		assert.True(t, f.Modified.IsZero() || f.Modified.Year() <= 1980, "%s has a timestamp", f.Name)
	}
}

func TestExport_Images(t *testing.T) {
	s := NewStore()
	_, err := s.AddParagraph("With pictures")
	require.NoError(t, err)
	_, err = s.AddNamedImage("wide.png", pngBytes(t, 1000, 500))
	require.NoError(t, err)
	_, err = s.AddImage([]byte("not an image"))
	require.NoError(t, err)
	_, err = s.AddImage(pngBytes(t, 20, 10))
	require.NoError(t, err)
	// PNG signature with a truncated header: sniffed as PNG but not decodable.
	_, err = s.AddImage([]byte("\x89PNG\r\n\x1a\n\x00\x00"))
	require.NoError(t, err)

	data, err := testExporter(t).Export(context.Background(), s)
	require.NoError(t, err)

	text, err := ReadDocumentText(data)
	require.NoError(t, err)
	assert.Equal(t, 2, text.Images)

	dr, err := DocxReaderFromBytes(data)
	require.NoError(t, err)
	var media []string
	for _, name := range dr.ListParts() {
		if strings.HasPrefix(name, mediaDir) {
			media = append(media, name)
		}
	}
	require.Len(t, media, 2)
	assert.True(t, strings.HasPrefix(media[0], mediaDir+"image1_"))
	assert.True(t, strings.HasPrefix(media[1], mediaDir+"image3_"))

	doc := zipEntry(t, data, partDocument)
	// 1000px is wider than six inches and is scaled down.
	assert.Contains(t, doc, `<wp:extent cx="5486400" cy="2743200">`)
	assert.Contains(t, doc, `<wp:extent cx="190500" cy="95250">`)
	assert.Contains(t, doc, `name="wide.png"`)
	assert.Contains(t, doc, `xmlns:pic=`)
	assert.Contains(t, zipEntry(t, data, partContentTypes), `Extension="png"`)
}

func TestExport_WithCover(t *testing.T) {
	dir := t.TempDir()
	writeCover(t, dir, "Corporate", ".png")
	catalog, err := ScanCatalog(dir, WithCatalogLogger(zerolog.Nop()))
	require.NoError(t, err)

	s := sampleStore(t)
	require.NoError(t, s.SelectCover(catalog, "Corporate"))

	data, err := testExporter(t).Export(context.Background(), s)
	require.NoError(t, err)

	text, err := ReadDocumentText(data)
	require.NoError(t, err)
	require.Len(t, text.Paragraphs, 5)
	assert.Equal(t, ParagraphText{Text: "Cover Title", StyleID: "Title"}, text.Paragraphs[0])
	assert.Equal(t, "Hello world", text.Paragraphs[1].Text)

	doc := zipEntry(t, data, partDocument)
	assert.Contains(t, doc, `<w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`)
	assert.Less(t, strings.Index(doc, "Needs review"), strings.Index(doc, "<w:sectPr>"))

	// The template had no styles part; one is created and registered.
	assert.Contains(t, zipEntry(t, data, partStyles), `w:styleId="ListBullet"`)
	assert.Contains(t, zipEntry(t, data, partDocumentRels), relTypeStyles)
	assert.Contains(t, zipEntry(t, data, partContentTypes), `/word/styles.xml`)
	// Template parts the exporter does not touch are carried over.
	assert.Contains(t, zipEntry(t, data, partCoreProps), "Annual Report")
}

func TestExport_CoverKeepsExistingStyles(t *testing.T) {
	dir := t.TempDir()
	styles := xmlDecl + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/></w:style>` +
		`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/></w:style>` +
		`</w:styles>`
	docx := createTestDocx(t, testCoverDocument, map[string][]byte{partStyles: []byte(styles)})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Styled.docx"), docx, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Styled.png"), pngBytes(t, 1, 1), 0644))

	catalog, err := ScanCatalog(dir, WithCatalogLogger(zerolog.Nop()))
	require.NoError(t, err)
	s := sampleStore(t)
	require.NoError(t, s.SelectCover(catalog, "Styled"))

	data, err := testExporter(t).Export(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, styles, zipEntry(t, data, partStyles))
	dr, err := DocxReaderFromBytes(data)
	require.NoError(t, err)
	assert.False(t, dr.HasPart(partNumbering))
}

func TestExport_ExistingNumbering(t *testing.T) {
	numbering := xmlDecl + `<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="singleLevel"/></w:abstractNum>` +
		`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>` +
		`</w:numbering>`
	pkg := blankPackage()
	pkg.set(partNumbering, []byte(numbering))
	rels := newRelationships()
	ct := &ContentTypes{}

	numID, err := ensureBulletNumbering(pkg, rels, ct)
	require.NoError(t, err)
	assert.Equal(t, 2, numID)

	out, _ := pkg.get(partNumbering)
	result := string(out)
	assert.Less(t, strings.Index(result, `w:abstractNumId="1"`), strings.Index(result, `<w:num w:numId="1">`))
	assert.Contains(t, result, `<w:num w:numId="2"><w:abstractNumId w:val="1"/></w:num></w:numbering>`)
	assert.Empty(t, rels.Relationship)
}

func TestExport_TemplateErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeCover(t, dir, "Broken", ".png")
	catalog, err := ScanCatalog(dir, WithCatalogLogger(zerolog.Nop()))
	require.NoError(t, err)

	s := sampleStore(t)
	require.NoError(t, s.SelectCover(catalog, "Broken"))

	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))
	_, err = testExporter(t).Export(context.Background(), s)
	require.Error(t, err)
	assert.True(t, IsTemplateLoadError(err), "got %v", err)

	require.NoError(t, os.Remove(path))
	_, err = testExporter(t).Export(context.Background(), s)
	assert.True(t, IsTemplateLoadError(err), "got %v", err)
}

func TestExport_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testExporter(t).Export(ctx, sampleStore(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport_LeavesStoreUnchanged(t *testing.T) {
	s := sampleStore(t)
	before := RenderPreview(s)
	_, err := testExporter(t).Export(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, before, RenderPreview(s))
}

func TestExportTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testExporter(t).ExportTo(context.Background(), sampleStore(t), &buf))
	_, err := ReadDocumentText(buf.Bytes())
	assert.NoError(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestExportTo_WriteFailure(t *testing.T) {
	err := testExporter(t).ExportTo(context.Background(), sampleStore(t), failingWriter{})
	require.Error(t, err)
	assert.True(t, IsSerializationError(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestExport_MultilineText(t *testing.T) {
	s := NewStore()
	_, err := s.AddParagraph("line one\nline two")
	require.NoError(t, err)

	data, err := testExporter(t).Export(context.Background(), s)
	require.NoError(t, err)
	text, err := ReadDocumentText(data)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text.Paragraphs[0].Text)
	assert.Contains(t, zipEntry(t, data, partDocument), `<w:br></w:br>`)
}
