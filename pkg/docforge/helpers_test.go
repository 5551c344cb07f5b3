package docforge

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testCoverDocument = xmlDecl + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:body><w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Cover Title</w:t></w:r></w:p>` +
	`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`

const testCoreProps = xmlDecl + `<cp:coreProperties ` +
	`xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title> Annual Report </dc:title></cp:coreProperties>`

// createTestDocx builds a minimal DOCX package. extra parts override or add to the
// defaults; a nil value removes the part.
func createTestDocx(t *testing.T, document string, extra map[string][]byte) []byte {
	t.Helper()

	parts := map[string][]byte{
		partContentTypes: []byte(xmlDecl + `<Types xmlns="` + typesNamespace + `">` +
			`<Default Extension="rels" ContentType="` + ctRelationships + `"/>` +
			`<Default Extension="xml" ContentType="` + ctXML + `"/>` +
			`<Override PartName="/word/document.xml" ContentType="` + ctDocumentMain + `"/>` +
			`</Types>`),
		partRootRels: []byte(xmlDecl + `<Relationships xmlns="` + relsNamespace + `">` +
			`<Relationship Id="rId1" Type="` + relTypeOfficeDoc + `" Target="word/document.xml"/>` +
			`</Relationships>`),
		partDocumentRels: []byte(xmlDecl + `<Relationships xmlns="` + relsNamespace + `"></Relationships>`),
		partDocument:     []byte(document),
		partCoreProps:    []byte(testCoreProps),
	}
	for name, data := range extra {
		if data == nil {
			delete(parts, name)
			continue
		}
		parts[name] = data
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeCover writes name.docx and, when imageExt is set, a preview image next to it.
func writeCover(t *testing.T, dir, name, imageExt string) string {
	t.Helper()
	path := filepath.Join(dir, name+".docx")
	require.NoError(t, os.WriteFile(path, createTestDocx(t, testCoverDocument, nil), 0644))
	if imageExt != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+imageExt), pngBytes(t, 4, 3), 0644))
	}
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testExporter(t *testing.T) *Exporter {
	t.Helper()
	return NewExporter(
		WithConfig(DefaultConfig()),
		WithLogger(zerolog.Nop()),
	)
}

func zipEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	dr, err := DocxReaderFromBytes(data)
	require.NoError(t, err)
	part, err := dr.GetPart(name)
	require.NoError(t, err)
	return string(part)
}
