package xml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Cover</w:t></w:r></w:p>
<w:p><w:r><w:drawing><wp:inline xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"><wp:extent cx="10" cy="20"/><wp:docPr id="7" name="Logo"/></wp:inline></w:drawing></w:r></w:p>
<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>
</w:body>
</w:document>`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(testDocument))
	require.NoError(t, err)
	require.NotNil(t, doc.Body)

	paras := doc.Body.Paragraphs()
	require.Len(t, paras, 2)
	assert.Equal(t, "Cover", paras[0].GetText())
	assert.Equal(t, "Title", paras[0].StyleID())
	assert.True(t, doc.Body.HasSectionProperties)

	runs := paras[1].Runs()
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Drawing)
	assert.Equal(t, 7, runs[0].Drawing.ID)
	assert.Equal(t, int64(10), runs[0].Drawing.Width)
}

func TestParseDocument_MissingBody(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<w:document xmlns:w="` + NamespaceW + `"></w:document>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing body")
}

func TestScanBody(t *testing.T) {
	tests := []struct {
		name         string
		doc          string
		insertBefore string
		selfClosing  bool
		maxDrawing   int
	}{
		{
			name:         "before trailing sectPr",
			doc:          testDocument,
			insertBefore: "<w:sectPr>",
			maxDrawing:   7,
		},
		{
			name:         "before body end",
			doc:          `<w:document xmlns:w="` + NamespaceW + `"><w:body><w:p/></w:body></w:document>`,
			insertBefore: "</w:body>",
		},
		{
			name:         "sectPr inside paragraph is not trailing",
			doc:          `<w:document xmlns:w="` + NamespaceW + `"><w:body><w:p><w:pPr><w:sectPr/></w:pPr></w:p><w:p/></w:body></w:document>`,
			insertBefore: "</w:body>",
		},
		{
			name:        "self-closing body",
			doc:         `<w:document xmlns:w="` + NamespaceW + `"><w:body/></w:document>`,
			selfClosing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(tt.doc)
			layout, err := ScanBody(data)
			require.NoError(t, err)

			assert.Equal(t, byte('>'), data[layout.RootTagEnd])
			assert.Equal(t, "w", layout.BodyPrefix)
			assert.Equal(t, NamespaceW, layout.Namespaces["w"])
			assert.Equal(t, tt.selfClosing, layout.SelfClosingBody)
			assert.Equal(t, tt.maxDrawing, layout.MaxDrawingID)
			if tt.insertBefore != "" {
				assert.True(t, bytes.HasPrefix(data[layout.Insert:], []byte(tt.insertBefore)),
					"insert point at %q", string(data[layout.Insert:]))
			}
		})
	}
}

func TestScanBody_Errors(t *testing.T) {
	_, err := ScanBody([]byte(`<w:document xmlns:w="` + NamespaceW + `"></w:document>`))
	assert.Error(t, err)

	_, err = ScanBody([]byte(`<w:document><w:body>`))
	assert.Error(t, err)
}

func TestSpliceBody(t *testing.T) {
	data := []byte(testDocument)
	layout, err := ScanBody(data)
	require.NoError(t, err)

	fragment, err := MarshalElements([]BodyElement{NewParagraph("Appended")})
	require.NoError(t, err)

	out := string(SpliceBody(data, layout, fragment))

	assert.Less(t, strings.Index(out, "Cover"), strings.Index(out, "Appended"))
	assert.Less(t, strings.Index(out, "Appended"), strings.Index(out, "<w:sectPr>"))
	// w and r were declared; wp, a and pic get added to the root.
	assert.Equal(t, 1, strings.Count(out, `xmlns:w=`))
	assert.Contains(t, out, `xmlns:a="`+NamespaceA+`"`)
	assert.Contains(t, out, `xmlns:pic="`+NamespacePic+`"`)
	assert.Contains(t, out, `xmlns:wp="`+NamespaceWP+`"`)

	doc, err := ParseDocument(strings.NewReader(out))
	require.NoError(t, err)
	paras := doc.Body.Paragraphs()
	require.Len(t, paras, 3)
	assert.Equal(t, "Appended", paras[2].GetText())
}

func TestSpliceBody_SelfClosing(t *testing.T) {
	data := []byte(`<w:document xmlns:w="` + NamespaceW + `"><w:body/></w:document>`)
	layout, err := ScanBody(data)
	require.NoError(t, err)

	fragment, err := MarshalElements([]BodyElement{NewParagraph("Only")})
	require.NoError(t, err)

	out := string(SpliceBody(data, layout, fragment))
	assert.Contains(t, out, `<w:body><w:p><w:r><w:t>Only</w:t></w:r></w:p></w:body></w:document>`)

	doc, err := ParseDocument(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, doc.Body.Paragraphs(), 1)
}
