package xml

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, v interface{}) string {
	t.Helper()
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	require.NoError(t, enc.Encode(v))
	require.NoError(t, enc.Flush())
	return buf.String()
}

func TestTextRuns(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		runs   int
		breaks int
		want   string
	}{
		{name: "single line", input: "hello", runs: 1, breaks: 0, want: "hello"},
		{name: "two lines", input: "a\nb", runs: 2, breaks: 1, want: "a\nb"},
		{name: "crlf", input: "a\r\nb", runs: 2, breaks: 1, want: "a\nb"},
		{name: "blank middle line", input: "a\n\nb", runs: 3, breaks: 2, want: "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := TextRuns(tt.input, nil)
			require.Len(t, runs, tt.runs)

			p := &Paragraph{}
			breaks := 0
			for _, r := range runs {
				if r.Break != nil {
					breaks++
				}
				p.AddRun(r)
			}
			assert.Equal(t, tt.breaks, breaks)
			assert.Equal(t, tt.want, p.GetText())
		})
	}
}

func TestText_PreservesWhitespace(t *testing.T) {
	assert.Equal(t, "", NewText("plain").Space)
	assert.Equal(t, "preserve", NewText(" padded ").Space)

	out := marshal(t, NewTextRun(" padded"))
	assert.Equal(t, `<w:r><w:t xml:space="preserve"> padded</w:t></w:r>`, out)
}

func TestRun_MarshalProperties(t *testing.T) {
	r := &Run{Properties: &RunProperties{Bold: true, Italic: true}, Text: NewText("x")}
	assert.Equal(t, `<w:r><w:rPr><w:b></w:b><w:i></w:i></w:rPr><w:t>x</w:t></w:r>`, marshal(t, r))
}

func TestParagraph_RoundTrip(t *testing.T) {
	p := &Paragraph{Properties: &ParagraphProperties{
		Style:     &Style{Val: "ListBullet"},
		Numbering: &NumberingProperties{Level: 0, NumID: 3},
		Spacing:   &Spacing{After: 0},
	}}
	p.AddRun(&Run{Properties: &RunProperties{Italic: true}, Text: NewText("Comment: note")})

	out := marshal(t, p)
	assert.Contains(t, out, `<w:pStyle w:val="ListBullet"></w:pStyle>`)
	assert.Contains(t, out, `<w:spacing w:after="0"></w:spacing>`)

	wrapped := `<w:document xmlns:w="` + NamespaceW + `"><w:body>` + out + `</w:body></w:document>`
	doc, err := ParseDocument(strings.NewReader(wrapped))
	require.NoError(t, err)

	paras := doc.Body.Paragraphs()
	require.Len(t, paras, 1)
	got := paras[0]
	assert.Equal(t, "ListBullet", got.StyleID())
	require.NotNil(t, got.Properties.Numbering)
	assert.Equal(t, 3, got.Properties.Numbering.NumID)
	require.Len(t, got.Runs(), 1)
	assert.True(t, got.Runs()[0].IsItalic())
	assert.False(t, got.Runs()[0].IsBold())
	assert.Equal(t, "Comment: note", got.GetText())
}

func TestRunProperties_ToggleOff(t *testing.T) {
	doc := `<w:document xmlns:w="` + NamespaceW + `"><w:body><w:p>` +
		`<w:r><w:rPr><w:b w:val="0"/><w:i w:val="true"/></w:rPr><w:t>x</w:t></w:r>` +
		`<w:hyperlink><w:r><w:t>link</w:t></w:r></w:hyperlink>` +
		`<w:bookmarkStart w:id="0"/>` +
		`</w:p></w:body></w:document>`
	parsed, err := ParseDocument(strings.NewReader(doc))
	require.NoError(t, err)

	p := parsed.Body.Paragraphs()[0]
	runs := p.Runs()
	require.Len(t, runs, 2)
	assert.False(t, runs[0].IsBold())
	assert.True(t, runs[0].IsItalic())
	assert.Equal(t, "xlink", p.GetText())
}

func TestTable_RoundTrip(t *testing.T) {
	header := TableRow{Properties: &TableRowProperties{CantSplit: true, Header: true}}
	header.Cells = []TableCell{
		{Width: &Width{Type: "dxa", Val: 4680}, Paragraphs: []Paragraph{*NewParagraph("Column 1")}},
		{Width: &Width{Type: "dxa", Val: 4680}, Paragraphs: []Paragraph{*NewParagraph("Column 2")}},
	}
	data := TableRow{Cells: []TableCell{
		{Paragraphs: []Paragraph{*NewParagraph("a")}},
		{},
	}}
	tbl := &Table{
		Properties: &TableProperties{Style: &Style{Val: "TableGrid"}, Width: &Width{Type: "auto"}},
		Grid:       &TableGrid{Columns: []Width{{Val: 4680}, {Val: 4680}}},
		Rows:       []TableRow{header, data},
	}

	out, err := MarshalElements([]BodyElement{tbl})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<w:gridCol w:w="4680"></w:gridCol>`)

	wrapped := `<w:document xmlns:w="` + NamespaceW + `"><w:body>` + string(out) + `</w:body></w:document>`
	doc, err := ParseDocument(strings.NewReader(wrapped))
	require.NoError(t, err)

	tables := doc.Body.Tables()
	require.Len(t, tables, 1)
	got := tables[0]
	assert.Equal(t, "TableGrid", got.StyleID())
	require.Len(t, got.Rows, 2)
	assert.True(t, got.Rows[0].IsHeader())
	assert.False(t, got.Rows[1].IsHeader())
	assert.Equal(t, "Column 2", got.Rows[0].Cells[1].GetText())
	assert.Equal(t, "a", got.Rows[1].Cells[0].GetText())
	// An empty cell still carries one empty paragraph.
	assert.Equal(t, "", got.Rows[1].Cells[1].GetText())
	require.Len(t, got.Rows[1].Cells[1].Paragraphs, 1)
}

func TestDrawing_RoundTrip(t *testing.T) {
	p := &Paragraph{}
	p.AddRun(&Run{Drawing: &Drawing{Width: 190500, Height: 95250, ID: 3, Name: "chart.png", EmbedID: "rId9"}})

	out := marshal(t, p)
	assert.Contains(t, out, `<a:blip r:embed="rId9"></a:blip>`)
	assert.Contains(t, out, `<wp:extent cx="190500" cy="95250"></wp:extent>`)

	wrapped := `<w:document xmlns:w="` + NamespaceW + `" xmlns:r="` + NamespaceR + `" xmlns:wp="` + NamespaceWP +
		`" xmlns:a="` + NamespaceA + `" xmlns:pic="` + NamespacePic + `"><w:body>` + out + `</w:body></w:document>`
	doc, err := ParseDocument(strings.NewReader(wrapped))
	require.NoError(t, err)

	runs := doc.Body.Paragraphs()[0].Runs()
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Drawing)
	assert.Equal(t, Drawing{Width: 190500, Height: 95250, ID: 3, Name: "chart.png", EmbedID: "rId9"}, *runs[0].Drawing)
}
