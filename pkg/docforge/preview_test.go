package docforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPreview_Empty(t *testing.T) {
	blocks := RenderPreview(NewStore())
	require.NotNil(t, blocks)
	assert.Len(t, blocks, 0)
	assert.Equal(t, "", RenderMarkdown(blocks))
}

func TestRenderPreview_Order(t *testing.T) {
	s := NewStore()
	p1, _ := s.AddParagraph("Intro")
	_, _ = s.AddComment(p1, "check this")
	_, _ = s.AddSubParagraph(p1, "point")
	_, _ = s.AddTable(1, 2, [][]string{{"a", "b|c"}})
	p2, _ := s.AddParagraph("Outro")
	require.NoError(t, s.SelectCover(mapCatalog{"Blue": {Name: "Blue"}}, "Blue"))

	blocks := RenderPreview(s)
	require.Len(t, blocks, 6)

	assert.Equal(t, DisplayBlock{Kind: BlockHeading, Role: RoleCover, Text: "Cover: Blue", Level: 1}, blocks[0])
	assert.Equal(t, DisplayBlock{Kind: BlockText, Role: RoleParagraph, Text: "Intro", SourceID: p1}, blocks[1])
	// Sub-paragraphs come before comments regardless of insertion order.
	assert.Equal(t, RoleSubParagraph, blocks[2].Role)
	assert.Equal(t, 1, blocks[2].Level)
	assert.Equal(t, RoleComment, blocks[3].Role)
	assert.True(t, blocks[3].IsComment)
	assert.Equal(t, "Outro", blocks[4].Text)
	assert.Equal(t, p2, blocks[4].SourceID)
	assert.Equal(t, BlockTable, blocks[5].Kind)
	assert.Equal(t, []string{"Column 1", "Column 2"}, blocks[5].Columns)

	// Blocks are copies of store state.
	blocks[5].Rows[0][0] = "changed"
	assert.Equal(t, "a", s.Tables()[0].Rows[0][0])

	md := RenderMarkdown(RenderPreview(s))
	assert.Equal(t, "# Cover: Blue\n\n"+
		"**Paragraph 1:** Intro\n\n"+
		"- point\n\n"+
		"> _Comment: check this_\n\n"+
		"**Paragraph 2:** Outro\n\n"+
		"**Table 1:**\n\n"+
		"| Column 1 | Column 2 |\n"+
		"| --- | --- |\n"+
		"| a | b\\|c |\n\n", md)
}

func TestRenderMarkdown_MultilineText(t *testing.T) {
	blocks := []DisplayBlock{
		{Kind: BlockHeading, Level: 1, Text: "Cover\nTitle"},
		{Kind: BlockText, Role: RoleParagraph, Text: "first\r\nsecond"},
		{Kind: BlockText, Role: RoleSubParagraph, Level: 1, Text: "point\nmore"},
		{Kind: BlockText, Role: RoleComment, IsComment: true, Text: "check\nthis"},
		{Kind: BlockTable, SourceID: 1, Columns: []string{"A"}, Rows: [][]string{{"x\ny"}}},
	}

	assert.Equal(t, "# Cover Title\n\n"+
		"**Paragraph 1:** first  \nsecond\n\n"+
		"- point  \n  more\n\n"+
		"> _Comment: check  \n> this_\n\n"+
		"**Table 1:**\n\n"+
		"| A |\n"+
		"| --- |\n"+
		"| x<br>y |\n\n", RenderMarkdown(blocks))
}
