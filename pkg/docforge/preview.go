package docforge

import (
	"fmt"
	"strings"
)

// BlockKind tags a DisplayBlock variant.
type BlockKind string

const (
	BlockHeading BlockKind = "heading"
	BlockText    BlockKind = "text"
	BlockTable   BlockKind = "table"
)

// BlockRole distinguishes text blocks by the store entity they came from.
type BlockRole string

const (
	RoleCover        BlockRole = "cover"
	RoleParagraph    BlockRole = "paragraph"
	RoleSubParagraph BlockRole = "subparagraph"
	RoleComment      BlockRole = "comment"
	RoleTable        BlockRole = "table"
)

// DisplayBlock is one unit of the preview. Heading and Text blocks carry Text; Table
// blocks carry Columns and Rows.
type DisplayBlock struct {
	Kind      BlockKind  `json:"kind"`
	Role      BlockRole  `json:"role"`
	Text      string     `json:"text,omitempty"`
	IsComment bool       `json:"is_comment,omitempty"`
	Level     int        `json:"level,omitempty"`
	Columns   []string   `json:"columns,omitempty"`
	Rows      [][]string `json:"rows,omitempty"`
	// SourceID is the store id of the owning paragraph or table.
	SourceID int `json:"source_id,omitempty"`
}

// RenderPreview lists the store content in display order: cover, then each paragraph
// followed by its sub-paragraphs and comments, then tables.
func RenderPreview(s *Store) []DisplayBlock {
	blocks := []DisplayBlock{}

	if cover, ok := s.Cover(); ok {
		blocks = append(blocks, DisplayBlock{
			Kind:  BlockHeading,
			Role:  RoleCover,
			Text:  "Cover: " + cover.Name,
			Level: 1,
		})
	}

	for _, p := range s.paragraphs {
		blocks = append(blocks, DisplayBlock{Kind: BlockText, Role: RoleParagraph, Text: p.Content, SourceID: p.ID})
		for _, sub := range p.SubParagraphs {
			blocks = append(blocks, DisplayBlock{Kind: BlockText, Role: RoleSubParagraph, Text: sub, Level: 1, SourceID: p.ID})
		}
		for _, c := range p.Comments {
			blocks = append(blocks, DisplayBlock{Kind: BlockText, Role: RoleComment, Text: c, IsComment: true, Level: 1, SourceID: p.ID})
		}
	}

	for _, t := range s.Tables() {
		blocks = append(blocks, DisplayBlock{
			Kind:     BlockTable,
			Role:     RoleTable,
			Columns:  t.Columns,
			Rows:     t.Rows,
			SourceID: t.ID,
		})
	}
	return blocks
}

// RenderMarkdown renders preview blocks as a markdown document.
func RenderMarkdown(blocks []DisplayBlock) string {
	var b strings.Builder
	paragraph := 0
	for _, block := range blocks {
		switch block.Kind {
		case BlockHeading:
			fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", max(block.Level, 1)), strings.Join(splitLines(block.Text), " "))
		case BlockText:
			switch block.Role {
			case RoleSubParagraph:
				fmt.Fprintf(&b, "- %s\n\n", markdownLines(block.Text, "  "))
			case RoleComment:
				fmt.Fprintf(&b, "> _Comment: %s_\n\n", markdownLines(block.Text, "> "))
			default:
				paragraph++
				fmt.Fprintf(&b, "**Paragraph %d:** %s\n\n", paragraph, markdownLines(block.Text, ""))
			}
		case BlockTable:
			fmt.Fprintf(&b, "**Table %d:**\n\n", block.SourceID)
			writeMarkdownRow(&b, block.Columns)
			sep := make([]string, len(block.Columns))
			for i := range sep {
				sep[i] = "---"
			}
			writeMarkdownRow(&b, sep)
			for _, row := range block.Rows {
				writeMarkdownRow(&b, row)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.Join(splitLines(strings.ReplaceAll(c, "|", `\|`)), "<br>"))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
}

// markdownLines joins the lines of text with hard breaks. Continuation lines get
// prefix so they stay inside the enclosing list item or quote.
func markdownLines(text, prefix string) string {
	return strings.Join(splitLines(text), "  \n"+prefix)
}
