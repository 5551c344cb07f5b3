package docforge

import (
	"fmt"
	"strconv"
	"strings"
)

// Paragraph is a top-level text block with its nested sub-paragraphs and comments.
type Paragraph struct {
	ID            int      `json:"id"`
	Content       string   `json:"content"`
	SubParagraphs []string `json:"sub_paragraphs"`
	Comments      []string `json:"comments"`
}

// Table is a rectangular grid of text cells with named columns.
type Table struct {
	ID      int        `json:"id"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// RowCount returns the number of data rows.
func (t Table) RowCount() int { return len(t.Rows) }

// ColumnCount returns the number of columns.
func (t Table) ColumnCount() int { return len(t.Columns) }

// Image is an opaque embedded image payload.
type Image struct {
	ID       int    `json:"id"`
	Data     []byte `json:"-"`
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mime_type"`
}

// CoverTemplate pairs a template document with its preview image.
type CoverTemplate struct {
	Name         string `json:"name"`
	TemplatePath string `json:"template_path"`
	ImagePath    string `json:"image_path"`
}

// ChildRef identifies a sub-paragraph or comment by its parent and 1-based ordinal.
type ChildRef struct {
	ParentID int
	Ordinal  int
}

func (c ChildRef) String() string {
	return fmt.Sprintf("%d.%d", c.ParentID, c.Ordinal)
}

// CoverLookup resolves cover template names. *Catalog implements it.
type CoverLookup interface {
	Lookup(name string) (CoverTemplate, bool)
}

// DefaultMaxTableCells bounds rows x cols of a single table.
const DefaultMaxTableCells = 10000

// Store holds the content of one document-building session.
//
// Top-level entities get ids from independent counters starting at 1; ids are never
// reused. Children of a paragraph are addressed by dense 1-based ordinals.
//
// A Store is not safe for concurrent mutation.
type Store struct {
	paragraphs []*Paragraph
	tables     []*Table
	images     []*Image
	cover      *CoverTemplate

	nextParagraphID int
	nextTableID     int
	nextImageID     int

	maxTableCells int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxTableCells limits the cell count of each table. Values below 1 keep the
// default.
func WithMaxTableCells(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxTableCells = n
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{nextParagraphID: 1, nextTableID: 1, nextImageID: 1, maxTableCells: DefaultMaxTableCells}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AddParagraph appends a paragraph and returns its id.
func (s *Store) AddParagraph(text string) (int, error) {
	if isBlank(text) {
		return 0, NewValidationError("content", "paragraph cannot be empty")
	}
	id := s.nextParagraphID
	s.nextParagraphID++
	s.paragraphs = append(s.paragraphs, &Paragraph{ID: id, Content: text})
	return id, nil
}

func (s *Store) paragraph(id int) *Paragraph {
	for _, p := range s.paragraphs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddSubParagraph appends a sub-paragraph to a paragraph and returns its ordinal.
func (s *Store) AddSubParagraph(parentID int, text string) (int, error) {
	p := s.paragraph(parentID)
	if p == nil {
		return 0, NewNotFoundError("paragraph", strconv.Itoa(parentID))
	}
	if isBlank(text) {
		return 0, NewValidationError("sub_paragraph", "sub-paragraph cannot be empty")
	}
	p.SubParagraphs = append(p.SubParagraphs, text)
	return len(p.SubParagraphs), nil
}

// AddComment appends a comment to a paragraph and returns its ordinal.
func (s *Store) AddComment(parentID int, text string) (int, error) {
	p := s.paragraph(parentID)
	if p == nil {
		return 0, NewNotFoundError("paragraph", strconv.Itoa(parentID))
	}
	if isBlank(text) {
		return 0, NewValidationError("comment", "comment cannot be empty")
	}
	p.Comments = append(p.Comments, text)
	return len(p.Comments), nil
}

// AddTable appends a rows x cols table. Missing cells are empty and cells beyond the
// declared dimensions are ignored. Tables larger than the store's cell limit are
// rejected.
func (s *Store) AddTable(rows, cols int, cells [][]string) (int, error) {
	var issues []ValidationIssue
	if rows < 1 {
		issues = append(issues, ValidationIssue{Field: "rows", Message: "must be at least 1"})
	}
	if cols < 1 {
		issues = append(issues, ValidationIssue{Field: "cols", Message: "must be at least 1"})
	}
	if len(issues) == 0 && rows > s.maxTableCells/cols {
		issues = append(issues, ValidationIssue{
			Field:   "cells",
			Message: fmt.Sprintf("table of %d x %d exceeds the limit of %d cells", rows, cols, s.maxTableCells),
		})
	}
	if len(issues) > 0 {
		return 0, &ValidationError{Issues: issues}
	}

	t := &Table{Columns: make([]string, cols), Rows: make([][]string, rows)}
	for c := range t.Columns {
		t.Columns[c] = fmt.Sprintf("Column %d", c+1)
	}
	for r := range t.Rows {
		row := make([]string, cols)
		if r < len(cells) {
			copy(row, cells[r])
		}
		t.Rows[r] = row
	}

	t.ID = s.nextTableID
	s.nextTableID++
	s.tables = append(s.tables, t)
	return t.ID, nil
}

// AddImage appends an image payload and returns its id.
func (s *Store) AddImage(data []byte) (int, error) {
	return s.AddNamedImage("", data)
}

// AddNamedImage appends an image payload with an optional original file name.
func (s *Store) AddNamedImage(name string, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, NewValidationError("image", "image data cannot be empty")
	}
	img := &Image{
		ID:       s.nextImageID,
		Data:     append([]byte(nil), data...),
		Name:     name,
		MIMEType: detectImageType(data),
	}
	s.nextImageID++
	s.images = append(s.images, img)
	return img.ID, nil
}

// SelectCover sets the cover template reference to name resolved via catalog.
func (s *Store) SelectCover(catalog CoverLookup, name string) error {
	if catalog == nil {
		return NewNotFoundError("cover template", name)
	}
	cover, ok := catalog.Lookup(name)
	if !ok {
		return NewNotFoundError("cover template", name)
	}
	s.cover = &cover
	return nil
}

// ClearCover removes the cover template reference.
func (s *Store) ClearCover() {
	s.cover = nil
}

// Cover returns the selected cover template, if any.
func (s *Store) Cover() (CoverTemplate, bool) {
	if s.cover == nil {
		return CoverTemplate{}, false
	}
	return *s.cover, true
}

// Paragraph returns a copy of the paragraph with the given id.
func (s *Store) Paragraph(id int) (Paragraph, bool) {
	p := s.paragraph(id)
	if p == nil {
		return Paragraph{}, false
	}
	return copyParagraph(p), true
}

// Paragraphs returns copies of all paragraphs in creation order.
func (s *Store) Paragraphs() []Paragraph {
	out := make([]Paragraph, len(s.paragraphs))
	for i, p := range s.paragraphs {
		out[i] = copyParagraph(p)
	}
	return out
}

// Tables returns copies of all tables in creation order.
func (s *Store) Tables() []Table {
	out := make([]Table, len(s.tables))
	for i, t := range s.tables {
		rows := make([][]string, len(t.Rows))
		for r, row := range t.Rows {
			rows[r] = cloneStrings(row)
		}
		out[i] = Table{ID: t.ID, Columns: cloneStrings(t.Columns), Rows: rows}
	}
	return out
}

// Images returns copies of all images in creation order.
func (s *Store) Images() []Image {
	out := make([]Image, len(s.images))
	for i, img := range s.images {
		out[i] = *img
		out[i].Data = append([]byte(nil), img.Data...)
	}
	return out
}

// Len returns the number of top-level entities (paragraphs, tables and images).
func (s *Store) Len() int {
	return len(s.paragraphs) + len(s.tables) + len(s.images)
}

// IsEmpty reports whether the store holds no paragraphs, tables or images.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

func copyParagraph(p *Paragraph) Paragraph {
	return Paragraph{
		ID:            p.ID,
		Content:       p.Content,
		SubParagraphs: cloneStrings(p.SubParagraphs),
		Comments:      cloneStrings(p.Comments),
	}
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
