package docforge

import (
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"

	wml "github.com/benjaminschreck/docforge/pkg/docforge/xml"
)

const (
	// Filename is the download name of an exported document.
	Filename = "generated_document.docx"
	// MIMEType is the media type of an exported document.
	MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// contentWidthTwips is the text width of a letter page with one-inch margins.
const contentWidthTwips = 9360

// Exporter serializes a Store into a DOCX package.
type Exporter struct {
	config *Config
	cache  *TemplateCache
	log    zerolog.Logger
}

// Export builds the document for the store's current content. The store is read
// only; exporting an unchanged store twice yields identical bytes.
func (e *Exporter) Export(ctx context.Context, s *Store) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg, templatePath, err := e.basePackage(s)
	if err != nil {
		return nil, err
	}
	// Failures reading base parts belong to the template when one is used.
	baseErr := func(part string, cause error) error {
		if templatePath != "" {
			return NewTemplateLoadError(templatePath, cause)
		}
		return NewSerializationError(part, cause)
	}

	docXML, _ := pkg.get(partDocument)
	layout, err := wml.ScanBody(docXML)
	if err != nil {
		return nil, baseErr(partDocument, err)
	}

	rels := newRelationships()
	if data, ok := pkg.get(partDocumentRels); ok {
		if rels, err = parseRelationships(data); err != nil {
			return nil, baseErr(partDocumentRels, err)
		}
	}
	ctData, ok := pkg.get(partContentTypes)
	if !ok {
		return nil, baseErr(partContentTypes, errMissingPart(partContentTypes))
	}
	ct, err := parseContentTypes(ctData)
	if err != nil {
		return nil, baseErr(partContentTypes, err)
	}

	if err := ensureRequiredStyles(pkg, rels, ct); err != nil {
		return nil, baseErr(partStyles, err)
	}

	elements := e.bodyElements(s)
	images, skipped := e.embedImages(s, pkg, rels, ct, layout.MaxDrawingID)
	elements = append(elements, images...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fragment, err := wml.MarshalElements(elements)
	if err != nil {
		return nil, NewSerializationError(partDocument, err)
	}
	pkg.set(partDocument, wml.SpliceBody(docXML, layout, fragment))

	relsXML, err := rels.marshal()
	if err != nil {
		return nil, NewSerializationError(partDocumentRels, err)
	}
	pkg.set(partDocumentRels, relsXML)

	ctXML, err := ct.marshal()
	if err != nil {
		return nil, NewSerializationError(partContentTypes, err)
	}
	pkg.set(partContentTypes, ctXML)

	out, err := pkg.bytes()
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int("paragraphs", len(s.paragraphs)).
		Int("tables", len(s.tables)).
		Int("images", len(images)).
		Int("images_skipped", skipped).
		Str("template", templatePath).
		Int("bytes", len(out)).
		Msg("document exported")

	return out, nil
}

// ExportTo writes the exported document to w.
func (e *Exporter) ExportTo(ctx context.Context, s *Store, w io.Writer) error {
	data, err := e.Export(ctx, s)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return NewSerializationError("", err)
	}
	return nil
}

func (e *Exporter) basePackage(s *Store) (*docPackage, string, error) {
	cover, ok := s.Cover()
	if !ok {
		return blankPackage(), "", nil
	}
	pkg, err := e.cache.load(cover.TemplatePath)
	if err != nil {
		e.log.Error().Err(err).Str("template", cover.TemplatePath).Msg("cover template unavailable")
		return nil, "", err
	}
	return pkg, cover.TemplatePath, nil
}

// bodyElements converts paragraphs and tables to WordprocessingML in creation order.
func (e *Exporter) bodyElements(s *Store) []wml.BodyElement {
	var elements []wml.BodyElement

	for _, p := range s.paragraphs {
		para := &wml.Paragraph{Properties: &wml.ParagraphProperties{
			Spacing: &wml.Spacing{After: e.config.ParagraphSpacingAfter},
		}}
		addRuns(para, wml.TextRuns(p.Content, nil))
		elements = append(elements, para)

		for _, sub := range p.SubParagraphs {
			item := &wml.Paragraph{Properties: &wml.ParagraphProperties{
				Style: &wml.Style{Val: StyleListBullet},
			}}
			addRuns(item, wml.TextRuns(sub, nil))
			elements = append(elements, item)
		}

		for _, c := range p.Comments {
			note := &wml.Paragraph{}
			addRuns(note, wml.TextRuns("Comment: "+c, &wml.RunProperties{Italic: true}))
			elements = append(elements, note)
		}
	}

	for _, t := range s.tables {
		elements = append(elements, tableElement(t), wml.NewParagraph(""))
	}
	return elements
}

func addRuns(p *wml.Paragraph, runs []*wml.Run) {
	for _, r := range runs {
		p.AddRun(r)
	}
}

func tableElement(t *Table) *wml.Table {
	colWidth := contentWidthTwips / len(t.Columns)

	tbl := &wml.Table{
		Properties: &wml.TableProperties{
			Style: &wml.Style{Val: StyleTableGrid},
			Width: &wml.Width{Type: "auto", Val: 0},
			Look:  &wml.TableLook{FirstRow: true, NoVBand: true},
		},
		Grid: &wml.TableGrid{},
	}
	for range t.Columns {
		tbl.Grid.Columns = append(tbl.Grid.Columns, wml.Width{Type: "dxa", Val: colWidth})
	}

	row := func(cells []string, props *wml.RunProperties) wml.TableRow {
		r := wml.TableRow{}
		for _, text := range cells {
			cell := wml.TableCell{Width: &wml.Width{Type: "dxa", Val: colWidth}}
			para := wml.Paragraph{}
			if text != "" {
				addRuns(&para, wml.TextRuns(text, props))
			}
			cell.Paragraphs = []wml.Paragraph{para}
			r.Cells = append(r.Cells, cell)
		}
		return r
	}

	header := row(t.Columns, &wml.RunProperties{Bold: true})
	header.Properties = &wml.TableRowProperties{CantSplit: true, Header: true}
	tbl.Rows = append(tbl.Rows, header)
	for _, cells := range t.Rows {
		tbl.Rows = append(tbl.Rows, row(cells, nil))
	}
	return tbl
}

// embedImages stores decodable images as media parts and returns one paragraph per
// embedded picture. Images that cannot be embedded are logged and counted.
func (e *Exporter) embedImages(s *Store, pkg *docPackage, rels *Relationships, ct *ContentTypes, lastDrawingID int) ([]wml.BodyElement, int) {
	var elements []wml.BodyElement
	skipped := 0
	drawingID := lastDrawingID

	for _, img := range s.images {
		ext, ok := imageExtension(img.MIMEType)
		if !ok {
			skipped++
			e.log.Warn().Int("image", img.ID).Str("mime_type", img.MIMEType).Msg("skipping image with unsupported format")
			continue
		}
		cx, cy, err := imageExtent(img.Data, e.config.MaxImageWidthEMU)
		if err != nil {
			skipped++
			e.log.Warn().Err(err).Int("image", img.ID).Msg("skipping undecodable image")
			continue
		}

		name := mediaFilename(*img, ext)
		pkg.set(mediaDir+name, img.Data)
		relID := rels.Add(relTypeImage, "media/"+name)
		ct.EnsureDefault(ext, img.MIMEType)

		drawingID++
		label := img.Name
		if label == "" {
			label = name
		}
		para := &wml.Paragraph{}
		para.AddRun(&wml.Run{Drawing: &wml.Drawing{
			Width:   cx,
			Height:  cy,
			ID:      drawingID,
			Name:    label,
			EmbedID: relID,
		}})
		elements = append(elements, para)
	}
	return elements, skipped
}

type errMissingPart string

func (e errMissingPart) Error() string {
	return "missing part " + string(e)
}

// ParagraphText is a paragraph read back from a document.
type ParagraphText struct {
	Text    string
	StyleID string
	Italic  bool
	Bold    bool
}

// DocumentText is the readable content of a DOCX body.
type DocumentText struct {
	Paragraphs []ParagraphText
	Tables     [][][]string
	// Images counts inline pictures whose media part is present.
	Images int
}

// ReadDocumentText parses a DOCX package and extracts its body text.
func ReadDocumentText(data []byte) (*DocumentText, error) {
	dr, err := DocxReaderFromBytes(data)
	if err != nil {
		return nil, err
	}
	docXML, err := dr.GetDocumentXML()
	if err != nil {
		return nil, err
	}
	doc, err := wml.ParseDocument(bytes.NewReader(docXML))
	if err != nil {
		return nil, err
	}
	rels, err := dr.GetRelationships(partDocument)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Relationship))
	for _, rel := range rels.Relationship {
		targets[rel.ID] = rel.Target
	}

	out := &DocumentText{Paragraphs: []ParagraphText{}, Tables: [][][]string{}}
	for _, el := range doc.Body.Elements {
		switch v := el.(type) {
		case *wml.Paragraph:
			pt := ParagraphText{Text: v.GetText(), StyleID: v.StyleID()}
			for _, r := range v.Runs() {
				if r.Drawing != nil && dr.HasPart("word/"+targets[r.Drawing.EmbedID]) {
					out.Images++
				}
				if r.Text != nil {
					pt.Italic = pt.Italic || r.IsItalic()
					pt.Bold = pt.Bold || r.IsBold()
				}
			}
			out.Paragraphs = append(out.Paragraphs, pt)
		case *wml.Table:
			rows := make([][]string, 0, len(v.Rows))
			for _, row := range v.Rows {
				cells := make([]string, 0, len(row.Cells))
				for i := range row.Cells {
					cells = append(cells, row.Cells[i].GetText())
				}
				rows = append(rows, cells)
			}
			out.Tables = append(out.Tables, rows)
		}
	}
	return out, nil
}
