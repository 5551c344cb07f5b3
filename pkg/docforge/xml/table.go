package xml

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Table represents a table in the document
type Table struct {
	Properties *TableProperties
	Grid       *TableGrid
	Rows       []TableRow
}

// isBodyElement implements the BodyElement interface
func (t Table) isBodyElement() {}

// UnmarshalXML implements xml.Unmarshaler
func (t *Table) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(s xml.StartElement) error {
		switch s.Name.Local {
		case "tblPr":
			var props TableProperties
			if err := d.DecodeElement(&props, &s); err != nil {
				return err
			}
			t.Properties = &props
		case "tblGrid":
			var grid TableGrid
			if err := d.DecodeElement(&grid, &s); err != nil {
				return err
			}
			t.Grid = &grid
		case "tr":
			var row TableRow
			if err := d.DecodeElement(&row, &s); err != nil {
				return err
			}
			t.Rows = append(t.Rows, row)
		default:
			return d.Skip()
		}
		return nil
	})
}

// MarshalXML implements custom XML marshaling for Table to ensure proper namespacing
func (t Table) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("tbl")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if t.Properties != nil {
		if err := e.Encode(t.Properties); err != nil {
			return err
		}
	}
	if t.Grid != nil {
		if err := e.Encode(t.Grid); err != nil {
			return err
		}
	}
	for i := range t.Rows {
		if err := e.Encode(&t.Rows[i]); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// StyleID returns the table style, or "" when none is set.
func (t *Table) StyleID() string {
	if t.Properties == nil || t.Properties.Style == nil {
		return ""
	}
	return t.Properties.Style.Val
}

// TableProperties represents table formatting properties
type TableProperties struct {
	Style *Style
	Width *Width
	Look  *TableLook
}

// UnmarshalXML implements xml.Unmarshaler
func (p *TableProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "tblStyle":
			p.Style = &Style{Val: attrValue(t.Attr, "val")}
		case "tblW":
			p.Width = widthFromAttrs(t.Attr)
		}
		return d.Skip()
	})
}

// MarshalXML implements custom XML marshaling for TableProperties
func (p TableProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("tblPr")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Style != nil {
		if err := e.EncodeElement(p.Style, xml.StartElement{Name: wName("tblStyle")}); err != nil {
			return err
		}
	}
	if p.Width != nil {
		if err := e.EncodeElement(p.Width, xml.StartElement{Name: wName("tblW")}); err != nil {
			return err
		}
	}
	if p.Look != nil {
		if err := e.Encode(p.Look); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// Width is a measurement with its unit type ("dxa", "pct", "auto").
type Width struct {
	Type string
	Val  int
}

func widthFromAttrs(attrs []xml.Attr) *Width {
	v, _ := strconv.Atoi(attrValue(attrs, "w"))
	return &Width{Type: attrValue(attrs, "type"), Val: v}
}

// MarshalXML keeps the caller's element name (w:tblW, w:tcW, w:gridCol).
func (w Width) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{wAttr("w", strconv.Itoa(w.Val))}
	if w.Type != "" {
		start.Attr = append(start.Attr, wAttr("type", w.Type))
	}
	return e.EncodeElement(struct{}{}, start)
}

// TableLook represents table style options
type TableLook struct {
	FirstRow    bool
	LastRow     bool
	FirstColumn bool
	LastColumn  bool
	NoHBand     bool
	NoVBand     bool
}

// MarshalXML implements custom XML marshaling for TableLook
func (t TableLook) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	flag := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}
	start = xml.StartElement{Name: wName("tblLook"), Attr: []xml.Attr{
		wAttr("firstRow", flag(t.FirstRow)),
		wAttr("lastRow", flag(t.LastRow)),
		wAttr("firstColumn", flag(t.FirstColumn)),
		wAttr("lastColumn", flag(t.LastColumn)),
		wAttr("noHBand", flag(t.NoHBand)),
		wAttr("noVBand", flag(t.NoVBand)),
	}}
	return e.EncodeElement(struct{}{}, start)
}

// TableGrid represents the column layout of a table
type TableGrid struct {
	Columns []Width
}

// UnmarshalXML implements xml.Unmarshaler
func (g *TableGrid) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		if t.Name.Local == "gridCol" {
			g.Columns = append(g.Columns, *widthFromAttrs(t.Attr))
		}
		return d.Skip()
	})
}

// MarshalXML implements xml.Marshaler
func (g TableGrid) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("tblGrid")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, col := range g.Columns {
		// gridCol carries only w:w
		if err := e.EncodeElement(Width{Val: col.Val}, xml.StartElement{Name: wName("gridCol")}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// TableRow represents a row in a table
type TableRow struct {
	Properties *TableRowProperties
	Cells      []TableCell
}

// UnmarshalXML implements xml.Unmarshaler
func (r *TableRow) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "trPr":
			var props TableRowProperties
			if err := d.DecodeElement(&props, &t); err != nil {
				return err
			}
			r.Properties = &props
		case "tc":
			var cell TableCell
			if err := d.DecodeElement(&cell, &t); err != nil {
				return err
			}
			r.Cells = append(r.Cells, cell)
		default:
			return d.Skip()
		}
		return nil
	})
}

// MarshalXML implements xml.Marshaler
func (r TableRow) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("tr")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if r.Properties != nil {
		if err := e.Encode(r.Properties); err != nil {
			return err
		}
	}
	for i := range r.Cells {
		if err := e.Encode(&r.Cells[i]); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// IsHeader reports whether the row repeats as a table header.
func (r *TableRow) IsHeader() bool {
	return r.Properties != nil && r.Properties.Header
}

// TableRowProperties represents row-level properties
type TableRowProperties struct {
	CantSplit bool
	Header    bool
}

// UnmarshalXML implements xml.Unmarshaler
func (p *TableRowProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "cantSplit":
			p.CantSplit = toggleOn(t)
		case "tblHeader":
			p.Header = toggleOn(t)
		}
		return d.Skip()
	})
}

// MarshalXML implements xml.Marshaler
func (p TableRowProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("trPr")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if p.CantSplit {
		if err := encodeEmpty(e, "cantSplit"); err != nil {
			return err
		}
	}
	if p.Header {
		if err := encodeEmpty(e, "tblHeader"); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// TableCell represents a cell in a table row
type TableCell struct {
	Width      *Width
	Paragraphs []Paragraph
}

// UnmarshalXML implements xml.Unmarshaler
func (c *TableCell) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "tcPr":
			return decodeUntilEnd(d, func(p xml.StartElement) error {
				if p.Name.Local == "tcW" {
					c.Width = widthFromAttrs(p.Attr)
				}
				return d.Skip()
			})
		case "p":
			var para Paragraph
			if err := d.DecodeElement(&para, &t); err != nil {
				return err
			}
			c.Paragraphs = append(c.Paragraphs, para)
			return nil
		}
		return d.Skip()
	})
}

// MarshalXML writes at least one paragraph, since a cell without one is invalid.
func (c TableCell) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("tc")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if c.Width != nil {
		tcPr := xml.StartElement{Name: wName("tcPr")}
		if err := e.EncodeToken(tcPr); err != nil {
			return err
		}
		if err := e.EncodeElement(c.Width, xml.StartElement{Name: wName("tcW")}); err != nil {
			return err
		}
		if err := e.EncodeToken(tcPr.End()); err != nil {
			return err
		}
	}
	paragraphs := c.Paragraphs
	if len(paragraphs) == 0 {
		paragraphs = []Paragraph{{}}
	}
	for i := range paragraphs {
		if err := e.Encode(&paragraphs[i]); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// GetText returns the text of all paragraphs in the cell, one per line.
func (c *TableCell) GetText() string {
	texts := make([]string, 0, len(c.Paragraphs))
	for i := range c.Paragraphs {
		texts = append(texts, c.Paragraphs[i].GetText())
	}
	return strings.Join(texts, "\n")
}
