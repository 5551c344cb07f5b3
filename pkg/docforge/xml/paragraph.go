package xml

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Paragraph represents a paragraph in the document
type Paragraph struct {
	Properties *ParagraphProperties
	// Content maintains the order of runs
	Content []ParagraphContent
}

// isBodyElement implements the BodyElement interface
func (p Paragraph) isBodyElement() {}

// NewParagraph returns a paragraph holding a single text run.
func NewParagraph(text string) *Paragraph {
	p := &Paragraph{}
	if text != "" {
		p.Content = append(p.Content, NewTextRun(text))
	}
	return p
}

// AddRun appends a run and returns it.
func (p *Paragraph) AddRun(r *Run) *Run {
	p.Content = append(p.Content, r)
	return r
}

// Runs returns the runs of the paragraph in document order.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for _, c := range p.Content {
		if r, ok := c.(*Run); ok {
			runs = append(runs, r)
		}
	}
	return runs
}

// UnmarshalXML implements custom XML unmarshaling to preserve element order
func (p *Paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "pPr":
			var props ParagraphProperties
			if err := d.DecodeElement(&props, &t); err != nil {
				return err
			}
			p.Properties = &props
		case "r":
			var run Run
			if err := d.DecodeElement(&run, &t); err != nil {
				return err
			}
			p.Content = append(p.Content, &run)
		case "hyperlink", "ins", "smartTag":
			// Runs nested in wrappers still carry paragraph text.
			var wrapper Paragraph
			if err := wrapper.UnmarshalXML(d, t); err != nil {
				return err
			}
			p.Content = append(p.Content, wrapper.Content...)
		default:
			return d.Skip()
		}
		return nil
	})
}

// MarshalXML implements custom XML marshaling for Paragraph to ensure proper namespacing
func (p Paragraph) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("p")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Properties != nil {
		if err := e.Encode(p.Properties); err != nil {
			return err
		}
	}

	for _, content := range p.Content {
		if r, ok := content.(*Run); ok {
			if err := e.Encode(r); err != nil {
				return err
			}
		}
	}

	return e.EncodeToken(start.End())
}

// GetText returns the concatenated text of all runs in a paragraph
func (p *Paragraph) GetText() string {
	var b strings.Builder
	for _, r := range p.Runs() {
		b.WriteString(r.GetText())
	}
	return b.String()
}

// StyleID returns the paragraph style, or "" when none is set.
func (p *Paragraph) StyleID() string {
	if p.Properties == nil || p.Properties.Style == nil {
		return ""
	}
	return p.Properties.Style.Val
}

// ParagraphProperties represents paragraph formatting properties
type ParagraphProperties struct {
	Style     *Style
	KeepNext  bool
	Numbering *NumberingProperties
	Spacing   *Spacing
}

// UnmarshalXML implements xml.Unmarshaler, skipping properties it does not model.
func (p *ParagraphProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "pStyle":
			p.Style = &Style{Val: attrValue(t.Attr, "val")}
		case "keepNext":
			p.KeepNext = true
		case "numPr":
			var num NumberingProperties
			if err := d.DecodeElement(&num, &t); err != nil {
				return err
			}
			p.Numbering = &num
			return nil
		case "spacing":
			var spacing Spacing
			if err := d.DecodeElement(&spacing, &t); err != nil {
				return err
			}
			p.Spacing = &spacing
			return nil
		}
		return d.Skip()
	})
}

// MarshalXML writes children in the order the schema requires.
func (p ParagraphProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("pPr")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Style != nil {
		if err := e.EncodeElement(p.Style, xml.StartElement{Name: wName("pStyle")}); err != nil {
			return err
		}
	}
	if p.KeepNext {
		if err := encodeEmpty(e, "keepNext"); err != nil {
			return err
		}
	}
	if p.Numbering != nil {
		if err := e.Encode(p.Numbering); err != nil {
			return err
		}
	}
	if p.Spacing != nil {
		if err := e.Encode(p.Spacing); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// NumberingProperties attaches a paragraph to a numbering definition
type NumberingProperties struct {
	Level int `xml:"ilvl"`
	NumID int `xml:"numId"`
}

// UnmarshalXML implements xml.Unmarshaler
func (n *NumberingProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		v, _ := strconv.Atoi(attrValue(t.Attr, "val"))
		switch t.Name.Local {
		case "ilvl":
			n.Level = v
		case "numId":
			n.NumID = v
		}
		return d.Skip()
	})
}

// MarshalXML implements xml.Marshaler
func (n NumberingProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("numPr")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeElement(IntVal{Val: n.Level}, xml.StartElement{Name: wName("ilvl")}); err != nil {
		return err
	}
	if err := e.EncodeElement(IntVal{Val: n.NumID}, xml.StartElement{Name: wName("numId")}); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// Spacing represents paragraph spacing in twentieths of a point
type Spacing struct {
	Before   int    `xml:"before,attr,omitempty"`
	After    int    `xml:"after,attr,omitempty"`
	Line     int    `xml:"line,attr,omitempty"`
	LineRule string `xml:"lineRule,attr,omitempty"`
}

// MarshalXML implements custom XML marshaling for Spacing
func (s Spacing) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("spacing")}

	if s.Before != 0 {
		start.Attr = append(start.Attr, wAttr("before", strconv.Itoa(s.Before)))
	}
	// after="0" is meaningful: it overrides a style default.
	start.Attr = append(start.Attr, wAttr("after", strconv.Itoa(s.After)))
	if s.Line != 0 {
		start.Attr = append(start.Attr, wAttr("line", strconv.Itoa(s.Line)))
	}
	if s.LineRule != "" {
		start.Attr = append(start.Attr, wAttr("lineRule", s.LineRule))
	}

	return e.EncodeElement(struct{}{}, start)
}
