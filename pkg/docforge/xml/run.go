package xml

import (
	"encoding/xml"
	"strings"
)

// Run represents a run of text with common properties
type Run struct {
	Properties *RunProperties
	Text       *Text
	Break      *Break
	Drawing    *Drawing
}

// isParagraphContent implements the ParagraphContent interface
func (r Run) isParagraphContent() {}

// NewTextRun returns a run holding text. Leading or trailing whitespace is preserved.
func NewTextRun(text string) *Run {
	return &Run{Text: NewText(text)}
}

// TextRuns splits text on newlines into runs sharing props, each line after the
// first starting with a line break.
func TextRuns(text string, props *RunProperties) []*Run {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	runs := make([]*Run, 0, len(lines))
	for i, line := range lines {
		r := &Run{Properties: props}
		if i > 0 {
			r.Break = &Break{}
		}
		if line != "" {
			r.Text = NewText(line)
		}
		runs = append(runs, r)
	}
	return runs
}

// UnmarshalXML implements custom XML unmarshaling for Run
func (r *Run) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "rPr":
			var props RunProperties
			if err := d.DecodeElement(&props, &t); err != nil {
				return err
			}
			r.Properties = &props
		case "t":
			var text Text
			if err := d.DecodeElement(&text, &t); err != nil {
				return err
			}
			if r.Text != nil {
				r.Text.Content += text.Content
			} else {
				r.Text = &text
			}
		case "br":
			r.Break = &Break{Type: attrValue(t.Attr, "type")}
			return d.Skip()
		case "drawing":
			var drawing Drawing
			if err := d.DecodeElement(&drawing, &t); err != nil {
				return err
			}
			r.Drawing = &drawing
		default:
			return d.Skip()
		}
		return nil
	})
}

// MarshalXML implements custom XML marshaling for Run to ensure proper namespacing
func (r Run) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("r")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if r.Properties != nil {
		if err := e.Encode(r.Properties); err != nil {
			return err
		}
	}
	if r.Break != nil {
		if err := e.Encode(r.Break); err != nil {
			return err
		}
	}
	if r.Text != nil {
		if err := e.Encode(r.Text); err != nil {
			return err
		}
	}
	if r.Drawing != nil {
		if err := e.Encode(r.Drawing); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// GetText returns the text content of a run. A line break reads as "\n".
func (r *Run) GetText() string {
	var s string
	if r.Break != nil && (r.Break.Type == "" || r.Break.Type == "textWrapping") {
		s = "\n"
	}
	if r.Text != nil {
		s += r.Text.Content
	}
	return s
}

// IsBold reports whether the run is bold.
func (r *Run) IsBold() bool {
	return r.Properties != nil && r.Properties.Bold
}

// IsItalic reports whether the run is italic.
func (r *Run) IsItalic() bool {
	return r.Properties != nil && r.Properties.Italic
}

// RunProperties represents run formatting properties
type RunProperties struct {
	Style  string
	Bold   bool
	Italic bool
}

// UnmarshalXML implements xml.Unmarshaler. A toggle with w:val="0" or "false" is off.
func (p *RunProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "rStyle":
			p.Style = attrValue(t.Attr, "val")
		case "b":
			p.Bold = toggleOn(t)
		case "i":
			p.Italic = toggleOn(t)
		}
		return d.Skip()
	})
}

// MarshalXML implements xml.Marshaler
func (p RunProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("rPr")}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if p.Style != "" {
		if err := e.EncodeElement(Style{Val: p.Style}, xml.StartElement{Name: wName("rStyle")}); err != nil {
			return err
		}
	}
	if p.Bold {
		if err := encodeEmpty(e, "b"); err != nil {
			return err
		}
	}
	if p.Italic {
		if err := encodeEmpty(e, "i"); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func toggleOn(t xml.StartElement) bool {
	switch strings.ToLower(attrValue(t.Attr, "val")) {
	case "0", "false", "off":
		return false
	}
	return true
}

// Text represents text content
type Text struct {
	Space   string `xml:"space,attr"`
	Content string `xml:",chardata"`
}

// NewText returns a Text that keeps surrounding whitespace when it has any.
func NewText(s string) *Text {
	t := &Text{Content: s}
	if strings.TrimSpace(s) != s {
		t.Space = "preserve"
	}
	return t
}

// MarshalXML implements custom XML marshaling for Text to ensure proper namespacing
func (t Text) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("t")}
	if t.Space == "preserve" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xml:space"}, Value: "preserve"})
	}
	return e.EncodeElement(t.Content, start)
}

// Break represents a line break
type Break struct {
	Type string `xml:"type,attr,omitempty"`
}

// MarshalXML implements xml.Marshaler
func (b Break) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: wName("br")}
	if b.Type != "" {
		start.Attr = append(start.Attr, wAttr("type", b.Type))
	}
	return e.EncodeElement(struct{}{}, start)
}
