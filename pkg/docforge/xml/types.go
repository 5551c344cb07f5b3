package xml

import (
	"encoding/xml"
	"strconv"
)

// Namespace URIs used by generated content.
const (
	NamespaceW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespaceWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NamespaceA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespacePic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

// RequiredNamespaces maps each prefix the marshalers emit to its namespace URI.
var RequiredNamespaces = map[string]string{
	"w":   NamespaceW,
	"r":   NamespaceR,
	"wp":  NamespaceWP,
	"a":   NamespaceA,
	"pic": NamespacePic,
}

// BodyElement represents any element that can appear in a document body
type BodyElement interface {
	isBodyElement()
}

// ParagraphContent represents any content that can appear in a paragraph
type ParagraphContent interface {
	isParagraphContent()
}

// Empty represents an empty element (used for boolean properties)
type Empty struct{}

// Style represents a style reference such as w:pStyle or w:tblStyle
type Style struct {
	Val string `xml:"val,attr"`
}

// MarshalXML keeps the caller's element name, which differs per context.
func (s Style) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{wAttr("val", s.Val)}
	return e.EncodeElement(struct{}{}, start)
}

// IntVal is a w:val attribute holding an integer (w:ilvl, w:numId).
type IntVal struct {
	Val int `xml:"val,attr"`
}

// MarshalXML implements xml.Marshaler
func (v IntVal) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{wAttr("val", strconv.Itoa(v.Val))}
	return e.EncodeElement(struct{}{}, start)
}

func wName(local string) xml.Name {
	return xml.Name{Local: "w:" + local}
}

func wAttr(local, value string) xml.Attr {
	return xml.Attr{Name: wName(local), Value: value}
}

func encodeEmpty(e *xml.Encoder, name string) error {
	return e.EncodeElement(struct{}{}, xml.StartElement{Name: wName(name)})
}

// decodeUntilEnd reads child tokens of the current element, handing each child start
// element to fn. Children fn does not consume must be skipped by fn.
func decodeUntilEnd(d *xml.Decoder, fn func(t xml.StartElement) error) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func attrValue(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
