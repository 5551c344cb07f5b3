package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Document represents a Word document structure
type Document struct {
	Body *Body
	// Attrs preserves the root element attributes (namespace declarations).
	Attrs []xml.Attr
}

// UnmarshalXML implements custom XML unmarshaling to preserve root attributes
func (doc *Document) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	doc.Attrs = start.Attr
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		if t.Name.Local != "body" {
			return d.Skip()
		}
		var body Body
		if err := d.DecodeElement(&body, &t); err != nil {
			return err
		}
		doc.Body = &body
		return nil
	})
}

// Body represents the document body
type Body struct {
	// Elements maintains the order of all body elements
	Elements []BodyElement
	// HasSectionProperties reports a trailing w:sectPr.
	HasSectionProperties bool
}

// UnmarshalXML implements custom XML unmarshaling to preserve element order
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeUntilEnd(d, func(t xml.StartElement) error {
		switch t.Name.Local {
		case "p":
			var para Paragraph
			if err := d.DecodeElement(&para, &t); err != nil {
				return err
			}
			b.Elements = append(b.Elements, &para)
			return nil
		case "tbl":
			var table Table
			if err := d.DecodeElement(&table, &t); err != nil {
				return err
			}
			b.Elements = append(b.Elements, &table)
			return nil
		case "sectPr":
			b.HasSectionProperties = true
		}
		return d.Skip()
	})
}

// Paragraphs returns the top-level paragraphs of the body.
func (b *Body) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range b.Elements {
		if p, ok := el.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the top-level tables of the body.
func (b *Body) Tables() []*Table {
	var out []*Table
	for _, el := range b.Elements {
		if t, ok := el.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// ParseDocument parses a Word document XML
func ParseDocument(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Body == nil {
		return nil, errors.New("failed to parse document: missing body")
	}

	return &doc, nil
}

// MarshalElements encodes body elements as a fragment suitable for SpliceBody.
func MarshalElements(elements []BodyElement) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	for _, el := range elements {
		var err error
		switch v := el.(type) {
		case *Paragraph:
			err = enc.Encode(v)
		case *Table:
			err = enc.Encode(v)
		default:
			err = fmt.Errorf("unsupported body element %T", el)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BodyLayout records byte offsets into a document.xml needed to splice content.
type BodyLayout struct {
	// RootTagEnd is the offset of the '>' closing the root start tag.
	RootTagEnd int
	// Insert is where appended body content goes: before the trailing body-level
	// w:sectPr, or before the body end tag.
	Insert int
	// SelfClosingBody is set for <w:body/>; Insert then points at its "/>".
	SelfClosingBody bool
	// BodyPrefix is the prefix used on the body element ("w" in practice).
	BodyPrefix string
	// Namespaces maps prefixes declared on the root element to URIs.
	Namespaces map[string]string
	// MaxDrawingID is the highest wp:docPr id already in the body.
	MaxDrawingID int
}

// ScanBody locates the splice points of a document.xml without rewriting it.
func ScanBody(data []byte) (*BodyLayout, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false

	layout := &BodyLayout{RootTagEnd: -1, Insert: -1, Namespaces: map[string]string{}}
	depth := 0
	inBody := false
	sectPr := -1

	for {
		offset := int(d.InputOffset())
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			end := int(d.InputOffset())
			switch {
			case depth == 1:
				layout.RootTagEnd = end - 1
				for _, a := range t.Attr {
					if a.Name.Space == "xmlns" {
						layout.Namespaces[a.Name.Local] = a.Value
					} else if a.Name.Space == "" && a.Name.Local == "xmlns" {
						layout.Namespaces[""] = a.Value
					}
				}
			case depth == 2 && t.Name.Local == "body":
				inBody = true
				layout.BodyPrefix = t.Name.Space
				if bytes.HasSuffix(data[:end], []byte("/>")) {
					layout.SelfClosingBody = true
					layout.Insert = end - 2
					return layout, nil
				}
			case depth == 3 && inBody:
				if t.Name.Local == "sectPr" {
					sectPr = offset
				} else {
					sectPr = -1
				}
			case t.Name.Local == "docPr":
				if id, err := strconv.Atoi(attrValue(t.Attr, "id")); err == nil && id > layout.MaxDrawingID {
					layout.MaxDrawingID = id
				}
			}
		case xml.EndElement:
			if depth == 2 && inBody && t.Name.Local == "body" {
				layout.Insert = offset
				if sectPr >= 0 {
					layout.Insert = sectPr
				}
				return layout, nil
			}
			depth--
		}
	}

	if layout.RootTagEnd < 0 {
		return nil, errors.New("failed to scan document: no root element")
	}
	return nil, errors.New("failed to scan document: missing body")
}

// SpliceBody inserts fragment into document at the layout's insertion point and
// declares any prefix in RequiredNamespaces the root element lacks.
func SpliceBody(data []byte, layout *BodyLayout, fragment []byte) []byte {
	var missing []string
	for prefix := range RequiredNamespaces {
		if _, ok := layout.Namespaces[prefix]; !ok {
			missing = append(missing, prefix)
		}
	}
	sort.Strings(missing)

	var decls strings.Builder
	for _, prefix := range missing {
		fmt.Fprintf(&decls, ` xmlns:%s="%s"`, prefix, RequiredNamespaces[prefix])
	}

	out := make([]byte, 0, len(data)+len(fragment)+decls.Len()+16)
	out = append(out, data[:layout.RootTagEnd]...)
	out = append(out, decls.String()...)
	// RootTagEnd < Insert always holds: the body lives inside the root element.
	out = append(out, data[layout.RootTagEnd:layout.Insert]...)
	if layout.SelfClosingBody {
		out = append(out, '>')
		out = append(out, fragment...)
		out = append(out, "</"...)
		if layout.BodyPrefix != "" {
			out = append(out, layout.BodyPrefix...)
			out = append(out, ':')
		}
		out = append(out, "body>"...)
		out = append(out, data[layout.Insert+2:]...)
		return out
	}
	out = append(out, fragment...)
	out = append(out, data[layout.Insert:]...)
	return out
}
