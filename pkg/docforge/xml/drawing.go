package xml

import (
	"encoding/xml"
	"strconv"
)

// EMUPerPixel converts pixels at 96 DPI to English Metric Units.
const EMUPerPixel = 9525

// Drawing is an inline picture (w:drawing/wp:inline) referencing an embedded image
// part by relationship id.
type Drawing struct {
	// Width and Height are the displayed extent in EMU.
	Width  int64
	Height int64
	// ID is the drawing object id, unique within the document.
	ID   int
	Name string
	// EmbedID is the relationship id of the image part.
	EmbedID string
}

// UnmarshalXML scans the drawing subtree for the extent, name and blip reference.
func (dr *Drawing) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "extent":
				dr.Width, _ = strconv.ParseInt(attrValue(t.Attr, "cx"), 10, 64)
				dr.Height, _ = strconv.ParseInt(attrValue(t.Attr, "cy"), 10, 64)
			case "docPr":
				dr.ID, _ = strconv.Atoi(attrValue(t.Attr, "id"))
				dr.Name = attrValue(t.Attr, "name")
			case "blip":
				dr.EmbedID = attrValue(t.Attr, "embed")
			}
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// MarshalXML writes the full inline picture tree Word expects.
func (dr Drawing) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	cx := strconv.FormatInt(dr.Width, 10)
	cy := strconv.FormatInt(dr.Height, 10)
	id := strconv.Itoa(dr.ID)

	w := &treeWriter{e: e}
	w.open("w:drawing")
	w.open("wp:inline", "distT", "0", "distB", "0", "distL", "0", "distR", "0")
	w.leaf("wp:extent", "cx", cx, "cy", cy)
	w.leaf("wp:effectExtent", "l", "0", "t", "0", "r", "0", "b", "0")
	w.leaf("wp:docPr", "id", id, "name", dr.Name)
	w.open("wp:cNvGraphicFramePr")
	w.leaf("a:graphicFrameLocks", "noChangeAspect", "1")
	w.close()
	w.open("a:graphic")
	w.open("a:graphicData", "uri", NamespacePic)
	w.open("pic:pic")
	w.open("pic:nvPicPr")
	w.leaf("pic:cNvPr", "id", id, "name", dr.Name)
	w.leaf("pic:cNvPicPr")
	w.close()
	w.open("pic:blipFill")
	w.leaf("a:blip", "r:embed", dr.EmbedID)
	w.open("a:stretch")
	w.leaf("a:fillRect")
	w.close()
	w.close()
	w.open("pic:spPr")
	w.open("a:xfrm")
	w.leaf("a:off", "x", "0", "y", "0")
	w.leaf("a:ext", "cx", cx, "cy", cy)
	w.close()
	w.open("a:prstGeom", "prst", "rect")
	w.leaf("a:avLst")
	w.close()
	w.close()
	w.close() // pic:pic
	w.close() // a:graphicData
	w.close() // a:graphic
	w.close() // wp:inline
	w.close() // w:drawing
	return w.err
}

// treeWriter emits nested elements and keeps the first error.
type treeWriter struct {
	e     *xml.Encoder
	stack []xml.StartElement
	err   error
}

func element(name string, attrs []string) xml.StartElement {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return start
}

func (w *treeWriter) open(name string, attrs ...string) {
	if w.err != nil {
		return
	}
	start := element(name, attrs)
	w.err = w.e.EncodeToken(start)
	w.stack = append(w.stack, start)
}

func (w *treeWriter) leaf(name string, attrs ...string) {
	if w.err != nil {
		return
	}
	w.err = w.e.EncodeElement(struct{}{}, element(name, attrs))
}

func (w *treeWriter) close() {
	if w.err != nil || len(w.stack) == 0 {
		return
	}
	start := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.err = w.e.EncodeToken(start.End())
}
