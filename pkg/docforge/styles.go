package docforge

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Style ids referenced by exported content.
const (
	StyleListBullet = "ListBullet"
	StyleTableGrid  = "TableGrid"
)

// Styles represents the w:styles element in styles.xml
type Styles struct {
	XMLName xml.Name        `xml:"styles"`
	Styles  []DocumentStyle `xml:"style"`
}

// DocumentStyle represents a single w:style element
type DocumentStyle struct {
	Type    string `xml:"type,attr"`
	StyleID string `xml:"styleId,attr"`
}

// parseStyles parses a styles.xml file
func parseStyles(stylesXML []byte) (*Styles, error) {
	var styles Styles
	if err := xml.Unmarshal(stylesXML, &styles); err != nil {
		return nil, fmt.Errorf("failed to parse styles.xml: %w", err)
	}
	return &styles, nil
}

// HasStyle reports whether a style with the id and type is defined.
func (s *Styles) HasStyle(styleType, id string) bool {
	for _, st := range s.Styles {
		if st.StyleID == id && st.Type == styleType {
			return true
		}
	}
	return false
}

func listBulletStyleXML(numID int) string {
	return `<w:style w:type="paragraph" w:styleId="` + StyleListBullet + `">` +
		`<w:name w:val="List Bullet"/><w:uiPriority w:val="99"/><w:unhideWhenUsed/>` +
		`<w:pPr><w:numPr><w:numId w:val="` + strconv.Itoa(numID) + `"/></w:numPr>` +
		`<w:spacing w:after="80"/><w:contextualSpacing/></w:pPr></w:style>`
}

const tableGridStyleXML = `<w:style w:type="table" w:styleId="` + StyleTableGrid + `">` +
	`<w:name w:val="Table Grid"/><w:uiPriority w:val="39"/>` +
	`<w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr>` +
	`<w:tblPr><w:tblBorders>` +
	`<w:top w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:left w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:right w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`</w:tblBorders><w:tblCellMar><w:left w:w="108" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar>` +
	`</w:tblPr></w:style>`

const emptyNumberingXML = xmlDecl + `<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:numbering>`

func bulletAbstractNumXML(id int) string {
	return `<w:abstractNum w:abstractNumId="` + strconv.Itoa(id) + `">` +
		`<w:multiLevelType w:val="singleLevel"/>` +
		`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="` + "•" + `"/>` +
		`<w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl>` +
		`</w:abstractNum>`
}

func bulletNumXML(numID, abstractID int) string {
	return `<w:num w:numId="` + strconv.Itoa(numID) + `"><w:abstractNumId w:val="` + strconv.Itoa(abstractID) + `"/></w:num>`
}

// ensureRequiredStyles adds the ListBullet and TableGrid styles when styles.xml lacks
// them. A new ListBullet gets its own bullet numbering definition.
func ensureRequiredStyles(pkg *docPackage, rels *Relationships, ct *ContentTypes) error {
	stylesXML, ok := pkg.get(partStyles)
	if !ok {
		stylesXML = []byte(xmlDecl + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:styles>`)
		if _, has := rels.ByType(relTypeStyles); !has {
			rels.Add(relTypeStyles, "styles.xml")
		}
		ct.EnsureOverride(partStyles, ctStyles)
	}

	styles, err := parseStyles(stylesXML)
	if err != nil {
		return err
	}

	var additions []byte
	if !styles.HasStyle("paragraph", StyleListBullet) {
		numID, err := ensureBulletNumbering(pkg, rels, ct)
		if err != nil {
			return err
		}
		additions = append(additions, listBulletStyleXML(numID)...)
	}
	if !styles.HasStyle("table", StyleTableGrid) {
		additions = append(additions, tableGridStyleXML...)
	}

	if len(additions) == 0 {
		if !ok {
			pkg.set(partStyles, stylesXML)
		}
		return nil
	}

	updated, err := insertBeforeRootEnd(stylesXML, additions)
	if err != nil {
		return fmt.Errorf("failed to update styles.xml: %w", err)
	}
	pkg.set(partStyles, updated)
	return nil
}

// numberingIDs collects the ids already used in numbering.xml.
type numberingIDs struct {
	AbstractNums []struct {
		ID int `xml:"abstractNumId,attr"`
	} `xml:"abstractNum"`
	Nums []struct {
		ID int `xml:"numId,attr"`
	} `xml:"num"`
}

// ensureBulletNumbering adds a single-level bullet definition to numbering.xml,
// creating the part if needed, and returns the new numId.
func ensureBulletNumbering(pkg *docPackage, rels *Relationships, ct *ContentTypes) (int, error) {
	numberingXML, ok := pkg.get(partNumbering)
	if !ok {
		numberingXML = []byte(emptyNumberingXML)
		if _, has := rels.ByType(relTypeNumbering); !has {
			rels.Add(relTypeNumbering, "numbering.xml")
		}
		ct.EnsureOverride(partNumbering, ctNumbering)
	}

	var ids numberingIDs
	if err := xml.Unmarshal(numberingXML, &ids); err != nil {
		return 0, fmt.Errorf("failed to parse numbering.xml: %w", err)
	}
	abstractID, numID := 0, 1
	for _, a := range ids.AbstractNums {
		if a.ID >= abstractID {
			abstractID = a.ID + 1
		}
	}
	for _, n := range ids.Nums {
		if n.ID >= numID {
			numID = n.ID + 1
		}
	}

	// Every w:abstractNum must precede the first w:num.
	firstNum, rootEnd, err := childOffsets(numberingXML, "num")
	if err != nil {
		return 0, fmt.Errorf("failed to update numbering.xml: %w", err)
	}
	if firstNum < 0 {
		firstNum = rootEnd
	}

	abstract := bulletAbstractNumXML(abstractID)
	num := bulletNumXML(numID, abstractID)

	var out bytes.Buffer
	out.Write(numberingXML[:firstNum])
	out.WriteString(abstract)
	out.Write(numberingXML[firstNum:rootEnd])
	out.WriteString(num)
	out.Write(numberingXML[rootEnd:])

	pkg.set(partNumbering, out.Bytes())
	return numID, nil
}

// insertBeforeRootEnd places content just before the root element's end tag.
func insertBeforeRootEnd(data, content []byte) ([]byte, error) {
	_, rootEnd, err := childOffsets(data, "")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+len(content))
	out = append(out, data[:rootEnd]...)
	out = append(out, content...)
	return append(out, data[rootEnd:]...), nil
}

// childOffsets returns the offset of the first child of the root element named local
// (-1 when absent or local is empty) and the offset of the root end tag.
func childOffsets(data []byte, local string) (int, int, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	first := -1
	depth := 0
	for {
		offset := int(d.InputOffset())
		tok, err := d.RawToken()
		if err == io.EOF {
			return 0, 0, errors.New("unexpected end of part")
		}
		if err != nil {
			return 0, 0, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && first < 0 && local != "" && t.Name.Local == local {
				first = offset
			}
			if depth == 1 && bytes.HasSuffix(data[:d.InputOffset()], []byte("/>")) {
				return 0, 0, errors.New("root element is self-closing")
			}
		case xml.EndElement:
			if depth == 1 {
				return first, offset, nil
			}
			depth--
		}
	}
}
