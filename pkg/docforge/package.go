package docforge

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
)

// docPackage is an editable in-memory copy of a DOCX package.
type docPackage struct {
	parts map[string][]byte
}

func newDocPackage() *docPackage {
	return &docPackage{parts: make(map[string][]byte)}
}

// loadPackage copies every part of a DOCX into memory.
func loadPackage(dr *DocxReader) (*docPackage, error) {
	pkg := newDocPackage()
	for _, name := range dr.ListParts() {
		if dr.Parts[name].FileInfo().IsDir() {
			continue
		}
		data, err := dr.GetPart(name)
		if err != nil {
			return nil, err
		}
		pkg.parts[name] = data
	}
	return pkg, nil
}

// clone returns a copy whose part map can be edited independently. Part contents
// are shared; callers replace parts rather than mutating them.
func (p *docPackage) clone() *docPackage {
	out := &docPackage{parts: make(map[string][]byte, len(p.parts))}
	for k, v := range p.parts {
		out.parts[k] = v
	}
	return out
}

func (p *docPackage) get(name string) ([]byte, bool) {
	data, ok := p.parts[name]
	return data, ok
}

func (p *docPackage) set(name string, data []byte) {
	p.parts[name] = data
}

// names returns part names in write order: content types, package relationships,
// then everything else sorted.
func (p *docPackage) names() []string {
	names := make([]string, 0, len(p.parts))
	for name := range p.parts {
		if name != partContentTypes && name != partRootRels {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	head := []string{}
	for _, name := range []string{partContentTypes, partRootRels} {
		if _, ok := p.parts[name]; ok {
			head = append(head, name)
		}
	}
	return append(head, names...)
}

// writeTo writes the package as a zip. Entries carry no timestamps, so equal parts
// produce identical archives.
func (p *docPackage) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, name := range p.names() {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return NewSerializationError(name, err)
		}
		if _, err := fw.Write(p.parts[name]); err != nil {
			return NewSerializationError(name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return NewSerializationError("", err)
	}
	return nil
}

func (p *docPackage) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.writeTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blankPackage returns the parts of an empty document with a letter-size section.
func blankPackage() *docPackage {
	pkg := newDocPackage()
	pkg.set(partContentTypes, []byte(xmlDecl+`<Types xmlns="`+typesNamespace+`">`+
		`<Default Extension="rels" ContentType="`+ctRelationships+`"/>`+
		`<Default Extension="xml" ContentType="`+ctXML+`"/>`+
		`<Override PartName="/word/document.xml" ContentType="`+ctDocumentMain+`"/>`+
		`<Override PartName="/word/styles.xml" ContentType="`+ctStyles+`"/>`+
		`<Override PartName="/docProps/core.xml" ContentType="`+ctCoreProps+`"/>`+
		`</Types>`))
	pkg.set(partRootRels, []byte(xmlDecl+`<Relationships xmlns="`+relsNamespace+`">`+
		`<Relationship Id="rId1" Type="`+relTypeOfficeDoc+`" Target="word/document.xml"/>`+
		`<Relationship Id="rId2" Type="`+relTypeCoreProps+`" Target="docProps/core.xml"/>`+
		`</Relationships>`))
	pkg.set(partDocumentRels, []byte(xmlDecl+`<Relationships xmlns="`+relsNamespace+`">`+
		`<Relationship Id="rId1" Type="`+relTypeStyles+`" Target="styles.xml"/>`+
		`</Relationships>`))
	pkg.set(partDocument, []byte(xmlDecl+`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" `+
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`+
		`<w:body><w:sectPr><w:pgSz w:w="12240" w:h="15840"/>`+
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>`+
		`</w:sectPr></w:body></w:document>`))
	pkg.set(partStyles, []byte(xmlDecl+`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`+
		`<w:docDefaults><w:rPrDefault><w:rPr><w:sz w:val="22"/><w:szCs w:val="22"/></w:rPr></w:rPrDefault>`+
		`<w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`+
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`+
		`</w:styles>`))
	pkg.set(partCoreProps, []byte(xmlDecl+`<cp:coreProperties `+
		`xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" `+
		`xmlns:dc="http://purl.org/dc/elements/1.1/">`+
		`<dc:title>Generated Document</dc:title><dc:creator>docforge</dc:creator>`+
		`</cp:coreProperties>`))
	return pkg
}

const xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
