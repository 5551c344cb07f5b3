package docforge

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Well-known part names.
const (
	partContentTypes  = "[Content_Types].xml"
	partRootRels      = "_rels/.rels"
	partDocument      = "word/document.xml"
	partDocumentRels  = "word/_rels/document.xml.rels"
	partStyles        = "word/styles.xml"
	partNumbering     = "word/numbering.xml"
	partCoreProps     = "docProps/core.xml"
	mediaDir          = "word/media/"
	relsNamespace     = "http://schemas.openxmlformats.org/package/2006/relationships"
	typesNamespace    = "http://schemas.openxmlformats.org/package/2006/content-types"
	relTypeOfficeDoc  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeCoreProps  = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeStyles     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeNumbering  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relTypeImage      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	ctDocumentMain    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles          = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ctNumbering       = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ctCoreProps       = "application/vnd.openxmlformats-package.core-properties+xml"
	ctRelationships   = "application/vnd.openxmlformats-package.relationships+xml"
	ctXML             = "application/xml"
)

// DocxReader handles reading and parsing DOCX files
type DocxReader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// NewDocxReader creates a new DOCX reader
func NewDocxReader(r io.ReaderAt, size int64) (*DocxReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	dr := &DocxReader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
	}

	if _, ok := dr.Parts[partDocument]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing %s", partDocument)
	}

	return dr, nil
}

// DocxReaderFromBytes creates a DocxReader over an in-memory package.
func DocxReaderFromBytes(data []byte) (*DocxReader, error) {
	return NewDocxReader(bytes.NewReader(data), int64(len(data)))
}

// DocxReaderFromFile creates a DocxReader from a file path
func DocxReaderFromFile(path string) (*DocxReader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return DocxReaderFromBytes(content)
}

// HasPart reports whether the package contains partName.
func (dr *DocxReader) HasPart(partName string) bool {
	_, ok := dr.Parts[partName]
	return ok
}

// GetPart retrieves the content of a specific part
func (dr *DocxReader) GetPart(partName string) ([]byte, error) {
	file, ok := dr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}

	return content, nil
}

// GetDocumentXML retrieves the content of word/document.xml
func (dr *DocxReader) GetDocumentXML() ([]byte, error) {
	return dr.GetPart(partDocument)
}

// ListParts returns the sorted names of all parts in the DOCX
func (dr *DocxReader) ListParts() []string {
	parts := make([]string, 0, len(dr.Parts))
	for name := range dr.Parts {
		parts = append(parts, name)
	}
	sort.Strings(parts)
	return parts
}

// GetRelationships retrieves relationships for a given part
func (dr *DocxReader) GetRelationships(partName string) (*Relationships, error) {
	relPath := relationshipsPartFor(partName)
	if !dr.HasPart(relPath) {
		// Missing relationships file is not an error, just return empty
		return newRelationships(), nil
	}
	content, err := dr.GetPart(relPath)
	if err != nil {
		return nil, err
	}
	return parseRelationships(content)
}

// relationshipsPartFor maps "word/document.xml" to "word/_rels/document.xml.rels".
func relationshipsPartFor(partName string) string {
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}

// Relationship represents a relationship in the DOCX package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

func newRelationships() *Relationships {
	return &Relationships{Namespace: relsNamespace}
}

func parseRelationships(data []byte) (*Relationships, error) {
	var rels Relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}
	// The decoded XMLName carries the namespace; clear it so marshal writes xmlns once.
	rels.XMLName = xml.Name{}
	rels.Namespace = relsNamespace
	return &rels, nil
}

// ByType returns the first relationship of the given type.
func (r *Relationships) ByType(relType string) (Relationship, bool) {
	for _, rel := range r.Relationship {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Add appends a relationship with the next free rId and returns the id.
func (r *Relationships) Add(relType, target string) string {
	id := r.nextID()
	r.Relationship = append(r.Relationship, Relationship{ID: id, Type: relType, Target: target})
	return id
}

// nextID generates the next available relationship ID
func (r *Relationships) nextID() string {
	maxID := 0
	for _, rel := range r.Relationship {
		if strings.HasPrefix(rel.ID, "rId") {
			if id, err := strconv.Atoi(rel.ID[3:]); err == nil && id > maxID {
				maxID = id
			}
		}
	}
	return fmt.Sprintf("rId%d", maxID+1)
}

func (r *Relationships) marshal() ([]byte, error) {
	return marshalPart(r)
}

// ContentTypes represents [Content_Types].xml
type ContentTypes struct {
	XMLName   xml.Name   `xml:"Types"`
	Namespace string     `xml:"xmlns,attr"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// Default maps a file extension to a content type
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override sets the content type of a single part
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

func parseContentTypes(data []byte) (*ContentTypes, error) {
	var ct ContentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("failed to parse content types: %w", err)
	}
	ct.XMLName = xml.Name{}
	ct.Namespace = typesNamespace
	return &ct, nil
}

// EnsureDefault registers an extension unless it is already known.
func (ct *ContentTypes) EnsureDefault(ext, contentType string) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return
		}
	}
	ct.Defaults = append(ct.Defaults, Default{Extension: ext, ContentType: contentType})
}

// EnsureOverride registers a part's content type unless it is already set.
func (ct *ContentTypes) EnsureOverride(partName, contentType string) {
	partName = "/" + strings.TrimPrefix(partName, "/")
	for _, o := range ct.Overrides {
		if o.PartName == partName {
			return
		}
	}
	ct.Overrides = append(ct.Overrides, Override{PartName: partName, ContentType: contentType})
}

func (ct *ContentTypes) marshal() ([]byte, error) {
	return marshalPart(ct)
}

func marshalPart(v interface{}) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xmlDecl)+len(body))
	out = append(out, xmlDecl...)
	return append(out, body...), nil
}
