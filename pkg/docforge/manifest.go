package docforge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed manifest.schema.json
var manifestSchema []byte

// Manifest describes a document as a list of store operations.
type Manifest struct {
	CoverFolder string              `yaml:"cover_folder" json:"cover_folder,omitempty"`
	Cover       string              `yaml:"cover" json:"cover,omitempty"`
	Paragraphs  []ManifestParagraph `yaml:"paragraphs" json:"paragraphs,omitempty"`
	Tables      []ManifestTable     `yaml:"tables" json:"tables,omitempty"`
	Images      []string            `yaml:"images" json:"images,omitempty"`

	// dir resolves relative paths in the manifest.
	dir string
}

// ManifestParagraph is a paragraph with its children.
type ManifestParagraph struct {
	Text          string   `yaml:"text" json:"text"`
	SubParagraphs []string `yaml:"sub_paragraphs" json:"sub_paragraphs,omitempty"`
	Comments      []string `yaml:"comments" json:"comments,omitempty"`
}

// ManifestTable is a table definition.
type ManifestTable struct {
	Rows  int        `yaml:"rows" json:"rows"`
	Cols  int        `yaml:"cols" json:"cols"`
	Cells [][]string `yaml:"cells" json:"cells,omitempty"`
}

// LoadManifest reads and schema-checks a YAML manifest. Relative image and cover
// folder paths resolve against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes a YAML manifest and validates it against the manifest schema.
func ParseManifest(data []byte) (*Manifest, error) {
	// The schema is checked against the generic document so unknown keys are reported.
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, NewValidationError("manifest", err.Error())
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, NewValidationError("manifest", err.Error())
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(manifestSchema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, NewValidationError("manifest", err.Error())
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, e := range result.Errors() {
			verr.Issues = append(verr.Issues, ValidationIssue{Field: e.Field(), Message: e.Description()})
		}
		return nil, verr
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, NewValidationError("manifest", err.Error())
	}
	return &m, nil
}

func (m *Manifest) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.dir == "" {
		return path
	}
	return filepath.Join(m.dir, path)
}

// Replay applies the manifest to a new store. The first rejected operation stops the
// replay; its error names the manifest entry.
func (m *Manifest) Replay(opts ...CatalogOption) (*Store, *Catalog, error) {
	s := NewStore()
	catalog, err := m.ReplayInto(s, opts...)
	if err != nil {
		return nil, nil, err
	}
	return s, catalog, nil
}

// ReplayInto applies the manifest to s, which keeps whatever was added before the
// first rejected operation.
func (m *Manifest) ReplayInto(s *Store, opts ...CatalogOption) (*Catalog, error) {
	var catalog *Catalog
	if m.CoverFolder != "" {
		var err error
		if catalog, err = ScanCatalog(m.resolve(m.CoverFolder), opts...); err != nil {
			return nil, err
		}
	}
	if m.Cover != "" {
		if catalog == nil {
			return nil, NewValidationError("cover", "cover requires cover_folder")
		}
		if err := s.SelectCover(catalog, m.Cover); err != nil {
			return nil, err
		}
	}

	for i, p := range m.Paragraphs {
		id, err := s.AddParagraph(p.Text)
		if err != nil {
			return nil, entryError("paragraphs", i, err)
		}
		for _, sub := range p.SubParagraphs {
			if _, err := s.AddSubParagraph(id, sub); err != nil {
				return nil, entryError("paragraphs", i, err)
			}
		}
		for _, c := range p.Comments {
			if _, err := s.AddComment(id, c); err != nil {
				return nil, entryError("paragraphs", i, err)
			}
		}
	}

	for i, t := range m.Tables {
		if _, err := s.AddTable(t.Rows, t.Cols, t.Cells); err != nil {
			return nil, entryError("tables", i, err)
		}
	}

	for i, path := range m.Images {
		data, err := os.ReadFile(m.resolve(path))
		if err != nil {
			return nil, entryError("images", i, NewValidationError("path", err.Error()))
		}
		if _, err := s.AddNamedImage(filepath.Base(path), data); err != nil {
			return nil, entryError("images", i, err)
		}
	}

	return catalog, nil
}

// entryError prefixes validation issue fields with the manifest entry they came from.
func entryError(section string, index int, err error) error {
	verr, ok := err.(*ValidationError)
	if !ok {
		return err
	}
	out := &ValidationError{Issues: make([]ValidationIssue, len(verr.Issues))}
	prefix := section + "." + strconv.Itoa(index)
	for i, issue := range verr.Issues {
		out.Issues[i] = ValidationIssue{Field: prefix + "." + issue.Field, Message: issue.Message}
	}
	return out
}
