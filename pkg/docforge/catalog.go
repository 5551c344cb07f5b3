package docforge

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// previewExtensions lists preview image extensions in lookup order. The first
// match wins.
var previewExtensions = []string{".jpg", ".jpg", ".jpeg", ".png"}

// titleExpr selects dc:title in docProps/core.xml regardless of prefix.
var titleExpr = xpath.MustCompile(`/*[local-name()='coreProperties']/*[local-name()='title']`)

// Catalog is the set of cover templates found in a folder.
type Catalog struct {
	folder    string
	templates map[string]CoverTemplate
	names     []string
}

type catalogOptions struct {
	log zerolog.Logger
}

// CatalogOption configures ScanCatalog.
type CatalogOption func(*catalogOptions)

// WithCatalogLogger sets the logger that receives skip warnings.
func WithCatalogLogger(l zerolog.Logger) CatalogOption {
	return func(o *catalogOptions) {
		o.log = l
	}
}

// ScanCatalog pairs every *.docx in folder with a preview image of the same base
// name. Templates without a preview are skipped.
func ScanCatalog(folder string, opts ...CatalogOption) (*Catalog, error) {
	o := catalogOptions{log: Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	log := componentLogger(o.log, "catalog")

	info, err := os.Stat(folder)
	if err != nil {
		return nil, NewTemplateLoadError(folder, err)
	}
	if !info.IsDir() {
		return nil, NewTemplateLoadError(folder, errors.New("not a directory"))
	}

	matches, err := doublestar.Glob(os.DirFS(folder), "*.docx")
	if err != nil {
		return nil, NewTemplateLoadError(folder, err)
	}
	sort.Strings(matches)

	c := &Catalog{folder: folder, templates: make(map[string]CoverTemplate)}
	for _, match := range matches {
		file := filepath.Base(match)
		if strings.HasPrefix(file, "~$") {
			continue
		}
		name := strings.TrimSuffix(file, filepath.Ext(file))
		templatePath := filepath.Join(folder, file)

		imagePath, ok := findPreview(folder, name)
		if !ok {
			log.Warn().Str("template", templatePath).Msg("skipping template without preview image")
			continue
		}

		c.templates[name] = CoverTemplate{Name: name, TemplatePath: templatePath, ImagePath: imagePath}
		c.names = append(c.names, name)
	}

	if len(c.names) == 0 {
		return nil, NewTemplateLoadError(folder, errors.New("no templates with preview images found"))
	}

	log.Info().Str("folder", folder).Int("templates", len(c.names)).Msg("template catalog loaded")
	return c, nil
}

func findPreview(folder, name string) (string, bool) {
	for _, ext := range previewExtensions {
		candidate := filepath.Join(folder, name+ext)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

// Folder returns the scanned folder.
func (c *Catalog) Folder() string {
	return c.folder
}

// List returns all templates keyed by name.
func (c *Catalog) List() map[string]CoverTemplate {
	out := make(map[string]CoverTemplate, len(c.templates))
	for k, v := range c.templates {
		out[k] = v
	}
	return out
}

// Names returns the template names in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Lookup implements CoverLookup.
func (c *Catalog) Lookup(name string) (CoverTemplate, bool) {
	if c == nil {
		return CoverTemplate{}, false
	}
	t, ok := c.templates[name]
	return t, ok
}

// Title returns the dc:title stored in the template's core properties, or "" when
// the template has none.
func (c *Catalog) Title(name string) (string, error) {
	t, ok := c.Lookup(name)
	if !ok {
		return "", NewNotFoundError("cover template", name)
	}
	dr, err := DocxReaderFromFile(t.TemplatePath)
	if err != nil {
		return "", NewTemplateLoadError(t.TemplatePath, err)
	}
	if !dr.HasPart(partCoreProps) {
		return "", nil
	}
	data, err := dr.GetPart(partCoreProps)
	if err != nil {
		return "", NewTemplateLoadError(t.TemplatePath, err)
	}
	return coreTitle(data)
}

func coreTitle(data []byte) (string, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse core properties: %w", err)
	}
	node := xmlquery.QuerySelector(root, titleExpr)
	if node == nil {
		return "", nil
	}
	return strings.TrimSpace(node.InnerText()), nil
}
