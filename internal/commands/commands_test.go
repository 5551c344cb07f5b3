package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

func runApp(t *testing.T, flags *Flags, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.Command{Name: "docforge", Writer: &out, ErrWriter: io.Discard}
	NewBuildCmd(flags).Register(app)
	NewPreviewCmd(flags).Register(app)
	NewTemplatesCmd(flags).Register(app)
	NewServeCmd(flags).Register(app)

	err := app.Run(context.Background(), append([]string{"docforge"}, args...))
	return out.String(), err
}

func testFlags() *Flags {
	return &Flags{Config: docforge.DefaultConfig(), Logger: zerolog.Nop()}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeCover stores a generated one-paragraph document as a cover template.
func writeCover(t *testing.T, dir, name, text string) {
	t.Helper()
	store := docforge.NewStore()
	_, err := store.AddParagraph(text)
	require.NoError(t, err)
	exporter := docforge.NewExporter(docforge.WithConfig(docforge.DefaultConfig()), docforge.WithLogger(zerolog.Nop()))
	data, err := exporter.Export(context.Background(), store)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, name+".docx"), data)
	writeFile(t, filepath.Join(dir, name+".jpg"), []byte("preview"))
}

func TestBuildCmd(t *testing.T) {
	dir := t.TempDir()
	writeCover(t, filepath.Join(dir, "covers"), "classic", "Classic cover")
	manifest := filepath.Join(dir, "report.yaml")
	writeFile(t, manifest, []byte(`
cover_folder: covers
cover: classic
paragraphs:
  - text: Intro
    sub_paragraphs: [Point]
tables:
  - rows: 1
    cols: 2
    cells: [[a, b]]
`))
	output := filepath.Join(dir, "out.docx")

	out, err := runApp(t, testFlags(), "build", "--output", output, "--verify", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+output)
	assert.Contains(t, out, ", 1 tables, 0 images")
	assert.Contains(t, out, "Classic cover")
	assert.Contains(t, out, "Intro")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	text, err := docforge.ReadDocumentText(data)
	require.NoError(t, err)
	require.Len(t, text.Tables, 1)
	assert.Equal(t, []string{"a", "b"}, text.Tables[0][1])
}

func TestBuildCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	writeFile(t, empty, []byte("paragraphs: []\n"))
	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, []byte("paragraphs:\n  - text: \"  \"\n"))

	_, err := runApp(t, testFlags(), "build")
	require.Error(t, err)

	_, err = runApp(t, testFlags(), "build", "--output", filepath.Join(dir, "x.docx"), empty)
	require.Error(t, err)
	assert.True(t, docforge.IsValidationError(err))
	assert.Contains(t, err.Error(), "no content to generate")

	_, err = runApp(t, testFlags(), "build", "--output", filepath.Join(dir, "x.docx"), invalid)
	require.Error(t, err)
	var verr *docforge.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "paragraphs.0.content", verr.Issues[0].Field)

	_, err = os.Stat(filepath.Join(dir, "x.docx"))
	assert.True(t, os.IsNotExist(err), "nothing is written for a rejected manifest")
}

func TestPreviewCmd(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "notes.yaml")
	writeFile(t, manifest, []byte(`
paragraphs:
  - text: Intro
    sub_paragraphs: [Point]
    comments: [Check]
`))

	out, err := runApp(t, testFlags(), "preview", manifest)
	require.NoError(t, err)
	assert.Equal(t, "**Paragraph 1:** Intro\n\n- Point\n\n> _Comment: Check_\n\n", out)

	empty := filepath.Join(dir, "empty.yaml")
	writeFile(t, empty, []byte("{}\n"))
	out, err = runApp(t, testFlags(), "preview", empty)
	require.NoError(t, err)
	assert.Equal(t, "(empty document)\n", out)
}

func TestTemplatesCmd(t *testing.T) {
	dir := t.TempDir()
	writeCover(t, dir, "modern", "Modern")
	writeCover(t, dir, "classic", "Classic")
	writeFile(t, filepath.Join(dir, "orphan.docx"), []byte("no preview"))

	flags := testFlags()
	flags.Config.TemplatesDir = dir

	out, err := runApp(t, flags, "templates", "--format", "json")
	require.NoError(t, err)
	var rows []templateJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "classic", rows[0].Name)
	assert.Equal(t, "modern", rows[1].Name)
	assert.Equal(t, filepath.Join(dir, "classic.jpg"), rows[0].Preview)

	out, err = runApp(t, flags, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "classic")
	assert.Contains(t, out, "modern.docx + modern.jpg")
	assert.NotContains(t, out, "orphan")
}

func TestTemplatesCmd_NoFolder(t *testing.T) {
	_, err := runApp(t, testFlags(), "templates")
	require.Error(t, err)

	_, err = runApp(t, testFlags(), "templates", "--folder", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, docforge.IsTemplateLoadError(err))
}
