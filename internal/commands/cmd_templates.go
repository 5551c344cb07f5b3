package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type TemplatesCmd struct {
	flags  *Flags
	folder string
	format string
}

func NewTemplatesCmd(flags *Flags) *TemplatesCmd {
	return &TemplatesCmd{flags: flags}
}

func (cmd *TemplatesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "templates",
		Usage:     "List the cover templates in a folder",
		UsageText: "docforge templates [options]",
		Description: `Scans a folder for .docx cover templates that have a preview image
(.jpg, .jpeg or .png) with the same base name.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "folder",
				Aliases:     []string{"f"},
				Usage:       "template folder (defaults to templates_dir)",
				Destination: &cmd.folder,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

type templateJSON struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Template string `json:"template"`
	Preview  string `json:"preview"`
}

func (cmd *TemplatesCmd) run(ctx context.Context, c *cli.Command) error {
	folder := cmd.folder
	if folder == "" {
		folder = cmd.flags.config().TemplatesDir
	}
	if folder == "" {
		return errors.New("no template folder: pass --folder or set templates_dir")
	}

	catalog, err := docforge.ScanCatalog(folder, docforge.WithCatalogLogger(cmd.flags.Logger))
	if err != nil {
		return err
	}

	templates := catalog.List()
	rows := make([]templateJSON, 0, len(templates))
	for _, name := range catalog.Names() {
		title, err := catalog.Title(name)
		if err != nil {
			cmd.flags.Logger.Warn().Err(err).Str("template", name).Msg("failed to read template title")
		}
		t := templates[name]
		rows = append(rows, templateJSON{Name: name, Title: title, Template: t.TemplatePath, Preview: t.ImagePath})
	}

	w := c.Root().Writer
	if cmd.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for _, row := range rows {
		line := nameStyle.Render(row.Name)
		if row.Title != "" {
			line += "  " + titleStyle.Render(row.Title)
		}
		fmt.Fprintln(w, line)
		fmt.Fprintln(w, "  "+mutedStyle.Render(filepath.Base(row.Template)+" + "+filepath.Base(row.Preview)))
	}
	return nil
}
