package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

type BuildCmd struct {
	flags  *Flags
	output string
	verify bool
}

func NewBuildCmd(flags *Flags) *BuildCmd {
	return &BuildCmd{flags: flags}
}

func (cmd *BuildCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "build",
		Usage:     "Generate a document from a manifest",
		UsageText: "docforge build [options] <manifest.yaml>",
		Description: `Replays a YAML manifest of paragraphs, tables, images and an optional cover
template, then writes the resulting .docx file. Relative paths in the manifest
are resolved against the manifest's directory.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file path",
				Value:       docforge.Filename,
				Destination: &cmd.output,
			},
			&cli.BoolFlag{
				Name:        "verify",
				Usage:       "read the written document back and print its contents",
				Destination: &cmd.verify,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *BuildCmd) run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("manifest path is required")
	}

	manifest, err := docforge.LoadManifest(path)
	if err != nil {
		return err
	}
	store := cmd.flags.newStore()
	if _, err := manifest.ReplayInto(store, docforge.WithCatalogLogger(cmd.flags.Logger)); err != nil {
		return err
	}
	if store.IsEmpty() {
		return docforge.NewValidationError("content", "no content to generate")
	}

	exporter := docforge.NewExporter(
		docforge.WithConfig(cmd.flags.config()),
		docforge.WithLogger(cmd.flags.Logger),
	)
	data, err := exporter.Export(ctx, store)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.output, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	w := c.Root().Writer
	fmt.Fprintf(w, "wrote %s (%s)\n", cmd.output, humanize.Bytes(uint64(len(data))))

	if cmd.verify {
		return printDocumentText(w, data)
	}
	return nil
}

func printDocumentText(w io.Writer, data []byte) error {
	text, err := docforge.ReadDocumentText(data)
	if err != nil {
		return fmt.Errorf("verify document: %w", err)
	}
	fmt.Fprintf(w, "%d paragraphs, %d tables, %d images\n", len(text.Paragraphs), len(text.Tables), text.Images)
	for _, p := range text.Paragraphs {
		if p.Text == "" {
			continue
		}
		style := p.StyleID
		if style == "" {
			style = "Normal"
		}
		fmt.Fprintf(w, "  [%s] %s\n", style, p.Text)
	}
	return nil
}
