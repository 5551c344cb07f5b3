package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

const defaultWrapWidth = 80

type PreviewCmd struct {
	flags *Flags
	raw   bool
	width int
}

func NewPreviewCmd(flags *Flags) *PreviewCmd {
	return &PreviewCmd{flags: flags}
}

func (cmd *PreviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "preview",
		Usage:     "Show the preview of a manifest in the terminal",
		UsageText: "docforge preview [options] <manifest.yaml>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print markdown without terminal styling",
				Destination: &cmd.raw,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "wrap width (defaults to the terminal width)",
				Destination: &cmd.width,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *PreviewCmd) run(ctx context.Context, c *cli.Command) error {
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

	markdown := docforge.RenderMarkdown(docforge.RenderPreview(store))
	w := c.Root().Writer
	if markdown == "" {
		fmt.Fprintln(w, "(empty document)")
		return nil
	}

	fd, isTerm := terminal(w)
	if cmd.raw || !isTerm {
		_, err := io.WriteString(w, markdown)
		return err
	}

	width := cmd.width
	if width <= 0 {
		width = defaultWrapWidth
		if tw, _, err := term.GetSize(fd); err == nil && tw > 0 {
			width = tw
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// terminal reports whether w is an interactive terminal.
func terminal(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}
