package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/docforge/internal/server"
)

type ServeCmd struct {
	flags     *Flags
	addr      string
	templates string
}

func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the document builder HTTP server",
		UsageText: "docforge serve [options]",
		Description: `Starts the HTTP API. Each client creates a session, adds paragraphs, tables,
images and a cover, and downloads the generated document from
/api/sessions/{id}/export.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (overrides listen_addr)",
				Sources:     cli.EnvVars("DOCFORGE_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "templates",
				Aliases:     []string{"t"},
				Usage:       "cover template folder (overrides templates_dir)",
				Destination: &cmd.templates,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := *cmd.flags.config()
	if cmd.addr != "" {
		cfg.ListenAddr = cmd.addr
	}
	if cmd.templates != "" {
		cfg.TemplatesDir = cmd.templates
	}

	srv, err := server.New(&cfg, server.WithLogger(cmd.flags.Logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
