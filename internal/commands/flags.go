package commands

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands
	Config *docforge.Config

	// Logger is built from LogLevel and LogFile in the Before hook
	Logger zerolog.Logger
}

// config returns the loaded configuration, or the defaults when the Before hook did
// not run.
func (f *Flags) config() *docforge.Config {
	if f.Config == nil {
		return docforge.DefaultConfig()
	}
	return f.Config
}

// newStore creates a store with the configured table limit.
func (f *Flags) newStore() *docforge.Store {
	return docforge.NewStore(docforge.WithMaxTableCells(f.config().MaxTableCells))
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "docforge", "config.yaml")
}
