package docforge

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for docforge
type Config struct {
	// TemplatesDir is the cover template folder scanned at startup. Empty disables covers.
	TemplatesDir string `yaml:"templates_dir"`
	// ListenAddr is the HTTP listen address of the server.
	ListenAddr string `yaml:"listen_addr"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
	// LogFile, when set, receives logs through a rotating file writer.
	LogFile string `yaml:"log_file"`
	// CacheMaxSize is the maximum number of cover templates to cache. 0 disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// SessionTTL discards server sessions idle for longer. 0 keeps them forever.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// ParagraphSpacingAfter is the space after body paragraphs, in twips.
	ParagraphSpacingAfter int `yaml:"paragraph_spacing_after"`
	// MaxImageWidthEMU caps the displayed width of embedded images.
	MaxImageWidthEMU int64 `yaml:"max_image_width_emu"`
	// MaxUploadBytes limits request bodies accepted by the server.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// MaxTableCells limits rows x cols of a single table.
	MaxTableCells int `yaml:"max_table_cells"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:            "127.0.0.1:8080",
		LogLevel:              "info",
		CacheMaxSize:          16,
		SessionTTL:            2 * time.Hour,
		ParagraphSpacingAfter: 200,
		// 6 inches at 914400 EMU per inch
		MaxImageWidthEMU: 6 * 914400,
		MaxUploadBytes:   32 << 20,
		MaxTableCells:    DefaultMaxTableCells,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	config.applyEnvironment()
	return config
}

func (c *Config) applyEnvironment() {
	if val := os.Getenv("DOCFORGE_TEMPLATES_DIR"); val != "" {
		c.TemplatesDir = val
	}
	if val := os.Getenv("DOCFORGE_LISTEN_ADDR"); val != "" {
		c.ListenAddr = val
	}
	if val := os.Getenv("DOCFORGE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("DOCFORGE_LOG_FILE"); val != "" {
		c.LogFile = val
	}
	if val := os.Getenv("DOCFORGE_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			c.CacheMaxSize = size
		}
	}
	if val := os.Getenv("DOCFORGE_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.CacheTTL = d
		}
	}
	if val := os.Getenv("DOCFORGE_SESSION_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.SessionTTL = d
		}
	}
	if val := os.Getenv("DOCFORGE_PARAGRAPH_SPACING_AFTER"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.ParagraphSpacingAfter = n
		}
	}
	if val := os.Getenv("DOCFORGE_MAX_IMAGE_WIDTH_EMU"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.MaxImageWidthEMU = n
		}
	}
	if val := os.Getenv("DOCFORGE_MAX_UPLOAD_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.MaxUploadBytes = n
		}
	}
	if val := os.Getenv("DOCFORGE_MAX_TABLE_CELLS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.MaxTableCells = n
		}
	}
}

// LoadConfig reads a YAML config file over the defaults, then applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	config.applyEnvironment()
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.CacheMaxSize < 0 {
		errs = errs.Append("cache_max_size", errors.New("cannot be negative"))
	}
	if c.CacheTTL < 0 {
		errs = errs.Append("cache_ttl", errors.New("cannot be negative"))
	}
	if c.SessionTTL < 0 {
		errs = errs.Append("session_ttl", errors.New("cannot be negative"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = errs.Append("log_level", fmt.Errorf("invalid log level %q", c.LogLevel))
	}

	if c.ParagraphSpacingAfter < 0 {
		errs = errs.Append("paragraph_spacing_after", errors.New("cannot be negative"))
	}
	if c.MaxImageWidthEMU <= 0 {
		errs = errs.Append("max_image_width_emu", errors.New("must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = errs.Append("max_upload_bytes", errors.New("must be positive"))
	}
	if c.MaxTableCells <= 0 {
		errs = errs.Append("max_table_cells", errors.New("must be positive"))
	}
	if c.TemplatesDir != "" {
		if info, err := os.Stat(c.TemplatesDir); err == nil && !info.IsDir() {
			errs = errs.Append("templates_dir", fmt.Errorf("%s is not a directory", c.TemplatesDir))
		}
	}

	return errs.ToError()
}

// GetGlobalConfig returns a copy of the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return ConfigFromEnvironment()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()
}
