package docforge

import (
	"context"

	"github.com/rs/zerolog"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithConfig sets the configuration used for spacing, image sizing and caching.
func WithConfig(config *Config) Option {
	return func(e *Exporter) {
		if config != nil {
			e.config = config
		}
	}
}

// WithCache shares a template cache between exporters.
func WithCache(cache *TemplateCache) Option {
	return func(e *Exporter) {
		e.cache = cache
	}
}

// WithLogger sets the exporter's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Exporter) {
		e.log = componentLogger(l, "exporter")
	}
}

// NewExporter creates an exporter. Without options it uses the global configuration,
// a private template cache and the package logger.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{
		config: GetGlobalConfig(),
		log:    componentLogger(Logger(), "exporter"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewTemplateCache(CacheConfig{MaxSize: e.config.CacheMaxSize, TTL: e.config.CacheTTL})
	}
	return e
}

// Export builds a document from s with a default exporter.
func Export(ctx context.Context, s *Store) ([]byte, error) {
	return NewExporter().Export(ctx, s)
}
