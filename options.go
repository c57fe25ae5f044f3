package screendiff

import (
	"github.com/rs/zerolog"

	"github.com/complykit/screendiff/internal/config"
	"github.com/complykit/screendiff/internal/sources"
	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

type options struct {
	registry   *sources.Sources
	config     *config.Config
	configPath string
	sourceIDs  []screening.SourceID
	policy     reconcile.Policy
	logger     *zerolog.Logger
	concurrent bool
}

// Option configures a Screener.
type Option func(*options) error

// WithConfigFile loads source definitions from a YAML file instead of
// the embedded defaults.
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithConfig supplies an already-loaded source configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.NewValidationError("config", nil, "must not be nil")
		}
		o.config = cfg
		return nil
	}
}

// WithSourceIDs restricts screening to the named sources, in the given
// order. The first becomes the primary source for reconciliation.
func WithSourceIDs(ids ...screening.SourceID) Option {
	return func(o *options) error {
		for _, id := range ids {
			if !id.IsValid() {
				return errors.NewValidationError("sources", id, "unknown source")
			}
		}
		o.sourceIDs = ids
		return nil
	}
}

// WithRegistry bypasses client construction entirely and screens against
// the given registry. Intended for tests and embedders with custom
// source implementations.
func WithRegistry(registry *sources.Sources) Option {
	return func(o *options) error {
		if registry == nil {
			return errors.NewValidationError("registry", nil, "must not be nil")
		}
		o.registry = registry
		return nil
	}
}

// WithPolicy sets the commonality policy for reconciliation.
func WithPolicy(policy reconcile.Policy) Option {
	return func(o *options) error {
		parsed, err := reconcile.ParsePolicy(policy.String())
		if err != nil {
			return err
		}
		o.policy = parsed
		return nil
	}
}

// WithLogger sets the logger used for orchestration events.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.NewValidationError("logger", nil, "must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithConcurrency toggles concurrent source fan-out within one query.
// Names are always processed sequentially either way.
func WithConcurrency(enabled bool) Option {
	return func(o *options) error {
		o.concurrent = enabled
		return nil
	}
}
