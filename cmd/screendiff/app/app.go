// Package app provides the application context and dependency wiring
// for the screendiff CLI: configuration, logging, and screener
// construction shared by all commands.
package app

import (
	"github.com/rs/zerolog"

	"github.com/complykit/screendiff"
	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

// App represents the screendiff application with its dependencies.
type App struct {
	version string
	commit  string
	date    string

	config *Config
	logger *zerolog.Logger
}

// New creates an App with the given version information.
func New(version, commit, date string) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// NewScreener builds a screener for one command invocation. Source ids
// and policy come from command flags; the sources file comes from the
// global configuration. Extra options are applied last so flags win.
func (a *App) NewScreener(ids []screening.SourceID, policy reconcile.Policy, extra ...screendiff.Option) (*screendiff.Screener, error) {
	opts := []screendiff.Option{
		screendiff.WithLogger(a.logger),
		screendiff.WithPolicy(policy),
	}
	if a.config.SourcesFile != "" {
		opts = append(opts, screendiff.WithConfigFile(a.config.SourcesFile))
	}
	if len(ids) > 0 {
		opts = append(opts, screendiff.WithSourceIDs(ids...))
	}
	opts = append(opts, extra...)
	return screendiff.New(opts...)
}
