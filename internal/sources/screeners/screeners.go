// Package screeners implements the clients for the screening API
// revisions in use. Each revision returns a differently shaped JSON
// document; the clients here own those shapes and hand the rest of the
// system nothing but normalized screening.MatchRecord values.
package screeners

import (
	"fmt"

	"github.com/complykit/screendiff/internal/config"
	"github.com/complykit/screendiff/internal/sources"
	"github.com/complykit/screendiff/internal/transport"
	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/screening"
)

// New creates the client for a configured source.
func New(sc config.SourceConfig) (sources.Source, error) {
	client, err := newTransport(sc)
	if err != nil {
		return nil, err
	}

	switch sc.ID {
	case screening.SourceV2:
		return &v2Client{endpoint: sc.Endpoint, transport: client}, nil
	case screening.SourceV4:
		return &v4Client{endpoint: sc.Endpoint, transport: client}, nil
	case screening.SourceUnivius:
		return &univiusClient{endpoint: sc.Endpoint, transport: client}, nil
	default:
		return nil, errors.NewConfigError("sources",
			fmt.Sprintf("no client implementation for source %q", sc.ID), nil)
	}
}

// Build creates clients for every requested source and registers them in
// order. An empty ids slice means all configured sources, in file order.
func Build(cfg *config.Config, ids []screening.SourceID) (*sources.Sources, error) {
	if len(ids) == 0 {
		ids = cfg.IDs()
	}

	registry := sources.NewSources()
	for _, id := range ids {
		sc, ok := cfg.Source(id)
		if !ok {
			return nil, errors.NewConfigError("sources",
				fmt.Sprintf("source %q is not configured", id), nil)
		}
		src, err := New(sc)
		if err != nil {
			return nil, err
		}
		registry.Set(id, src)
	}
	return registry, nil
}

// newTransport builds the authenticated HTTP client a source's
// configuration calls for.
func newTransport(sc config.SourceConfig) (*transport.Client, error) {
	switch sc.Auth.Scheme {
	case config.AuthBearer:
		tokens := transport.NewTokenSource(transport.TokenConfig{
			URL:          sc.Auth.TokenURL,
			ClientID:     config.GetSecret(sc.Auth.ClientIDEnv),
			ClientSecret: config.GetSecret(sc.Auth.ClientSecretEnv),
			Scope:        sc.Auth.Scope,
			Source:       sc.ID.String(),
		})
		return transport.NewWithTokens(sc.ID.String(), tokens), nil
	case config.AuthHeader:
		key := config.GetSecret(sc.Auth.KeyEnv)
		if key == "" {
			return nil, errors.NewAuthenticationError(sc.ID.String(), "api_key",
				sc.Auth.KeyEnv+" not set", errors.ErrCredentialsRequired)
		}
		return transport.NewWithKey(sc.ID.String(), &transport.HeaderAuth{Header: sc.Auth.Header}, key), nil
	case config.AuthQuery:
		key := config.GetSecret(sc.Auth.KeyEnv)
		if key == "" {
			return nil, errors.NewAuthenticationError(sc.ID.String(), "api_key",
				sc.Auth.KeyEnv+" not set", errors.ErrCredentialsRequired)
		}
		return transport.NewWithKey(sc.ID.String(), &transport.QueryAuth{Param: sc.Auth.Param}, key), nil
	default:
		return transport.New(&transport.NoAuth{}), nil
	}
}
