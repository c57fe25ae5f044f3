// Package config loads the screening source definitions: which API
// revisions exist, where their endpoints live, and how to authenticate
// against them. Credentials themselves never appear in the file; the
// config names environment variables and the values are resolved at run
// time.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/screening"
)

// AuthScheme selects how a source authenticates requests.
type AuthScheme string

const (
	// AuthBearer uses a bearer token acquired from a token endpoint
	// with client credentials.
	AuthBearer AuthScheme = "bearer"
	// AuthHeader sends a static key in a request header.
	AuthHeader AuthScheme = "header"
	// AuthQuery sends a static key as a query parameter.
	AuthQuery AuthScheme = "query"
	// AuthNone sends no credentials.
	AuthNone AuthScheme = "none"
)

// AuthConfig describes a source's authentication.
type AuthConfig struct {
	Scheme AuthScheme `yaml:"scheme"`

	// Bearer flow.
	TokenURL        string `yaml:"token_url,omitempty"`
	ClientIDEnv     string `yaml:"client_id_env,omitempty"`
	ClientSecretEnv string `yaml:"client_secret_env,omitempty"`
	Scope           string `yaml:"scope,omitempty"`

	// Static key flows.
	Header string `yaml:"header,omitempty"`
	Param  string `yaml:"param,omitempty"`
	KeyEnv string `yaml:"key_env,omitempty"`
}

// SourceConfig describes one screening source.
type SourceConfig struct {
	ID       screening.SourceID `yaml:"id"`
	Endpoint string             `yaml:"endpoint"`
	Auth     AuthConfig         `yaml:"auth"`
}

// Config is the full source configuration.
type Config struct {
	Sources []SourceConfig `yaml:"sources"`
}

// Load reads source configuration from the given path, falling back to
// the embedded defaults when path is empty.
func Load(path string) (*Config, error) {
	var data []byte
	if path == "" {
		data = defaultSourcesYAML
	} else {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.NewConfigError("sources", "no sources defined", nil)
	}

	seen := make(map[screening.SourceID]bool, len(c.Sources))
	for _, sc := range c.Sources {
		if sc.ID == "" {
			return errors.NewConfigError("sources", "source with empty id", nil)
		}
		if seen[sc.ID] {
			return errors.NewConfigError("sources", "duplicate source "+sc.ID.String(), nil)
		}
		seen[sc.ID] = true

		if sc.Endpoint == "" {
			return errors.NewConfigError("sources", "source "+sc.ID.String()+" has no endpoint", nil)
		}
		switch sc.Auth.Scheme {
		case AuthBearer:
			if sc.Auth.TokenURL == "" {
				return errors.NewConfigError("sources", "source "+sc.ID.String()+" uses bearer auth without token_url", nil)
			}
		case AuthHeader, AuthQuery:
			if sc.Auth.KeyEnv == "" {
				return errors.NewConfigError("sources", "source "+sc.ID.String()+" uses static auth without key_env", nil)
			}
		case AuthNone, "":
		default:
			return errors.NewConfigError("sources", "source "+sc.ID.String()+" has unknown auth scheme "+string(sc.Auth.Scheme), nil)
		}
	}
	return nil
}

// Source returns the configuration for a source id.
func (c *Config) Source(id screening.SourceID) (SourceConfig, bool) {
	for _, sc := range c.Sources {
		if sc.ID == id {
			return sc, true
		}
	}
	return SourceConfig{}, false
}

// IDs returns the configured source ids in file order.
func (c *Config) IDs() []screening.SourceID {
	ids := make([]screening.SourceID, 0, len(c.Sources))
	for _, sc := range c.Sources {
		ids = append(ids, sc.ID)
	}
	return ids
}

// GetSecret resolves a named environment variable, preferring Viper so
// values from .env files and config bind-throughs are honored.
func GetSecret(key string) string {
	if key == "" {
		return ""
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return os.Getenv(key)
}

// Configured reports whether a source's credentials are present in the
// environment, without validating them.
func (sc SourceConfig) Configured() bool {
	switch sc.Auth.Scheme {
	case AuthBearer:
		return GetSecret(sc.Auth.ClientIDEnv) != "" && GetSecret(sc.Auth.ClientSecretEnv) != ""
	case AuthHeader, AuthQuery:
		return GetSecret(sc.Auth.KeyEnv) != ""
	default:
		return true
	}
}
