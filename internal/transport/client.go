// Package transport provides the HTTP plumbing shared by all screening
// source clients: an authenticated client, the bearer-token lifecycle,
// and response decoding. Source clients own their request shapes; this
// package owns how they reach the wire.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/errors"
)

// Client provides HTTP client functionality with authentication. When a
// TokenSource is configured, a rejected token is invalidated and
// re-acquired exactly once per request before giving up.
type Client struct {
	http   *http.Client
	auth   Authenticator
	tokens *TokenSource
	key    string
	source string
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator) *Client {
	return &Client{
		http: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth: auth,
	}
}

// NewWithKey creates a transport client that applies a static credential
// on every request through the given authenticator.
func NewWithKey(source string, auth Authenticator, key string) *Client {
	return &Client{
		http:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:   auth,
		key:    key,
		source: source,
	}
}

// NewWithTokens creates a transport client whose requests carry a bearer
// token managed by the given token source.
func NewWithTokens(source string, tokens *TokenSource) *Client {
	return &Client{
		http:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:   &BearerAuth{},
		tokens: tokens,
		source: source,
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

// PostJSON performs a POST request with a JSON body.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapParse("json", "request body", err)
	}
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// do builds and performs the request, re-acquiring the bearer token once
// if the source rejects it.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	resp, err := c.attempt(ctx, build)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		_ = resp.Body.Close()
		c.tokens.Invalidate()

		resp, err = c.attempt(ctx, build)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			_ = resp.Body.Close()
			return nil, errors.NewAuthenticationError(c.source, "bearer",
				"source rejected a freshly acquired token", errors.ErrTokenRejected)
		}
	}

	return resp, nil
}

// attempt performs one request with authentication applied.
func (c *Client) attempt(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	req, err := build()
	if err != nil {
		return nil, errors.WrapIO("create", "request", err)
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		c.auth.Apply(req, token)
	} else if c.key != "" {
		c.auth.Apply(req, c.key)
	}

	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}
