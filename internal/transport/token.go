package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/errors"
)

// TokenConfig describes how to obtain a bearer token from a source's
// token endpoint using the client-credentials flow.
type TokenConfig struct {
	// URL is the token endpoint.
	URL string

	// ClientID and ClientSecret are the credentials presented to the
	// token endpoint.
	ClientID     string
	ClientSecret string

	// Scope is an optional scope parameter some revisions require.
	Scope string

	// Source names the owning source for error reporting.
	Source string
}

// tokenResponse is the shape returned by the token endpoints of all API
// revisions in use.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenSource acquires, caches, and refreshes a bearer token. A cached
// token is reused until shortly before its expiry; Invalidate drops it so
// the next call re-acquires. Safe for concurrent use.
type TokenSource struct {
	mu     sync.Mutex
	http   *http.Client
	config TokenConfig
	token  string
	expiry time.Time
}

// NewTokenSource creates a token source for the given configuration.
func NewTokenSource(config TokenConfig) *TokenSource {
	return &TokenSource{
		http:   &http.Client{Timeout: constants.TokenRequestTimeout},
		config: config,
	}
}

// Token returns a valid bearer token, fetching a fresh one if the cache
// is empty or stale.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiry) {
		return ts.token, nil
	}

	return ts.fetchLocked(ctx)
}

// Invalidate drops the cached token so the next Token call re-acquires.
// Called when a source rejects a token that had not yet expired.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiry = time.Time{}
}

// fetchLocked acquires a new token. Caller holds ts.mu.
func (ts *TokenSource) fetchLocked(ctx context.Context) (string, error) {
	if ts.config.ClientID == "" || ts.config.ClientSecret == "" {
		return "", errors.NewAuthenticationError(ts.config.Source, "client_credentials",
			"client id and secret must be configured", errors.ErrCredentialsRequired)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", ts.config.ClientID)
	form.Set("client_secret", ts.config.ClientSecret)
	if ts.config.Scope != "" {
		form.Set("scope", ts.config.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.config.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.NewAuthenticationError(ts.config.Source, "client_credentials", "building token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.http.Do(req)
	if err != nil {
		return "", errors.NewAuthenticationError(ts.config.Source, "client_credentials", "token request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WrapIO("read", "token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewAuthenticationError(ts.config.Source, "client_credentials",
			"token endpoint returned "+resp.Status, errors.NewAPIError(ts.config.Source, resp.StatusCode, string(body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", errors.WrapParse("json", "token response", err)
	}
	if tr.AccessToken == "" {
		return "", errors.NewAuthenticationError(ts.config.Source, "client_credentials",
			"token endpoint returned no access_token", nil)
	}

	ts.token = tr.AccessToken
	ts.expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second).Add(-constants.TokenExpirySkew)
	if tr.ExpiresIn <= 0 {
		// Endpoints that omit expiry get a conservative default.
		ts.expiry = time.Now().Add(5 * time.Minute)
	}

	return ts.token, nil
}
