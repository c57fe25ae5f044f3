package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/screendiff/pkg/errors"
)

func newTokenServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

		*calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
}

func TestTokenSourceCachesToken(t *testing.T) {
	calls := 0
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	ts := NewTokenSource(TokenConfig{
		URL:          srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Source:       "v4",
	})

	ctx := context.Background()
	first, err := ts.Token(ctx)
	require.NoError(t, err)
	second, err := ts.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call should hit the cache")
}

func TestTokenSourceInvalidateForcesReacquire(t *testing.T) {
	calls := 0
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	ts := NewTokenSource(TokenConfig{
		URL:          srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Source:       "v4",
	})

	ctx := context.Background()
	_, err := ts.Token(ctx)
	require.NoError(t, err)

	ts.Invalidate()

	_, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTokenSourceRequiresCredentials(t *testing.T) {
	ts := NewTokenSource(TokenConfig{URL: "http://localhost:0", Source: "v2"})

	_, err := ts.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCredentialsRequired)
}

func TestTokenSourceRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad client", http.StatusForbidden)
	}))
	defer srv.Close()

	ts := NewTokenSource(TokenConfig{
		URL:          srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Source:       "univius",
	})

	_, err := ts.Token(context.Background())
	require.Error(t, err)

	var authErr *errors.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}
