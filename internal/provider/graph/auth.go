package graph

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const graphScope = "https://graph.microsoft.com/.default"

// tokenSource hands out client-credentials access tokens. The wrapped oauth2
// source caches tokens until shortly before expiry; it is rebuilt after the
// API rejects a token.
type tokenSource struct {
	mu  sync.Mutex
	cfg *clientcredentials.Config
	ctx context.Context
	src oauth2.TokenSource
}

func newTokenSource(tokenURL, clientID, clientSecret string, httpClient *http.Client) *tokenSource {
	ts := &tokenSource{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{graphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		ctx: context.WithValue(context.Background(), oauth2.HTTPClient, httpClient),
	}
	ts.reset()
	return ts
}

// reset drops any cached token. The caller must hold ts.mu or own ts.
func (ts *tokenSource) reset() {
	ts.src = ts.cfg.TokenSource(ts.ctx)
}

// Token returns a valid access token, fetching a new one when the cached
// token is missing or about to expire. Safe for concurrent use.
func (ts *tokenSource) Token() (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token()
}

// ForceRefresh discards the cached token and fetches a new one.
func (ts *tokenSource) ForceRefresh() (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.reset()
	return ts.token()
}

func (ts *tokenSource) token() (string, error) {
	tok, err := ts.src.Token()
	if err != nil {
		return "", fmt.Errorf("failed to acquire Graph token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return tok.AccessToken, nil
}
