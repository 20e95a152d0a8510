package graph

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// graphScope is the client credentials scope for application permissions.
const graphScope = "https://graph.microsoft.com/.default"

// tokenCache hands out Graph access tokens acquired through the OAuth2
// client credentials flow. Tokens are reused until shortly before expiry.
type tokenCache struct {
	mu     sync.Mutex
	config clientcredentials.Config
	client *http.Client
	source oauth2.TokenSource
}

// newTokenCache creates a new token cache for the given OAuth2 client credentials.
func newTokenCache(tokenURL, clientID, clientSecret string, httpClient *http.Client) *tokenCache {
	tc := &tokenCache{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{graphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: httpClient,
	}
	tc.source = tc.newSource()
	return tc
}

func (tc *tokenCache) newSource() oauth2.TokenSource {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tc.client)
	return tc.config.TokenSource(ctx)
}

// Token returns a valid access token, refreshing it if necessary.
// This method is safe for concurrent use.
func (tc *tokenCache) Token() (string, error) {
	tc.mu.Lock()
	src := tc.source
	tc.mu.Unlock()

	return accessToken(src)
}

// ForceRefresh discards the current token and acquires a new one.
// This is used when a 401 response indicates the token is invalid.
func (tc *tokenCache) ForceRefresh() (string, error) {
	tc.mu.Lock()
	tc.source = tc.newSource()
	src := tc.source
	tc.mu.Unlock()

	return accessToken(src)
}

func accessToken(src oauth2.TokenSource) (string, error) {
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	return tok.AccessToken, nil
}
