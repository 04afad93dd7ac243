package google

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth token sources per account.
type TokenProvider interface {
	TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error)
	HasToken(account string) bool
}

// FileTokenProvider reads refreshing tokens from the on-disk token cache.
type FileTokenProvider struct{}

// NewFileTokenProvider creates a new file-based token provider
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{}
}

func (p *FileTokenProvider) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	return GetTokenSourceForAccount(ctx, account)
}

func (p *FileTokenProvider) HasToken(account string) bool {
	return HasTokenForAccount(account)
}

// HTTPClientForAccount builds an authenticated HTTP client from any provider.
func HTTPClientForAccount(ctx context.Context, provider TokenProvider, account string) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	ts, err := provider.TokenSource(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}
	return newHTTPClient(ctx, ts), nil
}
