// Package oauth provides an access-token cache owned by an adapter instance.
// Tokens are refreshed through golang.org/x/oauth2 when they are about to expire.
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// DefaultSkew refreshes tokens this long before they actually expire.
const DefaultSkew = 60 * time.Second

// RefreshFunc obtains a new access token.
type RefreshFunc func(ctx context.Context) (*oauth2.Token, error)

// Cache holds one access token with its expiry. It is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	skew      time.Duration
	now       func() time.Time
	refresh   RefreshFunc
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSkew overrides DefaultSkew.
func WithSkew(skew time.Duration) Option {
	return func(c *Cache) { c.skew = skew }
}

// NewCache creates an empty cache around refresh.
func NewCache(refresh RefreshFunc, opts ...Option) *Cache {
	c := &Cache{skew: DefaultSkew, now: time.Now, refresh: refresh}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewStaticCache returns a cache that always yields token. Used when an
// adapter is configured with a long-lived access token.
func NewStaticCache(token string) *Cache {
	return NewCache(func(context.Context) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: token}, nil
	})
}

// Token returns the cached token, refreshing when now+skew is past expiry.
// A token without an expiry never goes stale.
func (c *Cache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !c.staleLocked() {
		return c.token, nil
	}

	tok, err := c.refresh(ctx)
	if err != nil {
		return "", &RefreshError{Cause: err}
	}
	if tok == nil || tok.AccessToken == "" {
		return "", &RefreshError{Message: "token endpoint returned no access token"}
	}
	c.token = tok.AccessToken
	c.expiresAt = tok.Expiry
	return c.token, nil
}

// Invalidate drops the cached token so the next call refreshes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

// ExpiresAt returns the expiry of the cached token (zero when unknown).
func (c *Cache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}

func (c *Cache) staleLocked() bool {
	if c.expiresAt.IsZero() {
		return false
	}
	return c.now().Add(c.skew).After(c.expiresAt)
}

// RefreshTokenFunc refreshes through the provider's token endpoint using a
// refresh token. Providers that rotate refresh tokens hand back a new one,
// which is kept for the next refresh.
func RefreshTokenFunc(cfg *oauth2.Config, refreshToken string, httpClient *http.Client) RefreshFunc {
	var mu sync.Mutex
	current := refreshToken
	return func(ctx context.Context) (*oauth2.Token, error) {
		mu.Lock()
		defer mu.Unlock()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: current}).Token()
		if err != nil {
			return nil, err
		}
		if tok.RefreshToken != "" {
			current = tok.RefreshToken
		}
		return tok, nil
	}
}

// RefreshError reports a failed token refresh.
type RefreshError struct {
	Message string
	Cause   error
}

func (e *RefreshError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("oauth token refresh failed: %v", e.Cause)
	}
	return fmt.Sprintf("oauth token refresh failed: %s", e.Message)
}

func (e *RefreshError) Unwrap() error {
	return e.Cause
}
