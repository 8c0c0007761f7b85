package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestCache_RefreshesOnlyWhenStale(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	calls := 0
	cache := NewCache(func(context.Context) (*oauth2.Token, error) {
		calls++
		return &oauth2.Token{
			AccessToken: fmt.Sprintf("tok-%d", calls),
			Expiry:      clock.t.Add(10 * time.Minute),
		}, nil
	}, WithClock(clock.now), WithSkew(time.Minute))

	ctx := context.Background()
	tok, err := cache.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	clock.t = clock.t.Add(8 * time.Minute)
	tok, err = cache.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok, "still outside the skew window")

	clock.t = clock.t.Add(90 * time.Second)
	tok, err = cache.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok, "now+skew passed expiry")
	assert.Equal(t, 2, calls)
}

func TestCache_NoExpiryNeverStale(t *testing.T) {
	calls := 0
	cache := NewCache(func(context.Context) (*oauth2.Token, error) {
		calls++
		return &oauth2.Token{AccessToken: "static"}, nil
	})
	for i := 0; i < 3; i++ {
		_, err := cache.Token(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestCache_Invalidate(t *testing.T) {
	calls := 0
	cache := NewCache(func(context.Context) (*oauth2.Token, error) {
		calls++
		return &oauth2.Token{AccessToken: "x"}, nil
	})
	_, _ = cache.Token(context.Background())
	cache.Invalidate()
	_, _ = cache.Token(context.Background())
	assert.Equal(t, 2, calls)
}

func TestCache_RefreshError(t *testing.T) {
	cache := NewCache(func(context.Context) (*oauth2.Token, error) {
		return nil, assert.AnError
	})
	_, err := cache.Token(context.Background())
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCache_EmptyAccessToken(t *testing.T) {
	cache := NewCache(func(context.Context) (*oauth2.Token, error) {
		return &oauth2.Token{}, nil
	})
	_, err := cache.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}

func TestRefreshTokenFunc_RotatesRefreshToken(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		seen = append(seen, r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"at-%d","token_type":"bearer","expires_in":3600,"refresh_token":"rt-%d"}`, len(seen), len(seen))
	}))
	defer server.Close()

	cfg := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: server.URL, AuthStyle: oauth2.AuthStyleInHeader},
	}
	refresh := RefreshTokenFunc(cfg, "rt-0", server.Client())

	tok, err := refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)

	_, err = refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rt-0", "rt-1"}, seen)
}

func TestNewStaticCache(t *testing.T) {
	tok, err := NewStaticCache("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestProviderConfigs(t *testing.T) {
	p := PinterestConfig("id", "secret", "http://localhost:8085/callback")
	assert.Equal(t, PinterestEndpoint.TokenURL, p.Endpoint.TokenURL)
	assert.Contains(t, p.Scopes, "pins:write")
	assert.Contains(t, p.AuthCodeURL("state"), "www.pinterest.com/oauth")

	c := CanvaConfig("id", "secret", "http://127.0.0.1:8085/callback")
	assert.Equal(t, "https://api.canva.com/rest/v1/oauth/token", c.Endpoint.TokenURL)
	assert.Contains(t, c.Scopes, "brandtemplate:content:read")
}
