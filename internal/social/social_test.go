package social

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/oauth"
	"github.com/jonathan/pin-pipeline/internal/types"
)

var pin = types.PinRequest{
	Title:       "Snack Smarter",
	Description: "Stock the break room.",
	Link:        "https://snackco.com/blogs/news/bulk-snacks",
	ImageURL:    "https://storage.googleapis.com/b/pins/a.png",
}

func TestAyrshare_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ayr-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Stock the break room.", body["post"])
		assert.Equal(t, []any{"pinterest"}, body["platforms"])
		assert.Equal(t, []any{pin.ImageURL}, body["mediaUrls"])
		opts := body["pinterestOptions"].(map[string]any)
		assert.Equal(t, "Snack Smarter", opts["title"])
		assert.Equal(t, pin.Link, opts["link"])

		_, _ = w.Write([]byte(`{"status":"success","id":"ayr-1","postIds":[{"platform":"pinterest","status":"success","id":"p1","postUrl":"https://pinterest/p1"}]}`))
	}))
	defer server.Close()

	out, err := NewAyrshare(fetch.NewClient(0), "ayr-key").WithURL(server.URL).Post(context.Background(), pin)
	require.NoError(t, err)
	assert.Equal(t, "p1", out.ExternalID)
	assert.Equal(t, "https://pinterest/p1", out.PublicLink)
}

func TestAyrshare_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","errors":[{"message":"Pinterest not linked"}]}`))
	}))
	defer server.Close()

	_, err := NewAyrshare(fetch.NewClient(0), "k").WithURL(server.URL).Post(context.Background(), pin)
	require.Error(t, err)
	assert.True(t, fetch.IsSchema(err))
	assert.Contains(t, err.Error(), "Pinterest not linked")
}

func TestAyrshare_RequiresURL(t *testing.T) {
	_, err := NewAyrshare(fetch.NewClient(0), "k").Post(context.Background(), types.PinRequest{Title: "t"})
	assert.Error(t, err)
}

func TestPinterest_PostByURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pins", r.URL.Path)
		assert.Equal(t, "Bearer pin-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "board-1", body["board_id"])
		assert.Equal(t, pin.Link, body["link"])
		assert.Equal(t, map[string]any{"source_type": "image_url", "url": pin.ImageURL}, body["media_source"])

		_, _ = w.Write([]byte(`{"id":"987654","link":null}`))
	}))
	defer server.Close()

	poster := NewPinterest(fetch.NewClient(0), oauth.NewStaticCache("pin-token"), "board-1", false).WithBaseURL(server.URL)
	assert.Equal(t, "pinterest", poster.Name())

	out, err := poster.Post(context.Background(), pin)
	require.NoError(t, err)
	assert.Equal(t, "987654", out.ExternalID)
	assert.Equal(t, "https://www.pinterest.com/pin/987654/", out.PublicLink)
}

func TestPinterest_PostRaw(t *testing.T) {
	img := types.Image{Data: []byte("png-bytes"), MIMEType: "image/png"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		media := body["media_source"].(map[string]any)
		assert.Equal(t, "image_base64", media["source_type"])
		assert.Equal(t, "image/png", media["content_type"])
		assert.Equal(t, base64.StdEncoding.EncodeToString(img.Data), media["data"])
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	req := pin
	req.Image = &img
	poster := NewPinterest(fetch.NewClient(0), oauth.NewStaticCache("t"), "b", true).WithBaseURL(server.URL)
	assert.Equal(t, "pinterest_raw", poster.Name())

	_, err := poster.Post(context.Background(), req)
	require.NoError(t, err)
}

func TestPinterest_UnauthorizedInvalidatesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":2,"message":"Authentication failed."}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	refreshes := 0
	tokens := oauth.NewCache(func(context.Context) (*oauth2.Token, error) {
		refreshes++
		return &oauth2.Token{AccessToken: "t"}, nil
	})
	poster := NewPinterest(fetch.NewClient(0), tokens, "b", false).WithBaseURL(server.URL)

	_, err := poster.Post(context.Background(), pin)
	require.Error(t, err)
	assert.True(t, fetch.IsStatus(err))

	_, _ = poster.Post(context.Background(), pin)
	assert.Equal(t, 2, refreshes)
}

func TestPinterest_InvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	poster := NewPinterest(fetch.NewClient(0), oauth.NewStaticCache("t"), "b", false).WithBaseURL(server.URL)
	_, err := poster.Post(context.Background(), pin)
	require.Error(t, err)
	assert.True(t, fetch.IsSchema(err))
}

func TestPinterest_NoImage(t *testing.T) {
	poster := NewPinterest(fetch.NewClient(0), oauth.NewStaticCache("t"), "b", false)
	_, err := poster.Post(context.Background(), types.PinRequest{Title: "t"})
	assert.Error(t, err)
}
