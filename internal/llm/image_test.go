package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

func TestImageClient_Generate(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash-image:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "a bowl of gummy bears", req.Contents[0].Parts[0].Text)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MIMEType)
		assert.Contains(t, req.GenerationConfig.ResponseModalities, "IMAGE")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"text": "here you go"},
					map[string]any{"inlineData": map[string]any{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(png),
					}},
				}},
			}},
		})
	}))
	defer server.Close()

	client := NewImageClient(fetch.NewClient(0), "key", "gemini-2.5-flash-image").WithBaseURL(server.URL)
	img, err := client.Generate(context.Background(), "a bowl of gummy bears",
		types.Image{Data: []byte{1, 2}, MIMEType: "image/jpeg"},
		types.Image{})
	require.NoError(t, err)
	assert.Equal(t, png, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestImageClient_NoImageIsSchemaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"I cannot draw that"}]}}]}`))
	}))
	defer server.Close()

	client := NewImageClient(fetch.NewClient(0), "key", "m").WithBaseURL(server.URL)
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, fetch.IsSchema(err))
}

func TestImageClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewImageClient(fetch.NewClient(0), "key", "m").WithBaseURL(server.URL)
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, fetch.IsStatus(err))
}
