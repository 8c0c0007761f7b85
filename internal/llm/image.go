package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// DefaultGeminiBaseURL is the Generative Language REST endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ImageClient calls Gemini image models over REST. The generative-ai-go SDK
// does not expose response modalities, so image output is requested directly.
type ImageClient struct {
	http    *fetch.Client
	apiKey  string
	model   string
	baseURL string
}

// NewImageClient creates an ImageClient. http should carry the image timeout.
func NewImageClient(http *fetch.Client, apiKey, model string) *ImageClient {
	return &ImageClient{http: http, apiKey: apiKey, model: model, baseURL: DefaultGeminiBaseURL}
}

// WithBaseURL overrides the endpoint, used in tests.
func (c *ImageClient) WithBaseURL(base string) *ImageClient {
	c.baseURL = base
	return c
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []part `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Generate sends a prompt with optional reference images and returns the
// first image part of the response.
func (c *ImageClient) Generate(ctx context.Context, prompt string, refs ...types.Image) (types.Image, error) {
	parts := []part{{Text: prompt}}
	for _, ref := range refs {
		if ref.Empty() {
			continue
		}
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: ref.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
		}})
	}

	var body generateRequest
	body.Contents = append(body.Contents, struct {
		Parts []part `json:"parts"`
	}{Parts: parts})
	body.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	var resp generateResponse
	err := c.http.JSON(ctx, fetch.Request{
		Method:  "POST",
		URL:     endpoint,
		Headers: map[string]string{"x-goog-api-key": c.apiKey},
		JSON:    body,
	}, &resp)
	if err != nil {
		return types.Image{}, err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return types.Image{}, fetch.NewSchemaError(endpoint, "image data is not base64", err)
			}
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return types.Image{Data: data, MIMEType: mime}, nil
		}
	}
	return types.Image{}, fetch.NewSchemaError(endpoint, "response contains no image", nil)
}
