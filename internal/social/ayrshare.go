package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// DefaultAyrshareURL is the Ayrshare post endpoint.
const DefaultAyrshareURL = "https://api.ayrshare.com/api/post"

// Ayrshare posts to Pinterest through the aggregator.
type Ayrshare struct {
	client *fetch.Client
	apiKey string
	url    string
}

// NewAyrshare creates the aggregator poster.
func NewAyrshare(client *fetch.Client, apiKey string) *Ayrshare {
	return &Ayrshare{client: client, apiKey: apiKey, url: DefaultAyrshareURL}
}

// WithURL overrides the endpoint, used in tests.
func (a *Ayrshare) WithURL(u string) *Ayrshare {
	a.url = u
	return a
}

// Name implements Poster.
func (a *Ayrshare) Name() string { return "ayrshare" }

type ayrsharePostID struct {
	Platform string `json:"platform"`
	Status   string `json:"status"`
	ID       string `json:"id"`
	PostURL  string `json:"postUrl"`
}

type ayrshareResponse struct {
	Status  string           `json:"status"`
	ID      string           `json:"id"`
	PostIDs []ayrsharePostID `json:"postIds"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Post implements Poster. Only hosted images are supported.
func (a *Ayrshare) Post(ctx context.Context, req types.PinRequest) (*types.PublishedPin, error) {
	if req.ImageURL == "" {
		return nil, fmt.Errorf("ayrshare requires an image URL")
	}

	var resp ayrshareResponse
	err := a.client.JSON(ctx, fetch.Request{
		Method:  "POST",
		URL:     a.url,
		Headers: map[string]string{"Authorization": "Bearer " + a.apiKey},
		JSON: map[string]any{
			"post":      req.Description,
			"platforms": []string{"pinterest"},
			"mediaUrls": []string{req.ImageURL},
			"pinterestOptions": map[string]string{
				"title": req.Title,
				"link":  req.Link,
			},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		var msgs []string
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fetch.NewSchemaError(a.url, fmt.Sprintf("post status %q: %s", resp.Status, strings.Join(msgs, "; ")), nil)
	}

	for _, p := range resp.PostIDs {
		if p.Platform == "pinterest" && p.ID != "" {
			return &types.PublishedPin{ExternalID: p.ID, PublicLink: p.PostURL}, nil
		}
	}
	if resp.ID == "" {
		return nil, fetch.NewSchemaError(a.url, "response has no post id", nil)
	}
	return &types.PublishedPin{ExternalID: resp.ID}, nil
}
