package social

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/oauth"
	"github.com/jonathan/pin-pipeline/internal/schemas"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// DefaultPinterestBaseURL is the Pinterest v5 API.
const DefaultPinterestBaseURL = "https://api.pinterest.com/v5"

// Pinterest posts directly to a board. With Raw set the image bytes are
// uploaded inline; otherwise Pinterest fetches the hosted image URL.
type Pinterest struct {
	client  *fetch.Client
	tokens  *oauth.Cache
	boardID string
	raw     bool
	baseURL string
}

// NewPinterest creates a direct poster.
func NewPinterest(client *fetch.Client, tokens *oauth.Cache, boardID string, raw bool) *Pinterest {
	return &Pinterest{client: client, tokens: tokens, boardID: boardID, raw: raw, baseURL: DefaultPinterestBaseURL}
}

// WithBaseURL overrides the endpoint, used in tests.
func (p *Pinterest) WithBaseURL(u string) *Pinterest {
	p.baseURL = u
	return p
}

// Name implements Poster.
func (p *Pinterest) Name() string {
	if p.raw {
		return "pinterest_raw"
	}
	return "pinterest"
}

func (p *Pinterest) mediaSource(req types.PinRequest) (map[string]string, error) {
	if p.raw && !req.Image.Empty() {
		return map[string]string{
			"source_type":  "image_base64",
			"content_type": req.Image.MIMEType,
			"data":         base64.StdEncoding.EncodeToString(req.Image.Data),
		}, nil
	}
	if req.ImageURL == "" {
		return nil, fmt.Errorf("pin has no image")
	}
	return map[string]string{"source_type": "image_url", "url": req.ImageURL}, nil
}

// Post implements Poster.
func (p *Pinterest) Post(ctx context.Context, req types.PinRequest) (*types.PublishedPin, error) {
	media, err := p.mediaSource(req)
	if err != nil {
		return nil, err
	}
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	target := p.baseURL + "/pins"
	resp, err := p.client.Do(ctx, fetch.Request{
		Method:  "POST",
		URL:     target,
		Headers: map[string]string{"Authorization": "Bearer " + token},
		JSON: map[string]any{
			"board_id":     p.boardID,
			"title":        req.Title,
			"description":  req.Description,
			"link":         req.Link,
			"media_source": media,
		},
	})
	if err != nil {
		var fe *fetch.Error
		if errors.As(err, &fe) && fe.Kind == fetch.KindStatus && fe.StatusCode == 401 {
			p.tokens.Invalidate()
		}
		return nil, err
	}

	if err := schemas.Validate(schemas.Pin, string(resp.Body)); err != nil {
		return nil, fetch.NewSchemaError(target, "unexpected pin response", err)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fetch.NewSchemaError(target, "unexpected pin response", err)
	}
	return &types.PublishedPin{
		ExternalID: out.ID,
		PublicLink: fmt.Sprintf("https://www.pinterest.com/pin/%s/", out.ID),
	}, nil
}
