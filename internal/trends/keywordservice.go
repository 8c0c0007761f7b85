package trends

import (
	"context"
	"net/url"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// KeywordService reads trends from a remote keyword service that answers
// GET <url>?seed=<seed> with {"items":[{"keyword","score","rising"}]}.
type KeywordService struct {
	client *fetch.Client
	url    string
	seed   string
}

// NewKeywordService creates a keyword-service source.
func NewKeywordService(client *fetch.Client, serviceURL, seed string) *KeywordService {
	return &KeywordService{client: client, url: serviceURL, seed: seed}
}

// Name implements Source.
func (k *KeywordService) Name() string { return "keyword_service" }

type keywordServiceResponse struct {
	Items *[]struct {
		Keyword string   `json:"keyword"`
		Score   *float64 `json:"score"`
		Rising  bool     `json:"rising"`
	} `json:"items"`
}

// Fetch implements Source.
func (k *KeywordService) Fetch(ctx context.Context) ([]types.TrendItem, error) {
	req := fetch.Request{URL: k.url}
	if k.seed != "" {
		req.Query = url.Values{"seed": {k.seed}}
	}

	var resp keywordServiceResponse
	if err := k.client.JSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return nil, fetch.NewSchemaError(k.url, "missing items array", nil)
	}

	items := make([]types.TrendItem, 0, len(*resp.Items))
	for _, it := range *resp.Items {
		keyword := strings.TrimSpace(it.Keyword)
		if keyword == "" {
			continue
		}
		items = append(items, types.TrendItem{Keyword: keyword, Score: it.Score, Rising: it.Rising})
	}
	return items, nil
}
