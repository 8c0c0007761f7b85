package trends

import (
	"context"
	"net/url"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// DefaultSerpAPIURL is the SerpApi search endpoint.
const DefaultSerpAPIURL = "https://serpapi.com/search.json"

// SearchIndexOptions configures the SerpApi Google Trends source.
type SearchIndexOptions struct {
	APIKey  string
	Query   string
	Geo     string
	BaseURL string
}

// SearchIndex reads related queries from SerpApi's google_trends engine.
// Top queries carry their 0-100 value as score; rising queries are reported
// without a score since their value is a percentage gain.
type SearchIndex struct {
	client *fetch.Client
	opts   SearchIndexOptions
}

// NewSearchIndex creates a SerpApi source.
func NewSearchIndex(client *fetch.Client, opts SearchIndexOptions) *SearchIndex {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultSerpAPIURL
	}
	return &SearchIndex{client: client, opts: opts}
}

// Name implements Source.
func (s *SearchIndex) Name() string { return "search_index" }

type serpQuery struct {
	Query          string   `json:"query"`
	ExtractedValue *float64 `json:"extracted_value"`
}

type serpResponse struct {
	Error          string `json:"error"`
	RelatedQueries *struct {
		Top    []serpQuery `json:"top"`
		Rising []serpQuery `json:"rising"`
	} `json:"related_queries"`
}

// Fetch implements Source.
func (s *SearchIndex) Fetch(ctx context.Context) ([]types.TrendItem, error) {
	q := url.Values{
		"engine":    {"google_trends"},
		"data_type": {"RELATED_QUERIES"},
		"api_key":   {s.opts.APIKey},
	}
	if s.opts.Query != "" {
		q.Set("q", s.opts.Query)
	}
	if s.opts.Geo != "" {
		q.Set("geo", s.opts.Geo)
	}

	var resp serpResponse
	if err := s.client.JSON(ctx, fetch.Request{URL: s.opts.BaseURL, Query: q}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fetch.NewSchemaError(s.opts.BaseURL, "search index error: "+resp.Error, nil)
	}
	if resp.RelatedQueries == nil {
		return nil, fetch.NewSchemaError(s.opts.BaseURL, "missing related_queries", nil)
	}

	var items []types.TrendItem
	for _, r := range resp.RelatedQueries.Top {
		if kw := strings.TrimSpace(r.Query); kw != "" {
			items = append(items, types.TrendItem{Keyword: kw, Score: r.ExtractedValue})
		}
	}
	for _, r := range resp.RelatedQueries.Rising {
		if kw := strings.TrimSpace(r.Query); kw != "" {
			items = append(items, types.TrendItem{Keyword: kw, Rising: true})
		}
	}
	return items, nil
}
