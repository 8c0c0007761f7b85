// Package trends provides the trend source adapters. Exactly one backend is
// active per configuration and every backend normalizes to []types.TrendItem.
package trends

import (
	"context"
	"fmt"

	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// Source fetches the current trend items.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]types.TrendItem, error)
}

// NewSource builds the backend selected by cfg.TrendSource.
func NewSource(ctx context.Context, cfg *config.Config, client *fetch.Client) (Source, error) {
	switch cfg.TrendSource {
	case config.TrendSourceBigQuery:
		return NewBigQuerySource(ctx, BigQueryOptions{
			ProjectID:       cfg.BigQueryProject,
			Location:        cfg.BigQueryRegion,
			CredentialsFile: cfg.BigQueryCredentialsFile,
		})
	case config.TrendSourceKeywordService:
		return NewKeywordService(client, cfg.KeywordServiceURL, cfg.KeywordServiceSeed), nil
	case config.TrendSourceSearchIndex:
		return NewSearchIndex(client, SearchIndexOptions{
			APIKey: cfg.SerpAPIKey,
			Query:  cfg.SerpAPIQuery,
			Geo:    cfg.SerpAPIGeo,
		}), nil
	default:
		return nil, fmt.Errorf("unknown trend source: %q", cfg.TrendSource)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
