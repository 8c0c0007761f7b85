package trends

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	bigquery "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

const (
	topTermsQuery = "SELECT term, MAX(score) AS score " +
		"FROM `bigquery-public-data.google_trends.top_terms` " +
		"WHERE refresh_date = (SELECT MAX(refresh_date) FROM `bigquery-public-data.google_trends.top_terms`) " +
		"GROUP BY term ORDER BY score DESC LIMIT 25"

	risingTermsQuery = "SELECT term, MAX(score) AS score " +
		"FROM `bigquery-public-data.google_trends.top_rising_terms` " +
		"WHERE refresh_date = (SELECT MAX(refresh_date) FROM `bigquery-public-data.google_trends.top_rising_terms`) " +
		"GROUP BY term ORDER BY score DESC LIMIT 25"

	queryTimeoutMs = 15000
)

// BigQueryOptions configures the warehouse source.
type BigQueryOptions struct {
	ProjectID       string
	Location        string
	CredentialsFile string
	// ClientOptions are appended after credentials, e.g. an endpoint in tests.
	ClientOptions []option.ClientOption
}

// BigQuerySource reads the Google Trends public dataset: top terms are
// returned first, then rising terms flagged Rising.
type BigQuerySource struct {
	svc  *bigquery.Service
	opts BigQueryOptions
}

// NewBigQuerySource creates a warehouse source.
func NewBigQuerySource(ctx context.Context, opts BigQueryOptions) (*BigQuerySource, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := bigquery.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &BigQuerySource{svc: svc, opts: opts}, nil
}

// Name implements Source.
func (b *BigQuerySource) Name() string { return "bigquery" }

// Fetch implements Source.
func (b *BigQuerySource) Fetch(ctx context.Context) ([]types.TrendItem, error) {
	top, err := b.query(ctx, topTermsQuery, false)
	if err != nil {
		return nil, err
	}
	rising, err := b.query(ctx, risingTermsQuery, true)
	if err != nil {
		return nil, err
	}
	return append(top, rising...), nil
}

func (b *BigQuerySource) query(ctx context.Context, sql string, rising bool) ([]types.TrendItem, error) {
	legacy := false
	req := &bigquery.QueryRequest{
		Query:        sql,
		UseLegacySql: &legacy,
		TimeoutMs:    queryTimeoutMs,
		Location:     b.opts.Location,
	}

	resp, err := b.svc.Jobs.Query(b.opts.ProjectID, req).Context(ctx).Do()
	if err != nil {
		if ctx.Err() != nil {
			return nil, &fetch.Error{URL: "bigquery", Kind: fetch.KindTimeout, Message: "query timed out", Cause: err}
		}
		return nil, &fetch.Error{URL: "bigquery", Kind: fetch.KindTransport, Message: "query failed", Cause: err}
	}
	if !resp.JobComplete {
		return nil, &fetch.Error{URL: "bigquery", Kind: fetch.KindTimeout, Message: "query did not complete in time"}
	}

	items := make([]types.TrendItem, 0, len(resp.Rows))
	for i, row := range resp.Rows {
		item, err := parseTermRow(row)
		if err != nil {
			return nil, fetch.NewSchemaError("bigquery", fmt.Sprintf("row %d", i), err)
		}
		if item.Keyword == "" {
			continue
		}
		item.Rising = rising
		items = append(items, item)
	}
	return items, nil
}

// parseTermRow reads (term STRING, score INT64 NULLABLE). BigQuery returns
// every cell value as a string.
func parseTermRow(row *bigquery.TableRow) (types.TrendItem, error) {
	if row == nil || len(row.F) < 2 {
		return types.TrendItem{}, fmt.Errorf("expected 2 columns")
	}
	term, ok := row.F[0].V.(string)
	if !ok {
		return types.TrendItem{}, fmt.Errorf("term is not a string")
	}
	item := types.TrendItem{Keyword: strings.TrimSpace(term)}

	switch v := row.F[1].V.(type) {
	case nil:
	case string:
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return types.TrendItem{}, fmt.Errorf("invalid score %q: %w", v, err)
		}
		item.Score = floatPtr(score)
	case float64:
		item.Score = floatPtr(v)
	default:
		return types.TrendItem{}, fmt.Errorf("unexpected score type %T", v)
	}
	return item, nil
}
