// Package storecontext fetches the store's business context (categories and
// products) and flattens it to the keyword set used for topic relevance.
package storecontext

import (
	"context"
	"sort"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// MaxSummaryKeywords bounds the keywords joined into a content summary.
const MaxSummaryKeywords = 20

// Adapter reads the context endpoint.
type Adapter struct {
	client *fetch.Client
	url    string
	token  string
}

// New creates an Adapter. An empty url yields an empty context.
func New(client *fetch.Client, contextURL, token string) *Adapter {
	return &Adapter{client: client, url: contextURL, token: token}
}

type contextResponse struct {
	Categories *[]types.ContextEntry `json:"categories"`
	Products   *[]types.ContextEntry `json:"products"`
}

// Fetch returns the business context. Both arrays must be present.
func (a *Adapter) Fetch(ctx context.Context) (*types.StoreContext, error) {
	if a.url == "" {
		return &types.StoreContext{}, nil
	}

	req := fetch.Request{URL: a.url}
	if a.token != "" {
		req.Headers = map[string]string{"Authorization": "Bearer " + a.token}
	}

	var resp contextResponse
	if err := a.client.JSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Categories == nil || resp.Products == nil {
		return nil, fetch.NewSchemaError(a.url, "expected categories and products arrays", nil)
	}
	return &types.StoreContext{Categories: *resp.Categories, Products: *resp.Products}, nil
}

// Keywords flattens names and keywords of every entry into a lowercase set.
func Keywords(sc *types.StoreContext) map[string]struct{} {
	set := make(map[string]struct{})
	if sc == nil {
		return set
	}
	add := func(v string) {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	for _, entries := range [][]types.ContextEntry{sc.Categories, sc.Products} {
		for _, e := range entries {
			add(e.Name)
			for _, k := range e.Keywords {
				add(k)
			}
		}
	}
	return set
}

// Summary joins up to MaxSummaryKeywords keywords, sorted for stable prompts.
func Summary(keywords map[string]struct{}) string {
	list := make([]string, 0, len(keywords))
	for k := range keywords {
		list = append(list, k)
	}
	sort.Strings(list)
	if len(list) > MaxSummaryKeywords {
		list = list[:MaxSummaryKeywords]
	}
	return strings.Join(list, ", ")
}
