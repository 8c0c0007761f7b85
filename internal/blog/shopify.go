// Package blog publishes articles to the store's Shopify blog.
package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/schemas"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// Options configures the Shopify Admin REST adapter.
type Options struct {
	StoreDomain  string // mystore.myshopify.com
	AccessToken  string
	BlogID       string
	BlogHandle   string // used for the canonical URL
	PublicDomain string // storefront domain; defaults to StoreDomain
	APIVersion   string
	// BaseURL overrides https://<StoreDomain>, used in tests.
	BaseURL string
}

// Article is the create request.
type Article struct {
	Title           string
	BodyHTML        string
	MetaTitle       string
	MetaDescription string
	ImageURL        string
}

// Shopify creates and updates blog articles.
type Shopify struct {
	client *fetch.Client
	opts   Options
}

// NewShopify creates the adapter.
func NewShopify(client *fetch.Client, opts Options) *Shopify {
	if opts.APIVersion == "" {
		opts.APIVersion = "2024-10"
	}
	if opts.BlogHandle == "" {
		opts.BlogHandle = "news"
	}
	if opts.PublicDomain == "" {
		opts.PublicDomain = opts.StoreDomain
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://" + opts.StoreDomain
	}
	return &Shopify{client: client, opts: opts}
}

type metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type articleImage struct {
	Src string `json:"src"`
}

type articlePayload struct {
	ID         json.Number   `json:"id,omitempty"`
	Title      string        `json:"title,omitempty"`
	BodyHTML   string        `json:"body_html,omitempty"`
	Published  *bool         `json:"published,omitempty"`
	Image      *articleImage `json:"image,omitempty"`
	Metafields []metafield   `json:"metafields,omitempty"`
}

type articleResponse struct {
	Article struct {
		ID     json.Number `json:"id"`
		Handle string      `json:"handle"`
	} `json:"article"`
}

func (s *Shopify) articlesURL() string {
	return fmt.Sprintf("%s/admin/api/%s/blogs/%s/articles", strings.TrimRight(s.opts.BaseURL, "/"), s.opts.APIVersion, s.opts.BlogID)
}

func (s *Shopify) headers() map[string]string {
	return map[string]string{"X-Shopify-Access-Token": s.opts.AccessToken}
}

// CanonicalURL builds the public article URL for a handle.
func (s *Shopify) CanonicalURL(handle string) string {
	return fmt.Sprintf("https://%s/blogs/%s/%s", s.opts.PublicDomain, s.opts.BlogHandle, handle)
}

// Publish creates a published article.
func (s *Shopify) Publish(ctx context.Context, a Article) (*types.PublishedArticle, error) {
	published := true
	payload := articlePayload{
		Title:     a.Title,
		BodyHTML:  a.BodyHTML,
		Published: &published,
	}
	if a.ImageURL != "" {
		payload.Image = &articleImage{Src: a.ImageURL}
	}
	if a.MetaTitle != "" {
		payload.Metafields = append(payload.Metafields, metafield{Namespace: "global", Key: "title_tag", Value: a.MetaTitle, Type: "single_line_text_field"})
	}
	if a.MetaDescription != "" {
		payload.Metafields = append(payload.Metafields, metafield{Namespace: "global", Key: "description_tag", Value: a.MetaDescription, Type: "single_line_text_field"})
	}

	target := s.articlesURL() + ".json"
	resp, err := s.client.Do(ctx, fetch.Request{
		Method:  "POST",
		URL:     target,
		Headers: s.headers(),
		JSON:    map[string]any{"article": payload},
	})
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.Article, string(resp.Body)); err != nil {
		return nil, fetch.NewSchemaError(target, "unexpected article response", err)
	}
	var out articleResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fetch.NewSchemaError(target, "unexpected article response", err)
	}

	return &types.PublishedArticle{
		ID:           out.Article.ID.String(),
		Handle:       out.Article.Handle,
		CanonicalURL: s.CanonicalURL(out.Article.Handle),
	}, nil
}

// SetImage replaces the featured image of an existing article.
func (s *Shopify) SetImage(ctx context.Context, articleID, imageURL string) error {
	target := fmt.Sprintf("%s/%s.json", s.articlesURL(), articleID)
	_, err := s.client.Do(ctx, fetch.Request{
		Method:  "PUT",
		URL:     target,
		Headers: s.headers(),
		JSON: map[string]any{"article": articlePayload{
			ID:    json.Number(articleID),
			Image: &articleImage{Src: imageURL},
		}},
	})
	return err
}
