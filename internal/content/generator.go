// Package content generates blog and pin copy for a topic and normalizes it.
package content

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/llm"
	"github.com/jonathan/pin-pipeline/internal/prompts"
	"github.com/jonathan/pin-pipeline/internal/schemas"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// Generator produces structured content through an LLM client.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate asks the model for blog and social copy and validates the result.
// A response that is not valid against the content schema is a schema error.
// The returned headline is already sanitized.
func (g *Generator) Generate(ctx context.Context, req types.ContentRequest) (*types.GeneratedContent, error) {
	prompt, err := prompts.Render("content.json", "generate-content", map[string]string{
		"BrandName":      req.BrandName,
		"Primary":        req.Primary,
		"Supporting":     strings.Join(req.Supporting, ", "),
		"ContextSummary": req.ContextSummary,
	})
	if err != nil {
		return nil, err
	}

	raw, err := g.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.Content, raw); err != nil {
		return nil, fetch.NewSchemaError("llm", "generated content is invalid", err)
	}

	var out types.GeneratedContent
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fetch.NewSchemaError("llm", "generated content is not JSON", err)
	}

	out.Social.Headline = SanitizeHeadline(out.Social.Headline)
	if out.Social.Headline == "" {
		return nil, fetch.NewSchemaError("llm", "generated headline is empty", nil)
	}
	return &out, nil
}

// Pinterest field limits.
const (
	MaxPinTitle       = 100
	MaxPinDescription = 500
)

// PinDescription returns the social description, or an excerpt of the blog
// body when the model left it empty, bounded to MaxPinDescription.
func PinDescription(c *types.GeneratedContent) string {
	desc := strings.TrimSpace(c.Social.Description)
	if desc == "" {
		if text, err := fetch.HTMLToText(c.Blog.BodyHTML); err == nil {
			desc = text
		}
	}
	if desc == "" {
		desc = c.Blog.MetaDescription
	}
	return Truncate(desc, MaxPinDescription)
}

// PinTitle returns the sanitized headline bounded to MaxPinTitle.
func PinTitle(c *types.GeneratedContent) string {
	return Truncate(SanitizeHeadline(c.Social.Headline), MaxPinTitle)
}

// Truncate shortens s to at most limit runes, preferring a word boundary and
// marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit-1])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:-") + "…"
}
