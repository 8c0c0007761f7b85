// Package imagegen produces pin images: text-to-image generation, headline
// edits of a local template and template recreation with a reference photo.
package imagegen

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/jonathan/pin-pipeline/internal/prompts"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// Model is an image model that accepts a prompt and reference images.
type Model interface {
	Generate(ctx context.Context, prompt string, refs ...types.Image) (types.Image, error)
}

// Generator wraps a Model with the pin prompts.
type Generator struct {
	model Model
	brand string
	logo  *types.Image
}

// NewGenerator creates a Generator. logo may be nil.
func NewGenerator(model Model, brand string, logo *types.Image) *Generator {
	return &Generator{model: model, brand: brand, logo: logo}
}

// LoadImage reads an image file, inferring the MIME type from its extension.
func LoadImage(path string) (*types.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = "image/png"
	}
	return &types.Image{Data: data, MIMEType: mt}, nil
}

// Raw generates a text-free photo themed on the keyword.
func (g *Generator) Raw(ctx context.Context, primary string) (types.Image, error) {
	prompt, err := prompts.Render("image.json", "raw-image", map[string]string{
		"Primary":   primary,
		"BrandName": g.brand,
	})
	if err != nil {
		return types.Image{}, err
	}
	img, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return types.Image{}, fmt.Errorf("raw image generation: %w", err)
	}
	return img, nil
}

// EditTemplate overlays the headline on a template image, then composites
// the logo when one is configured.
func (g *Generator) EditTemplate(ctx context.Context, template types.Image, headline string) (types.Image, error) {
	prompt, err := prompts.Render("image.json", "template-edit", map[string]string{
		"Headline": headline,
	})
	if err != nil {
		return types.Image{}, err
	}
	img, err := g.model.Generate(ctx, prompt, template)
	if err != nil {
		return types.Image{}, fmt.Errorf("template edit: %w", err)
	}
	return g.withLogo(img)
}

// Recreate redraws a rendered template using the original raw photo as the
// source and the render as style reference.
func (g *Generator) Recreate(ctx context.Context, raw, rendered types.Image, headline string) (types.Image, error) {
	prompt, err := prompts.Render("image.json", "recreate", map[string]string{
		"Headline": headline,
	})
	if err != nil {
		return types.Image{}, err
	}
	img, err := g.model.Generate(ctx, prompt, raw, rendered)
	if err != nil {
		return types.Image{}, fmt.Errorf("recreate: %w", err)
	}
	return g.withLogo(img)
}

func (g *Generator) withLogo(img types.Image) (types.Image, error) {
	if g.logo.Empty() {
		return img, nil
	}
	out, err := CompositeLogo(img, *g.logo)
	if err != nil {
		return types.Image{}, fmt.Errorf("logo composite: %w", err)
	}
	return out, nil
}
