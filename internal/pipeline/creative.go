package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/db"
	"github.com/jonathan/pin-pipeline/internal/templater"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// CreativeImage is a hosted pin image together with the ledger asset fields
// that describe it.
type CreativeImage struct {
	Image     types.Image
	URL       string
	Checksum  string
	AssetType string
	Provider  string
	Strategy  config.CreativeKind
}

// creativeState is shared by the strategies of one run. Later strategies
// refine what earlier ones produced.
type creativeState struct {
	runID    int64
	primary  string
	headline string

	raw     *CreativeImage
	render  *CreativeImage
	current *CreativeImage
	final   bool
}

// creativeStrategy is one link of the fallback chain. attempt either returns
// an image that becomes the current choice or an error that is logged and
// skipped.
type creativeStrategy interface {
	kind() config.CreativeKind
	applies(st *creativeState) bool
	attempt(ctx context.Context, st *creativeState) (*CreativeImage, error)
}

func upload(ctx context.Context, host ImageHost, img types.Image) (string, string, error) {
	hosted, err := host.Upload(ctx, img)
	if err != nil {
		return "", "", fmt.Errorf("upload: %w", err)
	}
	return hosted.URL, hosted.Checksum, nil
}

// localTemplate overlays the headline on the configured template image. A
// success ends the chain.
type localTemplate struct {
	images   ImageGenerator
	host     ImageHost
	template types.Image
}

func (s *localTemplate) kind() config.CreativeKind { return config.CreativeLocalTemplate }

func (s *localTemplate) applies(st *creativeState) bool { return st.current == nil }

func (s *localTemplate) attempt(ctx context.Context, st *creativeState) (*CreativeImage, error) {
	img, err := s.images.EditTemplate(ctx, s.template, st.headline)
	if err != nil {
		return nil, err
	}
	url, sum, err := upload(ctx, s.host, img)
	if err != nil {
		return nil, err
	}
	st.final = true
	return &CreativeImage{
		Image: img, URL: url, Checksum: sum,
		AssetType: db.AssetTypeTemplatedImage, Provider: db.AssetProviderGemini,
		Strategy: s.kind(),
	}, nil
}

// rawGeneration creates a text-free photo for the keyword and hosts it.
type rawGeneration struct {
	images ImageGenerator
	host   ImageHost
}

func (s *rawGeneration) kind() config.CreativeKind { return config.CreativeRawGeneration }

func (s *rawGeneration) applies(st *creativeState) bool { return st.current == nil }

func (s *rawGeneration) attempt(ctx context.Context, st *creativeState) (*CreativeImage, error) {
	img, err := s.images.Raw(ctx, st.primary)
	if err != nil {
		return nil, err
	}
	url, sum, err := upload(ctx, s.host, img)
	if err != nil {
		return nil, err
	}
	st.raw = &CreativeImage{
		Image: img, URL: url, Checksum: sum,
		AssetType: db.AssetTypeRawImage, Provider: db.AssetProviderGemini,
		Strategy: s.kind(),
	}
	return st.raw, nil
}

// templateRender fills a brand template with the raw photo and headline.
// Template id and page rotate by run id. The export is re-hosted because
// renderer URLs expire.
type templateRender struct {
	renderer    TemplateRenderer
	host        ImageHost
	brand       string
	templateIDs []string
	pages       int
}

func (s *templateRender) kind() config.CreativeKind { return config.CreativeTemplateRender }

func (s *templateRender) applies(st *creativeState) bool {
	return st.raw != nil && st.current == st.raw
}

func (s *templateRender) attempt(ctx context.Context, st *creativeState) (*CreativeImage, error) {
	templateID, page := templateFor(st.runID, s.templateIDs, s.pages)
	if templateID == "" {
		return nil, fmt.Errorf("no template ids configured")
	}
	res, err := s.renderer.Render(ctx, templater.Request{
		TemplateID: templateID,
		Page:       page,
		Headline:   st.headline,
		Brand:      s.brand,
		Photo:      st.raw.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("template %s page %d: %w", templateID, page, err)
	}
	url, sum, err := upload(ctx, s.host, res.Image)
	if err != nil {
		return nil, err
	}
	st.render = &CreativeImage{
		Image: res.Image, URL: url, Checksum: sum,
		AssetType: db.AssetTypeTemplatedImage, Provider: db.AssetProviderTemplated,
		Strategy: s.kind(),
	}
	return st.render, nil
}

// recreate redraws the render from the original photo, using the render as
// style reference.
type recreate struct {
	images ImageGenerator
	host   ImageHost
}

func (s *recreate) kind() config.CreativeKind { return config.CreativeRecreate }

func (s *recreate) applies(st *creativeState) bool {
	return st.raw != nil && st.render != nil && st.current == st.render
}

func (s *recreate) attempt(ctx context.Context, st *creativeState) (*CreativeImage, error) {
	img, err := s.images.Recreate(ctx, st.raw.Image, st.render.Image, st.headline)
	if err != nil {
		return nil, err
	}
	url, sum, err := upload(ctx, s.host, img)
	if err != nil {
		return nil, err
	}
	return &CreativeImage{
		Image: img, URL: url, Checksum: sum,
		AssetType: db.AssetTypeTemplatedImage, Provider: db.AssetProviderGemini,
		Strategy: s.kind(),
	}, nil
}

// buildCreatives turns the resolved strategy into the ordered chain.
func buildCreatives(deps Deps, opts Options) ([]creativeStrategy, error) {
	var chain []creativeStrategy
	for _, kind := range opts.Strategy.Creative {
		switch kind {
		case config.CreativeLocalTemplate:
			if opts.LocalTemplate.Empty() {
				return nil, fmt.Errorf("local template strategy needs a template image")
			}
			chain = append(chain, &localTemplate{images: deps.Images, host: deps.Host, template: *opts.LocalTemplate})
		case config.CreativeRawGeneration:
			chain = append(chain, &rawGeneration{images: deps.Images, host: deps.Host})
		case config.CreativeTemplateRender:
			if deps.Renderer == nil {
				return nil, fmt.Errorf("template render strategy needs a renderer")
			}
			chain = append(chain, &templateRender{
				renderer:    deps.Renderer,
				host:        deps.Host,
				brand:       opts.BrandName,
				templateIDs: opts.TemplateIDs,
				pages:       opts.TemplatePages,
			})
		case config.CreativeRecreate:
			chain = append(chain, &recreate{images: deps.Images, host: deps.Host})
		default:
			return nil, fmt.Errorf("unknown creative strategy: %s", kind)
		}
	}
	return chain, nil
}
