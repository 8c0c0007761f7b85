package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/pin-pipeline/internal/blog"
	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/content"
	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/imagegen"
	"github.com/jonathan/pin-pipeline/internal/imagehost"
	"github.com/jonathan/pin-pipeline/internal/llm"
	"github.com/jonathan/pin-pipeline/internal/logger"
	"github.com/jonathan/pin-pipeline/internal/oauth"
	"github.com/jonathan/pin-pipeline/internal/observability"
	"github.com/jonathan/pin-pipeline/internal/social"
	"github.com/jonathan/pin-pipeline/internal/storecontext"
	"github.com/jonathan/pin-pipeline/internal/templater"
	"github.com/jonathan/pin-pipeline/internal/topics"
	"github.com/jonathan/pin-pipeline/internal/trends"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// FromConfig builds every adapter the configuration enables and returns the
// orchestrator with a cleanup func that releases the clients. cfg must
// already be validated.
func FromConfig(ctx context.Context, cfg *config.Config, ledger Ledger, log *logger.Logger, metrics *observability.Metrics, printer *observability.Printer) (*Orchestrator, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("failed to close client", "error", err)
			}
		}
	}
	fail := func(err error) (*Orchestrator, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	strategy, err := cfg.ResolvePinStrategy()
	if err != nil {
		return fail(err)
	}

	httpClient := fetch.NewClient(cfg.HTTPTimeout())
	imageClient := fetch.NewClient(cfg.ImageTimeout())

	source, err := trends.NewSource(ctx, cfg, httpClient)
	if err != nil {
		return fail(err)
	}

	llmConfig := llm.NewConfig(cfg.GeminiTextModel, cfg.GeminiImageModel)
	textClient, err := llm.NewTextClient(ctx, llmConfig, cfg.GeminiAPIKey)
	if err != nil {
		return fail(fmt.Errorf("failed to create content client: %w", err))
	}
	closers = append(closers, textClient.Close)

	deps := Deps{
		Ledger:   ledger,
		Trends:   source,
		Selector: topics.NewSelector(cfg.IndustryKeywords),
		Content:  content.NewGenerator(textClient),
		Logger:   log,
		Metrics:  metrics,
		Printer:  printer,
	}
	if cfg.ContextURL != "" {
		deps.Context = storecontext.New(httpClient, cfg.ContextURL, cfg.ContextToken)
	}

	opts := Options{
		BrandName:       cfg.BrandName,
		DryRun:          cfg.DryRun,
		AllowTopicReuse: cfg.AllowTopicReuse,
		BlogImageURL:    cfg.BlogDefaultImageURL,
		Strategy:        strategy,
		TemplateIDs:     cfg.CanvaTemplateIDs,
		TemplatePages:   cfg.CanvaTemplatePages,
	}

	if !cfg.DryRun {
		deps.Blog = blog.NewShopify(httpClient, blog.Options{
			StoreDomain:  cfg.ShopifyStoreDomain,
			AccessToken:  cfg.ShopifyAccessToken,
			BlogID:       cfg.ShopifyBlogID,
			BlogHandle:   cfg.ShopifyBlogHandle,
			PublicDomain: cfg.ShopifyPublicDomain,
			APIVersion:   cfg.ShopifyAPIVersion,
		})

		var logo *types.Image
		if cfg.LogoPath != "" {
			if logo, err = imagegen.LoadImage(cfg.LogoPath); err != nil {
				return fail(err)
			}
		}
		model := llm.NewImageClient(imageClient, cfg.GeminiAPIKey, llmConfig.ImageModel)
		deps.Images = imagegen.NewGenerator(model, cfg.BrandName, logo)

		host, err := imagehost.NewGCS(ctx, imagehost.Options{
			Bucket:          cfg.GCSBucket,
			Prefix:          cfg.GCSPrefix,
			PublicBaseURL:   cfg.GCSPublicBaseURL,
			CredentialsFile: cfg.GCSCredentialsFile,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, host.Close)
		deps.Host = host

		if strategy.Has(config.CreativeLocalTemplate) {
			if opts.LocalTemplate, err = imagegen.LoadImage(cfg.LocalTemplatePath); err != nil {
				return fail(err)
			}
		}
		if strategy.Has(config.CreativeTemplateRender) {
			tokens := oauth.NewCache(oauth.RefreshTokenFunc(
				oauth.CanvaConfig(cfg.CanvaClientID, cfg.CanvaClientSecret, ""),
				cfg.CanvaRefreshToken, httpClient.HTTPClient()))
			deps.Renderer = templater.NewCanva(imageClient, tokens, templater.Options{})
		}

		if deps.Poster, err = newPoster(cfg, strategy.Poster, httpClient); err != nil {
			return fail(err)
		}
	}

	o, err := New(deps, opts)
	if err != nil {
		return fail(err)
	}
	return o, cleanup, nil
}

// newPoster builds the single social adapter chosen at startup.
func newPoster(cfg *config.Config, kind config.PosterKind, client *fetch.Client) (social.Poster, error) {
	switch kind {
	case config.PosterAggregator:
		return social.NewAyrshare(client, cfg.AyrshareAPIKey), nil
	case config.PosterDirectTemplated, config.PosterDirectRaw:
		var tokens *oauth.Cache
		if cfg.PinterestAccessToken != "" {
			tokens = oauth.NewStaticCache(cfg.PinterestAccessToken)
		} else {
			tokens = oauth.NewCache(oauth.RefreshTokenFunc(
				oauth.PinterestConfig(cfg.PinterestClientID, cfg.PinterestClientSecret, ""),
				cfg.PinterestRefreshToken, client.HTTPClient()))
		}
		return social.NewPinterest(client, tokens, cfg.PinterestBoardID, kind == config.PosterDirectRaw), nil
	default:
		return nil, fmt.Errorf("no social poster configured")
	}
}
