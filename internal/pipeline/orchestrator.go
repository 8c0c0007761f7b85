// Package pipeline runs one end-to-end content cycle: topic discovery,
// content generation, blog publish, pin creative and pin posting, recording
// every step in the ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/pin-pipeline/internal/blog"
	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/content"
	"github.com/jonathan/pin-pipeline/internal/db"
	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/logger"
	"github.com/jonathan/pin-pipeline/internal/observability"
	"github.com/jonathan/pin-pipeline/internal/pipeline/steps"
	"github.com/jonathan/pin-pipeline/internal/social"
	"github.com/jonathan/pin-pipeline/internal/storecontext"
	"github.com/jonathan/pin-pipeline/internal/topics"
	"github.com/jonathan/pin-pipeline/internal/trends"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// Deps are the collaborators of the orchestrator. Context, Renderer, Printer
// and Metrics are optional; the publishing side (Blog, Images, Host, Poster)
// is only required outside dry runs.
type Deps struct {
	Ledger   Ledger
	Trends   trends.Source
	Context  ContextSource
	Selector *topics.Selector
	Content  ContentGenerator
	Blog     BlogPublisher
	Images   ImageGenerator
	Host     ImageHost
	Renderer TemplateRenderer
	Poster   social.Poster
	Logger   *logger.Logger
	Metrics  *observability.Metrics
	Printer  *observability.Printer
}

// Options are the per-process run settings.
type Options struct {
	BrandName       string
	DryRun          bool
	AllowTopicReuse bool
	// BlogImageURL is attached to the article at creation, before a pin
	// image exists.
	BlogImageURL  string
	Strategy      config.PinStrategy
	LocalTemplate *types.Image
	TemplateIDs   []string
	TemplatePages int
}

// Orchestrator drives runs. It keeps no state between runs, so one value may
// serve sequential triggers.
type Orchestrator struct {
	deps      Deps
	opts      Options
	creatives []creativeStrategy
	log       *logger.Logger
	ledger    Ledger
	now       func() time.Time
}

// New validates the collaborators against the options.
func New(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Ledger == nil || deps.Trends == nil || deps.Content == nil {
		return nil, fmt.Errorf("ledger, trend source and content generator are required")
	}
	if deps.Selector == nil {
		deps.Selector = topics.NewSelector(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	o := &Orchestrator{deps: deps, opts: opts, log: deps.Logger, ledger: deps.Ledger, now: time.Now}
	if opts.DryRun {
		return o, nil
	}

	if deps.Blog == nil || deps.Images == nil || deps.Host == nil || deps.Poster == nil {
		return nil, fmt.Errorf("blog publisher, image generator, image host and poster are required unless dry run")
	}
	creatives, err := buildCreatives(deps, opts)
	if err != nil {
		return nil, err
	}
	if len(creatives) == 0 {
		return nil, fmt.Errorf("no creative strategies configured")
	}
	o.creatives = creatives
	return o, nil
}

// Result is what one run produced. Fields stay zero for steps that did not
// run.
type Result struct {
	RunID      int64
	Status     string
	DryRun     bool
	Candidates []types.TopicCandidate
	Topic      *db.Topic
	Content    *types.GeneratedContent
	Article    *types.PublishedArticle
	PostID     int64
	Image      *CreativeImage
	AssetID    int64
	Pin        *types.PublishedPin
	PinID      int64
	Warnings   []string
}

// Summary converts the result for the CLI printer.
func (r *Result) Summary(runErr error) observability.RunSummary {
	s := observability.RunSummary{RunID: r.RunID, Status: r.Status, DryRun: r.DryRun, Warnings: r.Warnings}
	if r.Topic != nil {
		s.Topic = r.Topic.PrimaryKeyword
	}
	if r.Article != nil {
		s.ArticleURL = r.Article.CanonicalURL
	}
	if r.Image != nil {
		s.ImageURL = r.Image.URL
	}
	if r.Pin != nil {
		s.PinURL = r.Pin.PublicLink
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}

type runState struct {
	runID          int64
	result         *Result
	completed      map[string]bool
	warnings       []string
	contextSummary string
}

type stepFunc func(ctx context.Context, st *runState) error

// Run executes one pipeline run. The run row is created first and always
// finalized; on failure the error is recorded as the run's error_summary and
// returned to the caller. The returned Result is nil only when the run row
// itself could not be created.
func (o *Orchestrator) Run(ctx context.Context, scheduledTime *time.Time) (*Result, error) {
	runID, err := o.ledger.CreateRun(ctx, scheduledTime)
	if err != nil {
		o.deps.Metrics.RunFinished(db.RunStatusFailed)
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	st := &runState{
		runID:     runID,
		result:    &Result{RunID: runID, Status: db.RunStatusRunning, DryRun: o.opts.DryRun},
		completed: map[string]bool{},
	}
	o.stepLog(ctx, st, steps.Started, db.LevelInfo, "run started", "dry_run", o.opts.DryRun)
	st.completed[steps.Started] = true

	if err := o.execute(ctx, st); err != nil {
		o.fail(ctx, st, err)
		return st.result, err
	}

	if err := steps.ValidateDependencies(st.completed, steps.Finalize); err != nil {
		o.fail(ctx, st, err)
		return st.result, err
	}
	if err := o.ledger.FinishRun(ctx, runID, db.RunStatusSuccess, nil); err != nil {
		err = stepErr(steps.Finalize, err)
		o.fail(ctx, st, err)
		return st.result, err
	}
	st.result.Status = db.RunStatusSuccess
	st.result.Warnings = st.warnings
	o.stepLog(ctx, st, steps.Finalize, db.LevelInfo, "run finished", "status", db.RunStatusSuccess)
	o.deps.Metrics.RunFinished(db.RunStatusSuccess)
	return st.result, nil
}

func (o *Orchestrator) execute(ctx context.Context, st *runState) error {
	sequence := []struct {
		name string
		fn   stepFunc
	}{
		{steps.TopicDiscovery, o.discoverTopic},
		{steps.ContentGeneration, o.generateContent},
		{steps.BlogPublish, o.publishBlog},
		{steps.PinCreative, o.createPinImage},
		{steps.PinterestPost, o.postPin},
	}

	for _, s := range sequence {
		if o.opts.DryRun && steps.StepRegistry[s.name].SkippedInDryRun {
			o.stepLog(ctx, st, s.name, db.LevelDebug, "skipped (dry run)")
			continue
		}
		if err := steps.ValidateDependencies(st.completed, s.name); err != nil {
			return err
		}
		start := o.now()
		err := s.fn(ctx, st)
		o.deps.Metrics.ObserveStep(s.name, o.now().Sub(start))
		if err != nil {
			return err
		}
		st.completed[s.name] = true
	}
	return nil
}

// fail records a failed run. Ledger errors here are logged and swallowed so
// the original error is what the caller sees.
func (o *Orchestrator) fail(ctx context.Context, st *runState, runErr error) {
	ctx = context.WithoutCancel(ctx)
	summary := runErr.Error()
	st.result.Status = db.RunStatusFailed
	o.stepLog(ctx, st, steps.Finalize, db.LevelError, "run failed", "error", summary, "kind", fetch.KindOf(runErr))
	st.result.Warnings = st.warnings
	if err := o.ledger.FinishRun(ctx, st.runID, db.RunStatusFailed, &summary); err != nil {
		o.log.Error("failed to record run failure", "run_id", st.runID, "error", err)
	}
	o.deps.Metrics.RunFinished(db.RunStatusFailed)
}

// discoverTopic fetches trends and context concurrently, ranks candidates and
// commits the first one not already claimed in the ledger.
func (o *Orchestrator) discoverTopic(ctx context.Context, st *runState) error {
	var items []types.TrendItem
	var storeCtx *types.StoreContext

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, err := o.deps.Trends.Fetch(gCtx)
		if err != nil {
			return fmt.Errorf("trend source %s: %w", o.deps.Trends.Name(), err)
		}
		items = fetched
		return nil
	})
	if o.deps.Context != nil {
		g.Go(func() error {
			fetched, err := o.deps.Context.Fetch(gCtx)
			if err != nil {
				return fmt.Errorf("context source: %w", err)
			}
			storeCtx = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stepErr(steps.TopicDiscovery, err)
	}

	keywords := storecontext.Keywords(storeCtx)
	st.contextSummary = storecontext.Summary(keywords)

	candidates := o.deps.Selector.Select(items, keywords)
	st.result.Candidates = candidates
	o.stepLog(ctx, st, steps.TopicDiscovery, db.LevelInfo, "ranked topic candidates",
		"trend_items", len(items), "context_keywords", len(keywords), "candidates", len(candidates))
	if o.deps.Printer != nil {
		o.deps.Printer.PrintCandidates(candidates)
	}
	if len(candidates) == 0 {
		return ErrNoTopic
	}

	topic, err := o.claimTopic(ctx, st, candidates)
	if err != nil {
		return err
	}
	st.result.Topic = topic
	o.stepLog(ctx, st, steps.TopicDiscovery, db.LevelInfo, "topic selected",
		"topic_id", topic.ID, "primary", topic.PrimaryKeyword, "status", topic.Status)
	return nil
}

// claimTopic walks candidates in rank order. With reuse enabled the top
// candidate is taken as-is, reusing its row when one exists. Dry runs commit
// the topic as used immediately.
func (o *Orchestrator) claimTopic(ctx context.Context, st *runState, candidates []types.TopicCandidate) (*db.Topic, error) {
	status := db.TopicStatusSelected
	if o.opts.DryRun {
		status = db.TopicStatusUsed
	}

	if o.opts.AllowTopicReuse {
		top := candidates[0]
		existing, err := o.ledger.FindTopicByKeyword(ctx, top.Primary)
		if err != nil {
			return nil, stepErr(steps.TopicDiscovery, err)
		}
		if existing != nil {
			o.stepLog(ctx, st, steps.TopicDiscovery, db.LevelInfo, "reusing existing topic", "topic_id", existing.ID)
			if o.opts.DryRun && existing.Status != db.TopicStatusUsed {
				if err := o.ledger.MarkTopicUsed(ctx, existing.ID); err != nil {
					return nil, stepErr(steps.TopicDiscovery, err)
				}
				existing.Status = db.TopicStatusUsed
			}
			return existing, nil
		}
		return o.commitTopic(ctx, top, status)
	}

	for _, c := range candidates {
		existing, err := o.ledger.FindTopicByKeyword(ctx, c.Primary)
		if err != nil {
			return nil, stepErr(steps.TopicDiscovery, err)
		}
		if existing.Claimed() {
			o.stepLog(ctx, st, steps.TopicDiscovery, db.LevelDebug, "skipping claimed keyword",
				"primary", c.Primary, "status", existing.Status)
			continue
		}
		return o.commitTopic(ctx, c, status)
	}
	return nil, ErrAllTopicsUsed
}

// commitTopic inserts the topic row. Losing a race to another run surfaces
// as *db.TopicClaimedError, returned without a step prefix.
func (o *Orchestrator) commitTopic(ctx context.Context, c types.TopicCandidate, status string) (*db.Topic, error) {
	topic, err := o.ledger.CreateTopic(ctx, c.Primary, c.Supporting, status)
	if err != nil {
		if errors.Is(err, db.ErrTopicClaimed) {
			return nil, err
		}
		return nil, stepErr(steps.TopicDiscovery, err)
	}
	return topic, nil
}

func (o *Orchestrator) generateContent(ctx context.Context, st *runState) error {
	topic := st.result.Topic
	generated, err := o.deps.Content.Generate(ctx, types.ContentRequest{
		Primary:        topic.PrimaryKeyword,
		Supporting:     topic.SupportingKeywords,
		BrandName:      o.opts.BrandName,
		ContextSummary: st.contextSummary,
	})
	if err != nil {
		return stepErr(steps.ContentGeneration, err)
	}
	generated.Social.Headline = content.SanitizeHeadline(generated.Social.Headline)
	st.result.Content = generated

	o.stepLog(ctx, st, steps.ContentGeneration, db.LevelInfo, "content generated",
		"title", generated.Blog.Title, "headline", generated.Social.Headline)
	if o.deps.Printer != nil {
		o.deps.Printer.PrintContent(generated)
	}
	return nil
}

func (o *Orchestrator) publishBlog(ctx context.Context, st *runState) error {
	c := st.result.Content
	article, err := o.deps.Blog.Publish(ctx, blog.Article{
		Title:           c.Blog.Title,
		BodyHTML:        c.Blog.BodyHTML,
		MetaTitle:       c.Blog.MetaTitle,
		MetaDescription: c.Blog.MetaDescription,
		ImageURL:        o.opts.BlogImageURL,
	})
	if err != nil {
		return stepErr(steps.BlogPublish, err)
	}

	postID, err := o.ledger.CreatePost(ctx, db.PostInput{
		TopicID:         st.result.Topic.ID,
		ExternalPostID:  article.ID,
		Title:           c.Blog.Title,
		CanonicalURL:    article.CanonicalURL,
		MetaTitle:       c.Blog.MetaTitle,
		MetaDescription: c.Blog.MetaDescription,
	})
	if err != nil {
		return stepErr(steps.BlogPublish, err)
	}
	st.result.Article = article
	st.result.PostID = postID

	o.stepLog(ctx, st, steps.BlogPublish, db.LevelInfo, "article published",
		"post_id", postID, "external_id", article.ID, "url", article.CanonicalURL)
	return nil
}

// createPinImage walks the creative chain. Strategy failures are warnings;
// the step fails only when no strategy produced an image.
func (o *Orchestrator) createPinImage(ctx context.Context, st *runState) error {
	cs := &creativeState{
		runID:    st.runID,
		primary:  st.result.Topic.PrimaryKeyword,
		headline: st.result.Content.Social.Headline,
	}

	var reasons []string
	for _, s := range o.creatives {
		if cs.final {
			break
		}
		if !s.applies(cs) {
			continue
		}
		img, err := s.attempt(ctx, cs)
		if err != nil {
			reason := fmt.Sprintf("%s: %v", s.kind(), err)
			reasons = append(reasons, reason)
			o.deps.Metrics.CreativeFallback(string(s.kind()))
			o.stepLog(ctx, st, steps.PinCreative, db.LevelWarn, fmt.Sprintf("creative strategy %s failed", s.kind()),
				"error", err, "kind", fetch.KindOf(err))
			continue
		}
		cs.current = img
		o.stepLog(ctx, st, steps.PinCreative, db.LevelInfo, fmt.Sprintf("creative strategy %s succeeded", s.kind()),
			"url", img.URL)
	}

	if cs.current == nil {
		return stepErr(steps.PinCreative, &NoCreativeError{Reasons: reasons})
	}
	st.result.Image = cs.current

	// blog and pin carry the same image
	if st.result.Article != nil && cs.current.URL != o.opts.BlogImageURL {
		if err := o.deps.Blog.SetImage(ctx, st.result.Article.ID, cs.current.URL); err != nil {
			o.stepLog(ctx, st, steps.PinCreative, db.LevelWarn, "failed to attach image to article", "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) postPin(ctx context.Context, st *runState) error {
	r := st.result
	img := r.Image
	pin, err := o.deps.Poster.Post(ctx, types.PinRequest{
		Title:       content.PinTitle(r.Content),
		Description: content.PinDescription(r.Content),
		Link:        r.Article.CanonicalURL,
		ImageURL:    img.URL,
		Image:       &img.Image,
	})
	if err != nil {
		return stepErr(steps.PinterestPost, fmt.Errorf("%s: %w", o.deps.Poster.Name(), err))
	}
	r.Pin = pin

	var checksum *string
	if img.Checksum != "" {
		checksum = &img.Checksum
	}
	assetID, err := o.ledger.CreateAsset(ctx, db.AssetInput{
		Type:       img.AssetType,
		Provider:   img.Provider,
		StorageURL: img.URL,
		Checksum:   checksum,
	})
	if err != nil {
		return stepErr(steps.PinterestPost, err)
	}
	r.AssetID = assetID

	pinID, err := o.ledger.CreatePin(ctx, db.PinInput{
		PostID:         r.PostID,
		PinterestPinID: pin.ExternalID,
		ImageAssetID:   assetID,
		Title:          content.PinTitle(r.Content),
		Description:    content.PinDescription(r.Content),
		DestinationURL: r.Article.CanonicalURL,
		PlatformURL:    pin.PublicLink,
	})
	if err != nil {
		return stepErr(steps.PinterestPost, err)
	}
	r.PinID = pinID

	if err := o.ledger.MarkTopicUsed(ctx, r.Topic.ID); err != nil {
		return stepErr(steps.PinterestPost, err)
	}
	r.Topic.Status = db.TopicStatusUsed

	o.stepLog(ctx, st, steps.PinterestPost, db.LevelInfo, "pin posted",
		"pin_id", pinID, "external_id", pin.ExternalID, "poster", o.deps.Poster.Name())
	return nil
}
