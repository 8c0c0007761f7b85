package pipeline

import (
	"context"
	"time"

	"github.com/jonathan/pin-pipeline/internal/blog"
	"github.com/jonathan/pin-pipeline/internal/db"
	"github.com/jonathan/pin-pipeline/internal/imagehost"
	"github.com/jonathan/pin-pipeline/internal/templater"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// Ledger is the subset of *db.DB the orchestrator writes through. Every call
// is one statement; nothing holds a connection across adapter calls.
type Ledger interface {
	CreateRun(ctx context.Context, scheduledTime *time.Time) (int64, error)
	FinishRun(ctx context.Context, runID int64, status string, errorSummary *string) error
	FindTopicByKeyword(ctx context.Context, keyword string) (*db.Topic, error)
	CreateTopic(ctx context.Context, primary string, supporting []string, status string) (*db.Topic, error)
	MarkTopicUsed(ctx context.Context, topicID int64) error
	CreatePost(ctx context.Context, in db.PostInput) (int64, error)
	CreateAsset(ctx context.Context, in db.AssetInput) (int64, error)
	CreatePin(ctx context.Context, in db.PinInput) (int64, error)
	AppendLog(ctx context.Context, runID int64, step, level, message string) error
}

// ContextSource returns the store's business context.
type ContextSource interface {
	Fetch(ctx context.Context) (*types.StoreContext, error)
}

// ContentGenerator produces blog and pin copy.
type ContentGenerator interface {
	Generate(ctx context.Context, req types.ContentRequest) (*types.GeneratedContent, error)
}

// BlogPublisher creates articles and attaches their featured image.
type BlogPublisher interface {
	Publish(ctx context.Context, a blog.Article) (*types.PublishedArticle, error)
	SetImage(ctx context.Context, articleID, imageURL string) error
}

// ImageGenerator covers the three image-model calls.
type ImageGenerator interface {
	Raw(ctx context.Context, primary string) (types.Image, error)
	EditTemplate(ctx context.Context, template types.Image, headline string) (types.Image, error)
	Recreate(ctx context.Context, raw, rendered types.Image, headline string) (types.Image, error)
}

// ImageHost uploads bytes and returns a public URL.
type ImageHost interface {
	Upload(ctx context.Context, img types.Image) (*imagehost.Hosted, error)
}

// TemplateRenderer renders a photo into a brand template.
type TemplateRenderer interface {
	Render(ctx context.Context, req templater.Request) (*templater.Result, error)
}

var _ Ledger = (*db.DB)(nil)
