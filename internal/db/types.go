package db

import "time"

// Run statuses
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Topic statuses
const (
	TopicStatusSelected = "selected"
	TopicStatusUsed     = "used"
)

// Asset types and providers
const (
	AssetTypeRawImage       = "raw_image"
	AssetTypeTemplatedImage = "templated_image"

	AssetProviderGemini    = "gemini"
	AssetProviderTemplated = "templated"
)

// Post and pin statuses
const (
	PostStatusPublished = "published"
	PinStatusPublished  = "published"
)

// Log levels
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Run represents one pipeline execution.
type Run struct {
	ID            int64      `json:"id"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Status        string     `json:"status"`
	ErrorSummary  *string    `json:"error_summary,omitempty"`
	RetryCount    int        `json:"retry_count"`
}

// Topic is a selected subject. PrimaryKeyword is unique (case-insensitive).
type Topic struct {
	ID                 int64      `json:"id"`
	PrimaryKeyword     string     `json:"primary_keyword"`
	SupportingKeywords []string   `json:"supporting_keywords"`
	Status             string     `json:"status"`
	SelectedAt         time.Time  `json:"selected_at"`
	UsedAt             *time.Time `json:"used_at,omitempty"`
}

// Claimed reports whether the topic blocks re-selection.
func (t *Topic) Claimed() bool {
	return t != nil && (t.Status == TopicStatusSelected || t.Status == TopicStatusUsed)
}

// Post is one published blog article.
type Post struct {
	ID              int64     `json:"id"`
	TopicID         int64     `json:"topic_id"`
	ExternalPostID  string    `json:"external_post_id"`
	Title           string    `json:"title"`
	CanonicalURL    string    `json:"canonical_url"`
	MetaTitle       string    `json:"meta_title"`
	MetaDescription string    `json:"meta_description"`
	PublishedAt     time.Time `json:"published_at"`
	Status          string    `json:"status"`
}

// Asset is one generated image.
type Asset struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Provider   string    `json:"provider"`
	StorageURL string    `json:"storage_url"`
	Checksum   *string   `json:"checksum,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Pin is one social post.
type Pin struct {
	ID             int64     `json:"id"`
	PostID         int64     `json:"post_id"`
	PinterestPinID string    `json:"pinterest_pin_id"`
	ImageAssetID   int64     `json:"image_asset_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	DestinationURL string    `json:"destination_url"`
	PlatformURL    string    `json:"platform_url"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// LogEvent is one append-only audit entry.
type LogEvent struct {
	ID        int64     `json:"id"`
	RunID     int64     `json:"run_id"`
	Step      string    `json:"step"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
