package db

import (
	"context"
	"fmt"
)

// PostInput holds the fields of a new post.
type PostInput struct {
	TopicID         int64
	ExternalPostID  string
	Title           string
	CanonicalURL    string
	MetaTitle       string
	MetaDescription string
}

// CreatePost records a published article.
func (db *DB) CreatePost(ctx context.Context, in PostInput) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO posts (topic_id, external_post_id, title, canonical_url, meta_title, meta_description, published_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7)
		 RETURNING id`,
		in.TopicID, in.ExternalPostID, in.Title, in.CanonicalURL, in.MetaTitle, in.MetaDescription, PostStatusPublished,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}
	return id, nil
}

// AssetInput holds the fields of a new asset.
type AssetInput struct {
	Type       string
	Provider   string
	StorageURL string
	Checksum   *string
}

// CreateAsset records a generated image.
func (db *DB) CreateAsset(ctx context.Context, in AssetInput) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO assets (type, provider, storage_url, checksum, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id`,
		in.Type, in.Provider, in.StorageURL, in.Checksum,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create asset: %w", err)
	}
	return id, nil
}

// PinInput holds the fields of a new pin.
type PinInput struct {
	PostID         int64
	PinterestPinID string
	ImageAssetID   int64
	Title          string
	Description    string
	DestinationURL string
	PlatformURL    string
}

// CreatePin records a social post.
func (db *DB) CreatePin(ctx context.Context, in PinInput) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pins (post_id, pinterest_pin_id, image_asset_id, title, description, destination_url, platform_url, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id`,
		in.PostID, in.PinterestPinID, in.ImageAssetID, in.Title, in.Description, in.DestinationURL, in.PlatformURL, PinStatusPublished,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create pin: %w", err)
	}
	return id, nil
}
