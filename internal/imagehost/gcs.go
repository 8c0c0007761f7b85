// Package imagehost uploads pin images to Google Cloud Storage and returns
// their public URLs.
package imagehost

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/jonathan/pin-pipeline/internal/types"
)

// uploadTimeout bounds a single object write.
const uploadTimeout = 2 * time.Minute

// Hosted is an uploaded image.
type Hosted struct {
	URL      string
	Key      string
	Checksum string
}

// Options configures the GCS uploader.
type Options struct {
	Bucket          string
	Prefix          string
	PublicBaseURL   string // defaults to https://storage.googleapis.com/<bucket>
	CredentialsFile string
}

// writerFunc opens a writer for one object.
type writerFunc func(ctx context.Context, bucket, key, contentType string) io.WriteCloser

// GCS uploads images to a bucket.
type GCS struct {
	client    *storage.Client
	opts      Options
	newWriter writerFunc
	newKey    func() string
}

// NewGCS creates an uploader backed by a storage client.
func NewGCS(ctx context.Context, opts Options) (*GCS, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	clientOpts = append(clientOpts, option.WithScopes(storage.ScopeReadWrite))

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	g := newGCS(opts, func(ctx context.Context, bucket, key, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "public, max-age=31536000"
		return w
	})
	g.client = client
	return g, nil
}

func newGCS(opts Options, w writerFunc) *GCS {
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "https://storage.googleapis.com/" + opts.Bucket
	}
	return &GCS{
		opts:      opts,
		newWriter: w,
		newKey:    func() string { return uuid.New().String() },
	}
}

// Upload writes the image under <prefix><uuid><ext> and returns its public URL.
func (g *GCS) Upload(ctx context.Context, img types.Image) (*Hosted, error) {
	if img.Empty() {
		return nil, fmt.Errorf("image is empty")
	}
	key := g.opts.Prefix + g.newKey() + img.Extension()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := g.newWriter(ctx, g.opts.Bucket, key, img.MIMEType)
	if _, err := w.Write(img.Data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	sum := sha256.Sum256(img.Data)
	return &Hosted{
		URL:      g.PublicURL(key),
		Key:      key,
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// PublicURL returns the URL an object is served from.
func (g *GCS) PublicURL(key string) string {
	return strings.TrimRight(g.opts.PublicBaseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

// Close releases the storage client.
func (g *GCS) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
