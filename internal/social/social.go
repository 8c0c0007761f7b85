// Package social posts pins, either through the Ayrshare aggregator or
// directly to the Pinterest v5 API.
package social

import (
	"context"

	"github.com/jonathan/pin-pipeline/internal/types"
)

// Poster publishes one pin.
type Poster interface {
	Name() string
	Post(ctx context.Context, req types.PinRequest) (*types.PublishedPin, error)
}
