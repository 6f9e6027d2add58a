package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// PositionSource wraps the host's positioning capability.
type PositionSource interface {
	// Supported reports whether the host can produce positions at all.
	Supported() bool
	// Watch delivers samples to onSample, in production order, until stop is
	// called. A failure is reported once through onError, after which no more
	// samples are delivered. stop is idempotent and safe to call from inside
	// either callback.
	Watch(opts domain.WatchOptions, onSample func(domain.PositionSample), onError func(error)) (stop func(), err error)
	// Current resolves a single sample.
	Current(ctx context.Context, opts domain.WatchOptions) (domain.PositionSample, error)
}
