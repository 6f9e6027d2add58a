package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

var (
	watchOptions = domain.WatchOptions{HighAccuracy: true, Timeout: 10 * time.Second, MaximumAge: 3 * time.Second}
	fixOptions   = domain.WatchOptions{HighAccuracy: true, Timeout: 10 * time.Second, MaximumAge: 60 * time.Second}
)

// Tracker owns the location sharing session of a single device. At most one
// session is active at a time.
type Tracker struct {
	source    ports.PositionSource
	publisher ports.LocationPublisher
	log       zerolog.Logger
	now       func() time.Time

	mu         sync.Mutex
	generation uint64
	active     bool
	deliveryID string
	stopWatch  func()
	current    *domain.PositionSample
	lastErr    error
}

func NewTracker(source ports.PositionSource, publisher ports.LocationPublisher, log zerolog.Logger) *Tracker {
	return &Tracker{
		source:    source,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Start begins continuous tracking. Every sample is published for deliveryID
// unless deliveryID is empty. An active session is stopped first.
func (t *Tracker) Start(deliveryID string) error {
	if !t.source.Supported() {
		return domain.ErrUnsupported
	}
	t.Stop()

	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.active = true
	t.deliveryID = deliveryID
	t.lastErr = nil
	t.mu.Unlock()

	stop, err := t.source.Watch(watchOptions,
		func(s domain.PositionSample) { t.handleSample(gen, s) },
		func(err error) { t.handleError(gen, err) },
	)
	if err != nil {
		t.mu.Lock()
		if t.generation == gen {
			t.active = false
			t.deliveryID = ""
			t.lastErr = err
		}
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	if t.generation != gen || !t.active {
		// stopped or failed while the watch was being set up
		t.mu.Unlock()
		stop()
		return nil
	}
	t.stopWatch = stop
	t.mu.Unlock()

	t.log.Info().Str("delivery_id", deliveryID).Msg("tracking started")
	return nil
}

// Stop ends the active session. It is a no-op when nothing is active.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	deliveryID := t.deliveryID
	stop := t.endLocked()
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	t.log.Info().Str("delivery_id", deliveryID).Msg("tracking stopped")
}

// endLocked clears the session and invalidates outstanding callbacks. The
// returned stop func must be called after t.mu is released.
func (t *Tracker) endLocked() func() {
	stop := t.stopWatch
	t.stopWatch = nil
	t.active = false
	t.deliveryID = ""
	t.generation++
	return stop
}

// CurrentLocation resolves a single position independent of the session.
func (t *Tracker) CurrentLocation(ctx context.Context) (domain.PositionSample, error) {
	if !t.source.Supported() {
		return domain.PositionSample{}, domain.ErrUnsupported
	}
	s, err := t.source.Current(ctx, fixOptions)
	if err != nil {
		return domain.PositionSample{}, err
	}
	s.CapturedAt = t.now()
	return s, nil
}

// Session returns a snapshot of the session state.
func (t *Tracker) Session() domain.TrackingSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.TrackingSession{DeliveryID: t.deliveryID, Active: t.active, LastError: t.lastErr}
}

// Location returns the latest sample seen by the session, if any.
func (t *Tracker) Location() (domain.PositionSample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return domain.PositionSample{}, false
	}
	return *t.current, true
}

func (t *Tracker) handleSample(gen uint64, s domain.PositionSample) {
	t.mu.Lock()
	if gen != t.generation || !t.active {
		t.mu.Unlock()
		return
	}
	s.CapturedAt = t.now()
	t.current = &s
	deliveryID := t.deliveryID
	t.mu.Unlock()

	if deliveryID == "" {
		return
	}
	if err := t.publisher.PublishLocation(deliveryID, s.Coordinates()); err != nil {
		t.log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("failed to publish location")
	}
}

func (t *Tracker) handleError(gen uint64, err error) {
	t.mu.Lock()
	if gen != t.generation || !t.active {
		t.mu.Unlock()
		return
	}
	t.lastErr = err
	deliveryID := t.deliveryID
	stop := t.endLocked()
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	t.log.Error().Err(err).Str("delivery_id", deliveryID).Msg("tracking stopped on positioning error")
}
