// Package geolocation provides position sources for hosts without a
// positioning device: a random walk and a recorded track replay.
package geolocation

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

const (
	// DefaultStep is the largest per-axis move of the random walk, in degrees.
	DefaultStep     = 0.0005
	defaultInterval = 3 * time.Second
	simAccuracy     = 5.0
)

// DefaultStart is downtown San Francisco.
var DefaultStart = domain.Coordinates{Lat: 37.7749, Lng: -122.4194}

// Simulated walks randomly around a start point, one sample per interval.
type Simulated struct {
	interval time.Duration
	step     float64
	now      func() time.Time

	mu   sync.Mutex
	rng  *rand.Rand
	pos  domain.Coordinates
	last *domain.PositionSample
}

func NewSimulated(start domain.Coordinates, interval time.Duration) *Simulated {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Simulated{
		interval: interval,
		step:     DefaultStep,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		pos:      start,
	}
}

func (s *Simulated) Supported() bool { return true }

// Watch emits the current position right away and then a moved one every
// interval. An interval longer than opts.Timeout fails with a timeout.
func (s *Simulated) Watch(opts domain.WatchOptions, onSample func(domain.PositionSample), onError func(error)) (func(), error) {
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		if opts.Timeout > 0 && s.interval > opts.Timeout {
			select {
			case <-done:
			case <-time.After(opts.Timeout):
				onError(&domain.PositioningError{Reason: domain.ReasonTimeout, Message: "no position within " + opts.Timeout.String()})
			}
			return
		}

		onSample(s.sample(false))
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				onSample(s.sample(true))
			}
		}
	}()

	return stop, nil
}

// Current returns the last sample when it is younger than opts.MaximumAge.
func (s *Simulated) Current(ctx context.Context, opts domain.WatchOptions) (domain.PositionSample, error) {
	if err := ctx.Err(); err != nil {
		return domain.PositionSample{}, &domain.PositioningError{Reason: domain.ReasonTimeout, Message: err.Error()}
	}

	s.mu.Lock()
	if s.last != nil && s.now().Sub(s.last.CapturedAt) <= opts.MaximumAge {
		cached := *s.last
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	return s.sample(false), nil
}

func (s *Simulated) sample(move bool) domain.PositionSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	if move {
		s.pos.Lat += (s.rng.Float64() - 0.5) * 2 * s.step
		s.pos.Lng += (s.rng.Float64() - 0.5) * 2 * s.step
	}
	acc := simAccuracy
	sample := domain.PositionSample{
		Latitude:       s.pos.Lat,
		Longitude:      s.pos.Lng,
		AccuracyMeters: &acc,
		CapturedAt:     s.now(),
	}
	s.last = &sample
	return sample
}

// None is the source of a host without positioning.
type None struct{}

func (None) Supported() bool { return false }

func (None) Watch(domain.WatchOptions, func(domain.PositionSample), func(error)) (func(), error) {
	return nil, domain.ErrUnsupported
}

func (None) Current(context.Context, domain.WatchOptions) (domain.PositionSample, error) {
	return domain.PositionSample{}, domain.ErrUnsupported
}
