package geolocation

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// minLoopGap separates the passes of a looping track that spans no time.
const minLoopGap = time.Second

// TrackPoint is one recorded fix. Offset is relative to the start of the track.
type TrackPoint struct {
	Lat      float64       `yaml:"lat"`
	Lng      float64       `yaml:"lng"`
	Offset   time.Duration `yaml:"offset"`
	Accuracy *float64      `yaml:"accuracy,omitempty"`
}

// Track is a recorded route, usually loaded from a YAML file.
type Track struct {
	Name   string       `yaml:"name"`
	Loop   bool         `yaml:"loop"`
	Points []TrackPoint `yaml:"points"`
}

// LoadTrack reads and validates a YAML track file.
func LoadTrack(path string) (*Track, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track: %w", err)
	}
	return ParseTrack(raw)
}

// ParseTrack decodes a YAML track. Offsets must not decrease, and a looping
// track must span some time.
func ParseTrack(raw []byte) (*Track, error) {
	var t Track
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse track: %w", err)
	}
	if len(t.Points) == 0 {
		return nil, fmt.Errorf("parse track: no points")
	}
	for i, p := range t.Points {
		if !(domain.Coordinates{Lat: p.Lat, Lng: p.Lng}).Valid() {
			return nil, fmt.Errorf("parse track: point %d: %w", i, domain.ErrInvalidLocation)
		}
		if i > 0 && p.Offset < t.Points[i-1].Offset {
			return nil, fmt.Errorf("parse track: point %d: offset goes back in time", i)
		}
	}
	if t.Loop && t.span() == 0 {
		return nil, fmt.Errorf("parse track: looping track needs point offsets")
	}
	return &t, nil
}

func (t *Track) span() time.Duration {
	return t.Points[len(t.Points)-1].Offset
}

// Replay plays a Track as a position source.
type Replay struct {
	track *Track
	now   func() time.Time

	mu   sync.Mutex
	last *domain.PositionSample
}

func NewReplay(track *Track) *Replay {
	return &Replay{track: track, now: time.Now}
}

func (r *Replay) Supported() bool { return true }

// Watch plays the track from the start. A gap between points longer than
// opts.Timeout fails with a timeout; the end of a non-looping track fails
// with position unavailable.
func (r *Replay) Watch(opts domain.WatchOptions, onSample func(domain.PositionSample), onError func(error)) (func(), error) {
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		for {
			var prev time.Duration
			for _, p := range r.track.Points {
				gap := p.Offset - prev
				prev = p.Offset
				if opts.Timeout > 0 && gap > opts.Timeout {
					if wait(done, opts.Timeout) {
						onError(&domain.PositioningError{Reason: domain.ReasonTimeout, Message: "no position within " + opts.Timeout.String()})
					}
					return
				}
				if !wait(done, gap) {
					return
				}
				onSample(r.record(p))
			}
			if !r.track.Loop {
				if wait(done, 0) {
					onError(&domain.PositioningError{Reason: domain.ReasonPositionUnavailable, Message: "track " + r.track.Name + " finished"})
				}
				return
			}
			if r.track.span() == 0 && !wait(done, minLoopGap) {
				return
			}
		}
	}()

	return stop, nil
}

// Current returns the last played sample when it is younger than
// opts.MaximumAge, otherwise the first point of the track.
func (r *Replay) Current(ctx context.Context, opts domain.WatchOptions) (domain.PositionSample, error) {
	if err := ctx.Err(); err != nil {
		return domain.PositionSample{}, &domain.PositioningError{Reason: domain.ReasonTimeout, Message: err.Error()}
	}

	r.mu.Lock()
	if r.last != nil && r.now().Sub(r.last.CapturedAt) <= opts.MaximumAge {
		cached := *r.last
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	return r.record(r.track.Points[0]), nil
}

func (r *Replay) record(p TrackPoint) domain.PositionSample {
	s := domain.PositionSample{
		Latitude:       p.Lat,
		Longitude:      p.Lng,
		AccuracyMeters: p.Accuracy,
		CapturedAt:     r.now(),
	}
	r.mu.Lock()
	r.last = &s
	r.mu.Unlock()
	return s
}

// wait sleeps for d and reports false when done was closed first.
func wait(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-done:
		return false
	case <-t.C:
		return true
	}
}
