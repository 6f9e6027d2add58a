package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

const (
	// DefaultMinMove is the distance the counterparty has to move before the
	// route is queried again.
	DefaultMinMove = 10.0
	routeTimeout   = 10 * time.Second
)

// ViewState is what a tracking screen renders for one delivery.
type ViewState struct {
	Version         uint64
	DeliveryID      string
	Pickup          domain.Coordinates
	Dropoff         domain.Coordinates
	Current         *domain.Coordinates
	LocationAt      time.Time
	Status          domain.OrderStatus
	StatusAt        time.Time
	Route           []domain.Coordinates
	DistanceKm      float64
	DurationMinutes int
	// RouteErr is a *domain.RouteUnavailableError when the last route query failed.
	RouteErr error
}

// TrackingView projects location and status events of one delivery into a
// ViewState. Events for other deliveries and events older than the latest
// one seen are discarded.
type TrackingView struct {
	routes  ports.RouteProvider
	minMove float64
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       ViewState
	routeSeq    uint64
	routeOrigin *domain.Coordinates
	observers   []func(ViewState)
	closed      bool

	notifyMu     sync.Mutex
	lastNotified uint64
}

// NewTrackingView builds a view for order. minMove <= 0 selects DefaultMinMove.
func NewTrackingView(order *domain.Order, routes ports.RouteProvider, minMove float64, log zerolog.Logger) *TrackingView {
	if minMove <= 0 {
		minMove = DefaultMinMove
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TrackingView{
		routes:  routes,
		minMove: minMove,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		state: ViewState{
			DeliveryID: order.ID,
			Pickup:     order.PickupLocation,
			Dropoff:    order.DeliveryLocation,
			Status:     order.Status,
		},
	}
}

// Bind registers the view's handlers on sub and queries the initial route
// from the pickup point.
func (v *TrackingView) Bind(sub ports.EventSubscriber) {
	sub.OnLocationReceived(v.HandleLocation)
	sub.OnStatusReceived(v.HandleStatus)

	v.mu.Lock()
	if v.routeOrigin == nil && !v.closed {
		v.requestRouteLocked(v.state.Pickup)
	}
	v.mu.Unlock()
}

// Subscribe registers fn to receive every new state.
func (v *TrackingView) Subscribe(fn func(ViewState)) {
	v.mu.Lock()
	v.observers = append(v.observers, fn)
	v.mu.Unlock()
}

// State returns a snapshot of the current state.
func (v *TrackingView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// HandleLocation applies a counterparty location event.
func (v *TrackingView) HandleLocation(ev domain.LocationEvent) {
	v.mu.Lock()
	if v.closed || ev.DeliveryID != v.state.DeliveryID {
		v.mu.Unlock()
		return
	}
	if ev.Timestamp.Before(v.state.LocationAt) {
		v.mu.Unlock()
		v.log.Debug().Str("delivery_id", ev.DeliveryID).Time("timestamp", ev.Timestamp).Msg("stale location dropped")
		return
	}

	loc := ev.Location
	v.state.Current = &loc
	v.state.LocationAt = ev.Timestamp
	if v.routeOrigin == nil || domain.DistanceMeters(*v.routeOrigin, loc) >= v.minMove {
		v.requestRouteLocked(loc)
	}
	snap, obs := v.changedLocked()
	v.mu.Unlock()

	v.notify(snap, obs)
}

// HandleStatus applies a status event. Only the status changes.
func (v *TrackingView) HandleStatus(ev domain.StatusEvent) {
	v.mu.Lock()
	if v.closed || ev.DeliveryID != v.state.DeliveryID {
		v.mu.Unlock()
		return
	}
	if ev.Timestamp.Before(v.state.StatusAt) {
		v.mu.Unlock()
		v.log.Debug().Str("delivery_id", ev.DeliveryID).Str("status", string(ev.Status)).Msg("stale status dropped")
		return
	}

	v.state.Status = ev.Status
	v.state.StatusAt = ev.Timestamp
	snap, obs := v.changedLocked()
	v.mu.Unlock()

	v.notify(snap, obs)
}

// Close cancels pending route queries and waits for them to finish.
func (v *TrackingView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
	v.wg.Wait()
}

func (v *TrackingView) requestRouteLocked(origin domain.Coordinates) {
	v.routeSeq++
	v.routeOrigin = &origin
	seq := v.routeSeq
	dropoff := v.state.Dropoff

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.resolveRoute(seq, origin, dropoff)
	}()
}

func (v *TrackingView) resolveRoute(seq uint64, from, to domain.Coordinates) {
	ctx, cancel := context.WithTimeout(v.ctx, routeTimeout)
	defer cancel()

	route, err := v.routes.Route(ctx, from, to)

	v.mu.Lock()
	if v.closed || seq != v.routeSeq {
		v.mu.Unlock()
		return
	}
	if err != nil {
		var rue *domain.RouteUnavailableError
		if !errors.As(err, &rue) {
			err = &domain.RouteUnavailableError{Err: err}
		}
		v.state.RouteErr = err
		v.log.Warn().Err(err).Str("delivery_id", v.state.DeliveryID).Msg("route unavailable")
	} else {
		v.state.Route = route.Geometry
		v.state.DistanceKm = math.Round(route.DistanceKm*100) / 100
		v.state.DurationMinutes = route.DurationMinutes
		v.state.RouteErr = nil
	}
	snap, obs := v.changedLocked()
	v.mu.Unlock()

	v.notify(snap, obs)
}

func (v *TrackingView) changedLocked() (ViewState, []func(ViewState)) {
	v.state.Version++
	obs := make([]func(ViewState), len(v.observers))
	copy(obs, v.observers)
	return v.snapshotLocked(), obs
}

func (v *TrackingView) snapshotLocked() ViewState {
	snap := deepcopy.Copy(v.state).(ViewState)
	// errors may carry unexported state that a deep copy would drop
	snap.RouteErr = v.state.RouteErr
	return snap
}

// notify delivers snap unless a newer state was already delivered.
func (v *TrackingView) notify(snap ViewState, obs []func(ViewState)) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	if snap.Version <= v.lastNotified {
		return
	}
	v.lastNotified = snap.Version
	for _, fn := range obs {
		fn(snap)
	}
}
