package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/api/metrics"
	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes relayed location events to a fixed set of workers using
// consistent hashing on the delivery id, guaranteeing per-delivery ordering.
type Dispatcher struct {
	workers []chan ports.RelayedLocation
	service ports.LocationService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.LocationService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.RelayedLocation, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.RelayedLocation, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its delivery id. It
// never blocks: when that worker's buffer is full the event is dropped and
// Enqueue returns false.
func (d *Dispatcher) Enqueue(in ports.RelayedLocation) bool {
	idx := d.shardIndex(in.Event.DeliveryID)
	select {
	case d.workers[idx] <- in:
	default:
		return false
	}
	metrics.LocationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	return true
}

// shardIndex maps a delivery id deterministically to a worker index.
func (d *Dispatcher) shardIndex(deliveryID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deliveryID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.RelayedLocation) {
	depth := metrics.LocationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))

			start := time.Now()
			err := d.service.Process(ctx, in)
			metrics.LocationProcessingDuration.Observe(time.Since(start).Seconds())

			switch {
			case err == nil:
				metrics.LocationEventsTotal.WithLabelValues("recorded").Inc()
			case errors.Is(err, domain.ErrStaleLocation):
				metrics.LocationEventsTotal.WithLabelValues("stale").Inc()
			default:
				metrics.LocationEventsTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("delivery_id", in.Event.DeliveryID).
					Int("worker_id", id).
					Msg("location processing failed")
			}
		}
	}
}
