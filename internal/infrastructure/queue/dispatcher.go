package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/api/metrics"
	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	notifyTimeout  = 5 * time.Second
)

// Dispatcher routes consultation events to a fixed set of workers using
// consistent hashing on the doctor email, so each doctor receives events in
// the order they were published.
type Dispatcher struct {
	workers  []chan domain.ConsultationEvent
	notifier ports.Notifier
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.ConsultationEvent, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ConsultationEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Publish hands an event to the worker responsible for its doctor. It never
// blocks the request path: when that worker's queue is full the event is
// dropped and counted.
func (d *Dispatcher) Publish(event domain.ConsultationEvent) {
	idx := d.shardIndex(event.DoctorEmail)
	select {
	case d.workers[idx] <- event:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsDroppedTotal.Inc()
		d.log.Warn().
			Str("kind", string(event.Kind)).
			Str("doctor_email", event.DoctorEmail).
			Int("worker_id", idx).
			Msg("notification queue full, event dropped")
	}
}

// shardIndex maps a doctor email deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ConsultationEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			metrics.NotificationsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, event domain.ConsultationEvent) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	start := time.Now()
	err := d.notifier.Notify(ctx, event)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		d.log.Error().Err(err).
			Str("kind", string(event.Kind)).
			Str("consultation_id", event.ConsultationID).
			Int("worker_id", id).
			Msg("notification delivery failed")
	}
	metrics.NotificationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
