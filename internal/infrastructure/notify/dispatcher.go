package notify

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
)

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the recipient, so one user's notifications are delivered in
// order. Hire handlers enqueue and return; workers do the delivery.
type Dispatcher struct {
	workers  []chan domain.Notification
	notifier ports.Notifier
	log      zerolog.Logger
}

var _ ports.NotificationSink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// with a channel of the given buffer size. Non-positive values fall back to
// the defaults.
func NewDispatcher(numWorkers, buffer int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Notification, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands n to the worker responsible for its recipient. It never
// blocks: when that worker's channel is full the notification is dropped and
// false is returned.
func (d *Dispatcher) Enqueue(n domain.Notification) bool {
	idx := d.shardIndex(n.RecipientID)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		return false
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipientID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-ch:
			metrics.NotificationQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			outcome := d.notifier.NotifyHired(ctx, n)
			d.log.Debug().
				Str("recipient_id", n.RecipientID).
				Str("outcome", string(outcome)).
				Int("worker_id", id).
				Msg("notification processed")
		}
	}
}
