package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
	"github.com/99minutos/backoffice-api/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Options tunes a Dispatcher. Zero values select the defaults.
type Options struct {
	Workers int
	// RatePerSecond caps outbound sends across all workers; <= 0 disables the cap.
	RatePerSecond float64
	Buffer        int
}

// Dispatcher delivers notifications on a fixed set of workers, sharded by
// phone number so messages to one recipient keep their order. Notify never
// blocks: when a shard's buffer is full the notification is dropped.
type Dispatcher struct {
	workers []chan domain.Notification
	sender  ports.NotificationSender
	dedup   ports.NotificationDedup
	limiter *rate.Limiter
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A nil dedup disables deduplication.
func NewDispatcher(opts Options, sender ports.NotificationSender, dedup ports.NotificationDedup, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = channelBuffer
	}
	limit := rate.Inf
	burst := 0
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = max(1, int(opts.RatePerSecond))
	}

	d := &Dispatcher{
		workers: make([]chan domain.Notification, opts.Workers),
		sender:  sender,
		dedup:   dedup,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, opts.Buffer)
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
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify queues n for delivery. It satisfies ports.Notifier.
func (d *Dispatcher) Notify(n domain.Notification) {
	if n.Phone == "" {
		return
	}
	idx := d.shardIndex(n.Phone)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsTotal.WithLabelValues(string(n.Event), "dropped").Inc()
		d.log.Warn().
			Str("event", string(n.Event)).
			Str("entity_id", n.EntityID).
			Int("worker_id", idx).
			Msg("notification queue full, dropping")
	}
}

// shardIndex maps a phone number deterministically to a worker index.
func (d *Dispatcher) shardIndex(phone string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(phone))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, n)
		}
	}
}

// deliver sends one notification. Failures are logged and never retried.
func (d *Dispatcher) deliver(ctx context.Context, worker int, n domain.Notification) {
	log := d.log.With().
		Str("event", string(n.Event)).
		Str("entity_id", n.EntityID).
		Int("worker_id", worker).
		Logger()

	if d.dedup != nil {
		first, err := d.dedup.Claim(ctx, n)
		if err != nil {
			log.Warn().Err(err).Msg("dedup unavailable, sending anyway")
		} else if !first {
			metrics.NotificationsTotal.WithLabelValues(string(n.Event), "duplicate").Inc()
			log.Debug().Msg("duplicate notification suppressed")
			return
		}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	if err := d.sender.Send(ctx, n.Phone, n.Message); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Event), "failed").Inc()
		log.Error().Err(err).Msg("notification delivery failed")
		if d.dedup != nil {
			if relErr := d.dedup.Release(ctx, n); relErr != nil {
				log.Warn().Err(relErr).Msg("dedup release failed")
			}
		}
		return
	}

	metrics.NotificationsTotal.WithLabelValues(string(n.Event), "sent").Inc()
	log.Info().Msg("notification sent")
}
