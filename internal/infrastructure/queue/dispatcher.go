package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/authentiscan/identity-service/internal/api/metrics"
	"github.com/authentiscan/identity-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	maxSendRetries = 3
	retryBase      = 500 * time.Millisecond
)

// Dispatcher delivers outbound mail on a fixed set of workers, sharded by
// recipient so messages to the same address keep their order. Delivery is
// best effort: a message that still fails after retries is logged and
// dropped, never reported back to the operation that enqueued it.
type Dispatcher struct {
	workers []chan ports.OutboundMail
	sender  ports.Notifier
	dedup   ports.MailDeduper
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. dedup may be nil, in which
// case every enqueued message is sent.
func NewDispatcher(numWorkers int, sender ports.Notifier, dedup ports.MailDeduper, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.OutboundMail, numWorkers),
		sender:  sender,
		dedup:   dedup,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.OutboundMail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its recipient.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(m ports.OutboundMail) {
	i := d.shardIndex(m.To)
	d.workers[i] <- m
	metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.OutboundMail) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			d.deliver(ctx, m)
			metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, m ports.OutboundMail) {
	if d.dedup != nil {
		dup, err := d.dedup.AlreadySent(ctx, m)
		if err != nil {
			// Dedup is an optimisation; on error fall through and send.
			d.log.Warn().Err(err).Str("kind", m.Kind).Msg("mail dedup check failed")
		} else if dup {
			metrics.MailSentTotal.WithLabelValues(m.Kind, "duplicate").Inc()
			return
		}
	}

	backoff := retry.WithMaxRetries(maxSendRetries, retry.NewExponential(retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.sender.Send(ctx, m); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.MailSentTotal.WithLabelValues(m.Kind, "error").Inc()
		d.log.Error().Err(err).
			Str("kind", m.Kind).
			Str("recipient", m.To).
			Msg("mail delivery failed")
		return
	}

	metrics.MailSentTotal.WithLabelValues(m.Kind, "ok").Inc()
	if d.dedup != nil {
		if err := d.dedup.MarkSent(ctx, m); err != nil {
			d.log.Warn().Err(err).Str("kind", m.Kind).Msg("mail dedup mark failed")
		}
	}
}
