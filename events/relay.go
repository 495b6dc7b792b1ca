package events

import (
	"context"
	"go-ledger-api/logger"
	"go-ledger-api/metrics"
	"go-ledger-api/model"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultRelayInterval = 5 * time.Second
	defaultBatchSize     = 100
)

// Outbox is the part of the ledger the relay reads from and stamps.
type Outbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]*model.Transaction, error)
	MarkPublished(ctx context.Context, ids []int64, at time.Time) error
}

// Relay periodically publishes COMPLETED entries that have not been published
// yet. An entry is stamped only after the broker accepted it, so delivery is at
// least once.
type Relay struct {
	outbox    Outbox
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewRelay(outbox Outbox, publisher Publisher, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = defaultRelayInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run flushes on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	logger.Log.WithField("interval", r.interval).Info("Event relay started")
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Event relay stopped")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Error("Event relay flush failed")
			}
		}
	}
}

// Flush publishes pending events in batches until none are left and returns
// how many were published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	published := 0
	for {
		batch, err := r.outbox.ListUnpublished(ctx, r.batchSize)
		if err != nil {
			return published, err
		}
		if len(batch) == 0 {
			return published, nil
		}

		events := make([]model.TransactionCompleted, 0, len(batch))
		ids := make([]int64, 0, len(batch))
		for _, t := range batch {
			events = append(events, model.NewTransactionCompleted(t))
			ids = append(ids, t.ID)
		}

		if err := r.publisher.Publish(ctx, events...); err != nil {
			metrics.EventsFailed.Add(float64(len(events)))
			return published, err
		}
		if err := r.outbox.MarkPublished(ctx, ids, r.now()); err != nil {
			return published, err
		}
		metrics.EventsPublished.Add(float64(len(events)))
		published += len(events)
		logger.Log.WithFields(logrus.Fields{
			"count":    len(events),
			"first_id": ids[0],
		}).Debug("Published transaction events")

		if len(batch) < r.batchSize {
			return published, nil
		}
	}
}
