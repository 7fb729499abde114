package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	inats "github.com/studyq-platform/studyq/internal/nats"
)

const (
	consumerName     = "usage-persister"
	defaultRetryWait = time.Second
)

type inserter interface {
	Insert(ctx context.Context, rec *Record) error
}

type fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// Consumer listens on the usage subject and persists records to the database.
type Consumer struct {
	repo        inserter
	consumerMgr *inats.ConsumerManager
	// retryWait is the pause after a failed fetch. A closed connection fails
	// every fetch immediately.
	retryWait time.Duration
}

// NewConsumer creates a new usage Consumer.
func NewConsumer(repo inserter, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		repo:        repo,
		consumerMgr: consumerMgr,
		retryWait:   defaultRetryWait,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, consumerName, inats.SubjectUsageRecorded)
	if err != nil {
		return err
	}

	slog.Info("usage consumer started", "consumer", consumerName)
	c.consume(ctx, consumer)
	return nil
}

// consume fetches and handles batches until ctx is cancelled.
func (c *Consumer) consume(ctx context.Context, f fetcher) {
	for ctx.Err() == nil {
		msgs, err := f.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			slog.Debug("usage consumer: fetching records", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.retryWait):
			}
			continue
		}

		for msg := range msgs.Messages() {
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg jetstream.Msg) {
	rec, err := decodeRecord(msg.Data())
	if err != nil {
		// A malformed record will never decode; drop it rather than redeliver.
		slog.Error("usage consumer: decoding record", "error", err)
		_ = msg.Term()
		return
	}

	if err := c.repo.Insert(ctx, rec); err != nil {
		slog.Error("usage consumer: persisting record", "error", err, "record_id", rec.ID)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()
	slog.Debug("usage consumer: persisted record", "record_id", rec.ID, "user_id", rec.UserID)
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling usage record: %w", err)
	}
	if rec.UserID == uuid.Nil {
		return nil, fmt.Errorf("usage record %s has no user", rec.ID)
	}
	return &rec, nil
}
