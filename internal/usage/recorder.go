package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	inats "github.com/studyq-platform/studyq/internal/nats"
)

// Recorder persists usage records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

type publisher interface {
	Publish(ctx context.Context, subject string, data any) error
}

// PublishingRecorder hands records to JetStream; Consumer writes them to the database.
type PublishingRecorder struct {
	pub publisher
}

func NewPublishingRecorder(pub publisher) *PublishingRecorder {
	return &PublishingRecorder{pub: pub}
}

// Record assigns the ID and timestamp before publishing so the consumer's
// insert is idempotent across redeliveries.
func (p *PublishingRecorder) Record(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return p.pub.Publish(ctx, inats.SubjectUsageRecorded, rec)
}
