package tokens

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studyq-platform/studyq/internal/metrics"
)

const sweepBatchSize = 500

// Sweeper refills dormant accounts on a schedule. It goes through the same
// Ledger.Refresh used by live traffic, one account at a time, so it never
// blocks requests for other accounts and is safe to overlap with them.
type Sweeper struct {
	ledger   *Ledger
	store    Store
	interval time.Duration
}

func NewSweeper(ledger *Ledger, store Store, interval time.Duration) *Sweeper {
	return &Sweeper{ledger: ledger, store: store, interval: interval}
}

// Start launches the sweep loop in a background goroutine. A non-positive
// interval leaves the sweep to an external scheduler.
func (s *Sweeper) Start(ctx context.Context) {
	if s == nil || s.interval <= 0 {
		return
	}
	go s.run(ctx)
	slog.Info("token sweeper started", "interval", s.interval)
}

func (s *Sweeper) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.RunOnce(ctx); err != nil {
			slog.Warn("token sweep failed", "error", err)
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunOnce refills every account whose last refresh is a full interval old and
// returns how many were refilled. Per-account failures are logged and skipped.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := s.ledger.now().Add(-RefillInterval)
	refilled := 0
	after := uuid.Nil

	for {
		if err := ctx.Err(); err != nil {
			return refilled, err
		}

		ids, err := s.store.ListStale(ctx, cutoff, after, sweepBatchSize)
		if err != nil {
			return refilled, err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			ok, err := s.ledger.Refresh(ctx, id)
			if err != nil {
				slog.Warn("token sweep: refresh failed", "user_id", id, "error", err)
				continue
			}
			if ok {
				refilled++
				metrics.SweepRefillsTotal.Inc()
			}
		}
		after = ids[len(ids)-1]
	}

	if refilled > 0 {
		slog.Info("token sweep completed", "refilled", refilled, "cutoff", cutoff.Format(time.RFC3339))
	}
	return refilled, nil
}
