package tokens

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyq-platform/studyq/internal/metrics"
)

// lockStripes is the number of account mutexes per Ledger. Accounts hashing
// to the same stripe share a mutex; memory stays fixed however many users
// the process sees.
const lockStripes = 256

// Ledger is the only writer of token balances.
type Ledger struct {
	store Store
	now   func() time.Time

	// locks serializes same-account charges in this process so they queue up
	// instead of racing to the store.
	locks [lockStripes]sync.Mutex
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

func stripe(userID uuid.UUID) int {
	h := fnv.New32a()
	h.Write(userID[:])
	return int(h.Sum32() % lockStripes)
}

func (l *Ledger) lock(userID uuid.UUID) func() {
	mu := &l.locks[stripe(userID)]
	mu.Lock()
	return mu.Unlock
}

// Charge refreshes the account if due, then debits the cost of op when the
// balance covers it. An insufficient balance is reported in the result and
// leaves the balance untouched; only storage failures return an error.
func (l *Ledger) Charge(ctx context.Context, userID uuid.UUID, op Operation) (ChargeResult, error) {
	cost, err := Cost(op)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("charging %q: %w", op, err)
	}

	unlock := l.lock(userID)
	defer unlock()

	res := ChargeResult{Operation: op}
	_, err = l.store.Update(ctx, userID, func(a *Account) (bool, error) {
		refreshed := EnsureRefreshed(a, l.now())
		if a.Balance < cost {
			res.TokensRequired = cost
			res.TokensAvailable = a.Balance
			return refreshed, nil
		}
		a.Balance -= cost
		res.OK = true
		res.TokensCharged = cost
		res.TokensRemaining = a.Balance
		return true, nil
	})
	if err != nil {
		return ChargeResult{}, fmt.Errorf("charging %q: %w", op, err)
	}

	if !res.OK {
		metrics.ChargeRejectionsTotal.WithLabelValues(string(op)).Inc()
		slog.Info("insufficient tokens",
			"user_id", userID,
			"operation", op,
			"required", res.TokensRequired,
			"available", res.TokensAvailable,
		)
		return res, nil
	}

	metrics.TokensChargedTotal.WithLabelValues(string(op)).Add(float64(cost))
	return res, nil
}

// Balance returns the account as it stands after any due refill.
func (l *Ledger) Balance(ctx context.Context, userID uuid.UUID) (*Account, error) {
	unlock := l.lock(userID)
	defer unlock()

	return l.store.Update(ctx, userID, func(a *Account) (bool, error) {
		return EnsureRefreshed(a, l.now()), nil
	})
}

// Refresh applies the refill rule to one account and reports whether it refilled.
func (l *Ledger) Refresh(ctx context.Context, userID uuid.UUID) (bool, error) {
	unlock := l.lock(userID)
	defer unlock()

	var refreshed bool
	_, err := l.store.Update(ctx, userID, func(a *Account) (bool, error) {
		refreshed = EnsureRefreshed(a, l.now())
		return refreshed, nil
	})
	if err != nil {
		return false, fmt.Errorf("refreshing account: %w", err)
	}
	return refreshed, nil
}
