package tokens

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists token accounts.
//
// Update loads the account, passes it to fn and writes it back when fn
// returns true. Implementations must make the load-modify-write atomic for a
// given account; the returned account reflects fn's changes.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*Account, error)
	Update(ctx context.Context, userID uuid.UUID, fn func(*Account) (bool, error)) (*Account, error)
	// ListStale returns up to limit user IDs greater than after, ordered by ID,
	// whose last refresh is at or before cutoff.
	ListStale(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// MemoryStore is an in-process Store for tests and the CLI dry runs.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]Account
}

func NewMemoryStore(accounts ...Account) *MemoryStore {
	s := &MemoryStore{accounts: make(map[uuid.UUID]Account, len(accounts))}
	for _, a := range accounts {
		s.accounts[a.UserID] = a
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func (s *MemoryStore) Update(_ context.Context, userID uuid.UUID, fn func(*Account) (bool, error)) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	changed, err := fn(&a)
	if err != nil {
		return nil, err
	}
	if changed {
		s.accounts[userID] = a
	}
	return &a, nil
}

func (s *MemoryStore) ListStale(_ context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, a := range s.accounts {
		if !a.LastRefreshedAt.After(cutoff) && compareIDs(id, after) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return compareIDs(ids[i], ids[j]) < 0 })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
