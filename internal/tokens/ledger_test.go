package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyq-platform/studyq/internal/query"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestLedger(accounts ...Account) (*Ledger, *MemoryStore) {
	store := NewMemoryStore(accounts...)
	l := NewLedger(store)
	l.now = func() time.Time { return testNow }
	return l, store
}

func freshAccount(balance int) Account {
	return Account{UserID: uuid.New(), Tier: TierFree, Balance: balance, LastRefreshedAt: testNow.Add(-time.Hour)}
}

func TestEnsureRefreshed(t *testing.T) {
	t.Run("eight days stale free account refills to quota", func(t *testing.T) {
		a := Account{Tier: TierFree, Balance: 0, LastRefreshedAt: testNow.Add(-8 * 24 * time.Hour)}

		assert.True(t, EnsureRefreshed(&a, testNow))
		assert.Equal(t, 15, a.Balance)
		assert.Equal(t, testNow, a.LastRefreshedAt)
	})

	t.Run("premium tier refills to premium quota", func(t *testing.T) {
		a := Account{Tier: TierPremium, Balance: 3, LastRefreshedAt: testNow.Add(-RefillInterval)}

		assert.True(t, EnsureRefreshed(&a, testNow))
		assert.Equal(t, 50, a.Balance)
	})

	t.Run("within the week nothing changes", func(t *testing.T) {
		last := testNow.Add(-6 * 24 * time.Hour)
		a := Account{Tier: TierFree, Balance: 2, LastRefreshedAt: last}

		assert.False(t, EnsureRefreshed(&a, testNow))
		assert.Equal(t, 2, a.Balance)
		assert.Equal(t, last, a.LastRefreshedAt)
	})

	t.Run("second application in same window has no effect", func(t *testing.T) {
		a := Account{Tier: TierFree, Balance: 0, LastRefreshedAt: testNow.Add(-10 * 24 * time.Hour)}
		require.True(t, EnsureRefreshed(&a, testNow))
		a.Balance = 4

		assert.False(t, EnsureRefreshed(&a, testNow.Add(time.Hour)))
		assert.Equal(t, 4, a.Balance)
	})
}

func TestCostTable(t *testing.T) {
	assert.Equal(t, 1, CostTable[OpSearch])
	assert.Equal(t, 2, CostTable[OpPastPaper])
	assert.Equal(t, 3, CostTable[OpQuestionGeneration])
	assert.Equal(t, 0, CostTable[OpBookmark])

	_, err := Cost("teleport")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestOperationFor(t *testing.T) {
	assert.Equal(t, OpPastPaper, OperationFor(query.RequestPastPapers))
	assert.Equal(t, OpQuestionGeneration, OperationFor(query.RequestPracticeQuestions))
	assert.Equal(t, OpSearch, OperationFor(query.RequestNotes))
	assert.Equal(t, OpSearch, OperationFor(query.RequestFlashcards))
	assert.Equal(t, OpSearch, OperationFor(query.RequestGeneral))
}

func TestLedger_Charge(t *testing.T) {
	ctx := context.Background()

	t.Run("sufficient balance is debited", func(t *testing.T) {
		acct := freshAccount(5)
		l, store := newTestLedger(acct)

		res, err := l.Charge(ctx, acct.UserID, OpSearch)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, 1, res.TokensCharged)
		assert.Equal(t, 4, res.TokensRemaining)

		got, err := store.Get(ctx, acct.UserID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Balance)
	})

	t.Run("insufficient balance is reported and not mutated", func(t *testing.T) {
		acct := freshAccount(1)
		l, store := newTestLedger(acct)

		res, err := l.Charge(ctx, acct.UserID, OpQuestionGeneration)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, 3, res.TokensRequired)
		assert.Equal(t, 1, res.TokensAvailable)

		got, err := store.Get(ctx, acct.UserID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Balance)
	})

	t.Run("exact balance can be spent to zero", func(t *testing.T) {
		acct := freshAccount(2)
		l, _ := newTestLedger(acct)

		res, err := l.Charge(ctx, acct.UserID, OpPastPaper)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, 0, res.TokensRemaining)
	})

	t.Run("free operation succeeds on empty balance", func(t *testing.T) {
		acct := freshAccount(0)
		l, _ := newTestLedger(acct)

		res, err := l.Charge(ctx, acct.UserID, OpBookmark)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, 0, res.TokensCharged)
	})

	t.Run("stale account is refilled before charging", func(t *testing.T) {
		acct := Account{UserID: uuid.New(), Tier: TierFree, Balance: 0, LastRefreshedAt: testNow.Add(-8 * 24 * time.Hour)}
		l, store := newTestLedger(acct)

		res, err := l.Charge(ctx, acct.UserID, OpQuestionGeneration)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, 12, res.TokensRemaining)

		got, err := store.Get(ctx, acct.UserID)
		require.NoError(t, err)
		assert.Equal(t, testNow, got.LastRefreshedAt)
	})

	t.Run("unknown account", func(t *testing.T) {
		l, _ := newTestLedger()

		_, err := l.Charge(ctx, uuid.New(), OpSearch)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("unknown operation", func(t *testing.T) {
		acct := freshAccount(5)
		l, _ := newTestLedger(acct)

		_, err := l.Charge(ctx, acct.UserID, "teleport")
		assert.ErrorIs(t, err, ErrUnknownOperation)
	})
}

func TestLedger_Charge_Concurrent(t *testing.T) {
	ctx := context.Background()
	acct := freshAccount(3)
	l, store := newTestLedger(acct)

	var wg sync.WaitGroup
	results := make([]ChargeResult, 2)
	start := make(chan struct{})
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := l.Charge(ctx, acct.UserID, OpPastPaper)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.OK {
			succeeded++
		} else {
			assert.Equal(t, 2, r.TokensRequired)
			assert.Equal(t, 1, r.TokensAvailable)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := store.Get(ctx, acct.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Balance)
}

func TestLedger_Charge_ManyConcurrentNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	acct := freshAccount(15)
	l, store := newTestLedger(acct)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Charge(ctx, acct.UserID, OpPastPaper)
			assert.NoError(t, err)
			if res.OK {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 7, succeeded)
	got, err := store.Get(ctx, acct.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Balance)
}

func TestLedger_ManyAccountsShareFixedLocks(t *testing.T) {
	ctx := context.Background()
	accounts := make([]Account, 1000)
	for i := range accounts {
		accounts[i] = freshAccount(2)
	}
	l, store := newTestLedger(accounts...)

	var wg sync.WaitGroup
	for _, a := range accounts {
		assert.Equal(t, stripe(a.UserID), stripe(a.UserID))
		assert.Less(t, stripe(a.UserID), lockStripes)

		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := l.Charge(ctx, id, OpSearch)
			assert.NoError(t, err)
		}(a.UserID)
	}
	wg.Wait()

	for _, a := range accounts {
		got, err := store.Get(ctx, a.UserID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Balance)
	}
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Update(context.Context, uuid.UUID, func(*Account) (bool, error)) (*Account, error) {
	return nil, errors.New("connection reset")
}

func TestLedger_Charge_StoreFailure(t *testing.T) {
	l := NewLedger(&failingStore{})

	_, err := l.Charge(context.Background(), uuid.New(), OpSearch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestLedger_Balance(t *testing.T) {
	acct := Account{UserID: uuid.New(), Tier: TierPremium, Balance: 1, LastRefreshedAt: testNow.Add(-9 * 24 * time.Hour)}
	l, _ := newTestLedger(acct)

	got, err := l.Balance(context.Background(), acct.UserID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Balance)
	assert.Equal(t, testNow, got.LastRefreshedAt)
}
