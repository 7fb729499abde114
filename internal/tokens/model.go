package tokens

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studyq-platform/studyq/internal/query"
)

var (
	ErrAccountNotFound  = errors.New("token account not found")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Tier is the subscription level that decides the weekly quota.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

const (
	FreeQuota      = 15
	PremiumQuota   = 50
	RefillInterval = 7 * 24 * time.Hour
)

// Quota returns the weekly allowance for the tier. Unknown tiers get the free quota.
func (t Tier) Quota() int {
	if t == TierPremium {
		return PremiumQuota
	}
	return FreeQuota
}

// Account is a user's metered balance.
type Account struct {
	UserID          uuid.UUID `json:"user_id"`
	Tier            Tier      `json:"tier"`
	Balance         int       `json:"balance"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// Operation is a billable action category.
type Operation string

const (
	OpSearch             Operation = "search"
	OpPastPaper          Operation = "past_paper"
	OpQuestionGeneration Operation = "question_generation"
	OpBookmark           Operation = "bookmark"
)

// CostTable is the fixed price of each operation. Treat as read-only.
var CostTable = map[Operation]int{
	OpSearch:             1,
	OpPastPaper:          2,
	OpQuestionGeneration: 3,
	OpBookmark:           0,
}

// Cost returns the price of op.
func Cost(op Operation) (int, error) {
	c, ok := CostTable[op]
	if !ok {
		return 0, ErrUnknownOperation
	}
	return c, nil
}

// OperationFor maps an interpreted request type to the operation it bills as.
func OperationFor(rt query.RequestType) Operation {
	switch rt {
	case query.RequestPastPapers:
		return OpPastPaper
	case query.RequestPracticeQuestions:
		return OpQuestionGeneration
	default:
		return OpSearch
	}
}

// EnsureRefreshed resets the balance to the tier quota when a full refill
// interval has passed since the last refresh. It reports whether it did.
// Both the inline charge path and the background sweep use it.
func EnsureRefreshed(acct *Account, now time.Time) bool {
	if now.Sub(acct.LastRefreshedAt) < RefillInterval {
		return false
	}
	acct.Balance = acct.Tier.Quota()
	acct.LastRefreshedAt = now
	return true
}

// ChargeResult is either a successful debit or an insufficiency report.
// Insufficiency is a normal outcome, not an error.
type ChargeResult struct {
	OK              bool      `json:"ok"`
	Operation       Operation `json:"operation"`
	TokensCharged   int       `json:"tokens_charged,omitempty"`
	TokensRemaining int       `json:"tokens_remaining,omitempty"`
	TokensRequired  int       `json:"tokens_required,omitempty"`
	TokensAvailable int       `json:"tokens_available,omitempty"`
}
