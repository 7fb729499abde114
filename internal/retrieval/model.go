package retrieval

import (
	"github.com/google/uuid"

	"github.com/studyq-platform/studyq/internal/content"
	"github.com/studyq-platform/studyq/internal/query"
	"github.com/studyq-platform/studyq/internal/tokens"
)

// State is a step of the retrieval pipeline.
type State string

const (
	StateParsing     State = "parsing"
	StateTokenCheck  State = "token_check"
	StateCacheLookup State = "cache_lookup"
	StateCacheHit    State = "cache_hit"
	StateCacheMiss   State = "cache_miss"
	StateExecute     State = "execute"
	StateCacheStore  State = "cache_store"
	StateRespond     State = "respond"
	StateAborted     State = "aborted"
	StateFailed      State = "failed"
)

const MaxQueryLength = 500

// Request is one free-text query from an authenticated user.
type Request struct {
	UserID   uuid.UUID
	RawQuery string
	Page     int
	PageSize int
}

// Response carries the payload and how the request was interpreted and billed.
// Exactly one of Items or Questions is set.
type Response struct {
	ResolvedQuery      query.StructuredQuery `json:"resolved_query"`
	InterpretationPath query.Path            `json:"interpretation_path"`
	Operation          tokens.Operation      `json:"operation"`
	Items              []content.Item        `json:"items,omitempty"`
	Questions          []content.Question    `json:"questions,omitempty"`
	TokensUsed         int                   `json:"tokens_used"`
	TokensRemaining    int                   `json:"tokens_remaining"`
	CacheHit           bool                  `json:"cache_hit"`
	Page               int                   `json:"page,omitempty"`
	PageSize           int                   `json:"page_size,omitempty"`

	// Trace lists the states the run passed through, in order.
	Trace []State `json:"-"`
}

// payload is the cached unit: the result of one execute step.
type payload struct {
	Items     []content.Item     `json:"items,omitempty"`
	Questions []content.Question `json:"questions,omitempty"`
}

func (p payload) count() int {
	return len(p.Items) + len(p.Questions)
}
