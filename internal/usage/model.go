package usage

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyq-platform/studyq/internal/query"
)

// Record is one completed pipeline run. Records are append-only.
type Record struct {
	ID                 uuid.UUID             `json:"id"`
	UserID             uuid.UUID             `json:"user_id"`
	RawQuery           string                `json:"raw_query"`
	ResolvedQuery      query.StructuredQuery `json:"resolved_query"`
	Operation          string                `json:"operation"`
	InterpretationPath string                `json:"interpretation_path"`
	TokensCharged      int                   `json:"tokens_charged"`
	ResultCount        int                   `json:"result_count"`
	CacheHit           bool                  `json:"cache_hit"`
	LatencyMS          int64                 `json:"latency_ms"`
	CreatedAt          time.Time             `json:"created_at"`
}
