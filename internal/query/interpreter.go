package query

import (
	"context"
	"log/slog"

	"github.com/studyq-platform/studyq/internal/metrics"
)

// Path records which tier of the interpreter produced a query.
type Path string

const (
	PathFast Path = "fast"
	PathSlow Path = "slow"
)

// Completer fills gaps in a partial query. FallbackClient is the production one.
type Completer interface {
	Complete(ctx context.Context, raw string, partial StructuredQuery) FallbackResult
}

// Interpretation is the final query plus how it was obtained.
type Interpretation struct {
	Query   StructuredQuery `json:"query"`
	Path    Path            `json:"path"`
	Outcome Outcome         `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
}

// Interpreter runs pattern extraction, the semantic fallback when extraction
// is incomplete, and preference enrichment, in that order.
type Interpreter struct {
	fallback Completer
}

// NewInterpreter creates an Interpreter. A nil fallback makes every
// incomplete extraction degrade straight to enrichment.
func NewInterpreter(fallback Completer) *Interpreter {
	return &Interpreter{fallback: fallback}
}

// Interpret never fails; absent fields are valid output.
func (i *Interpreter) Interpret(ctx context.Context, raw string, prefs Preferences) Interpretation {
	partial := Extract(raw)

	result := Interpretation{Path: PathFast, Outcome: OutcomeResolved}
	if !partial.Complete() {
		result.Path = PathSlow
		fb := FallbackResult{Query: partial, Outcome: OutcomeDegraded, Reason: "no language model configured"}
		if i.fallback != nil {
			fb = i.fallback.Complete(ctx, raw, partial)
		}
		partial = fb.Query
		result.Outcome = fb.Outcome
		result.Reason = fb.Reason

		if fb.Outcome == OutcomeDegraded {
			slog.Warn("query fallback degraded", "reason", fb.Reason)
		}
	}

	result.Query = Enrich(partial, prefs)
	metrics.InterpretationsTotal.WithLabelValues(string(result.Path), string(result.Outcome)).Inc()

	slog.Debug("query interpreted",
		"path", result.Path,
		"outcome", result.Outcome,
		"exam_type", result.Query.ExamType,
		"exam_board", result.Query.ExamBoard,
		"subject", result.Query.Subject,
		"topic", result.Query.Topic,
		"request_type", result.Query.RequestType,
	)
	return result
}
