package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/studyq-platform/studyq/internal/cache"
	"github.com/studyq-platform/studyq/internal/content"
	"github.com/studyq-platform/studyq/internal/metrics"
	"github.com/studyq-platform/studyq/internal/query"
	"github.com/studyq-platform/studyq/internal/tokens"
	"github.com/studyq-platform/studyq/internal/usage"
	"github.com/studyq-platform/studyq/internal/users"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultStorageTimeout = 10 * time.Second
)

type Interpreter interface {
	Interpret(ctx context.Context, raw string, prefs query.Preferences) query.Interpretation
}

type PreferenceSource interface {
	Preferences(ctx context.Context, userID uuid.UUID) (query.Preferences, error)
}

type Charger interface {
	Charge(ctx context.Context, userID uuid.UUID, op tokens.Operation) (tokens.ChargeResult, error)
}

type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
	TTL(kind string) time.Duration
}

type Searcher interface {
	Search(ctx context.Context, q query.StructuredQuery, p content.Page) ([]content.Item, error)
}

type QuestionGenerator interface {
	Generate(ctx context.Context, q query.StructuredQuery, count int) ([]content.Question, error)
}

// Deps are the collaborators an Orchestrator runs against.
type Deps struct {
	Interpreter Interpreter
	Preferences PreferenceSource
	Ledger      Charger
	Cache       ResultCache
	Searcher    Searcher
	Generator   QuestionGenerator
	Recorder    usage.Recorder
	// Timeout bounds the execute step. Zero uses 15s.
	Timeout time.Duration
	// StorageTimeout bounds each preference, ledger, cache and usage call.
	// Zero uses 10s.
	StorageTimeout time.Duration
}

// Orchestrator drives one request through interpretation, charging, cache
// lookup, execution and usage recording.
type Orchestrator struct {
	deps Deps
	now  func() time.Time
}

func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Timeout <= 0 {
		deps.Timeout = defaultTimeout
	}
	if deps.StorageTimeout <= 0 {
		deps.StorageTimeout = defaultStorageTimeout
	}
	return &Orchestrator{deps: deps, now: time.Now}
}

type run struct {
	trace []State
}

func (r *run) enter(s State) {
	r.trace = append(r.trace, s)
}

// Run executes the pipeline. Errors are *InputError, *InsufficientTokensError
// or *RetrievalFault.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	start := o.now()

	page, err := validate(req)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	rawQuery := strings.TrimSpace(req.RawQuery)

	// A started run is not cut short by the caller going away; each external
	// step carries its own timeout instead (see storageCtx and execute).
	ctx = context.WithoutCancel(ctx)

	r := &run{}
	r.enter(StateParsing)
	interp := o.deps.Interpreter.Interpret(ctx, rawQuery, o.preferences(ctx, req.UserID))
	q := interp.Query
	op := tokens.OperationFor(q.RequestType)

	r.enter(StateTokenCheck)
	charge, err := o.charge(ctx, req.UserID, op)
	if err != nil {
		return nil, o.fail(r, StateTokenCheck, req.UserID, err)
	}
	if !charge.OK {
		r.enter(StateAborted)
		metrics.PipelineRunsTotal.WithLabelValues(string(StateAborted)).Inc()
		return nil, &InsufficientTokensError{Operation: op, Required: charge.TokensRequired, Available: charge.TokensAvailable}
	}

	if op == tokens.OpQuestionGeneration {
		page = content.Page{Page: 1, PageSize: content.QuestionCount}
	}
	key := cache.Key(string(op), q, page.Page, page.PageSize)

	r.enter(StateCacheLookup)
	p, hit := o.lookup(ctx, key)
	if hit {
		r.enter(StateCacheHit)
	} else {
		r.enter(StateCacheMiss)
		r.enter(StateExecute)
		p, err = o.execute(ctx, op, q, page)
		if err != nil {
			return nil, o.fail(r, StateExecute, req.UserID, err)
		}

		r.enter(StateCacheStore)
		if data, err := json.Marshal(p); err == nil {
			o.put(ctx, key, data, o.deps.Cache.TTL(string(op)))
		}
	}

	r.enter(StateRespond)
	metrics.PipelineRunsTotal.WithLabelValues(string(StateRespond)).Inc()

	resp := &Response{
		ResolvedQuery:      q,
		InterpretationPath: interp.Path,
		Operation:          op,
		Items:              p.Items,
		Questions:          p.Questions,
		TokensUsed:         charge.TokensCharged,
		TokensRemaining:    charge.TokensRemaining,
		CacheHit:           hit,
		Trace:              r.trace,
	}
	if op != tokens.OpQuestionGeneration {
		resp.Page, resp.PageSize = page.Page, page.PageSize
		if resp.Items == nil {
			resp.Items = []content.Item{}
		}
	}

	o.record(ctx, usage.Record{
		UserID:             req.UserID,
		RawQuery:           rawQuery,
		ResolvedQuery:      q,
		Operation:          string(op),
		InterpretationPath: string(interp.Path),
		TokensCharged:      charge.TokensCharged,
		ResultCount:        p.count(),
		CacheHit:           hit,
		LatencyMS:          o.now().Sub(start).Milliseconds(),
	})
	return resp, nil
}

// InvalidateQuery drops the cached result for a resolved query and page and
// returns the key it removed.
func (o *Orchestrator) InvalidateQuery(ctx context.Context, q query.StructuredQuery, page content.Page) string {
	op := tokens.OperationFor(q.RequestType)
	page = page.Normalize()
	if op == tokens.OpQuestionGeneration {
		page = content.Page{Page: 1, PageSize: content.QuestionCount}
	}
	key := cache.Key(string(op), q, page.Page, page.PageSize)
	ctx, cancel := o.storageCtx(ctx)
	defer cancel()
	o.deps.Cache.Invalidate(ctx, key)
	return key
}

func validate(req Request) (content.Page, error) {
	raw := strings.TrimSpace(req.RawQuery)
	switch {
	case req.UserID == uuid.Nil:
		return content.Page{}, &InputError{Reason: "user is required"}
	case raw == "":
		return content.Page{}, &InputError{Reason: "query is required"}
	case utf8.RuneCountInString(raw) > MaxQueryLength:
		return content.Page{}, &InputError{Reason: fmt.Sprintf("query must be at most %d characters", MaxQueryLength)}
	case req.Page < 0 || req.PageSize < 0:
		return content.Page{}, &InputError{Reason: "page and page_size must not be negative"}
	}
	return content.Page{Page: req.Page, PageSize: req.PageSize}.Normalize(), nil
}

// preferences only fill gaps, so a failed lookup degrades to none.
func (o *Orchestrator) preferences(ctx context.Context, userID uuid.UUID) query.Preferences {
	if o.deps.Preferences == nil {
		return query.Preferences{}
	}
	ctx, cancel := o.storageCtx(ctx)
	defer cancel()
	prefs, err := o.deps.Preferences.Preferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			slog.Warn("loading preferences failed, continuing without", "user_id", userID, "error", err)
		}
		return query.Preferences{}
	}
	return prefs
}

func (o *Orchestrator) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.deps.StorageTimeout)
}

func (o *Orchestrator) charge(ctx context.Context, userID uuid.UUID, op tokens.Operation) (tokens.ChargeResult, error) {
	ctx, cancel := o.storageCtx(ctx)
	defer cancel()
	return o.deps.Ledger.Charge(ctx, userID, op)
}

func (o *Orchestrator) put(ctx context.Context, key string, data []byte, ttl time.Duration) {
	ctx, cancel := o.storageCtx(ctx)
	defer cancel()
	o.deps.Cache.Put(ctx, key, data, ttl)
}

func (o *Orchestrator) lookup(ctx context.Context, key string) (payload, bool) {
	ctx, cancel := o.storageCtx(ctx)
	defer cancel()
	data, ok := o.deps.Cache.Get(ctx, key)
	if !ok {
		return payload{}, false
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("discarding unreadable cache entry", "key", key, "error", err)
		return payload{}, false
	}
	return p, true
}

func (o *Orchestrator) execute(ctx context.Context, op tokens.Operation, q query.StructuredQuery, page content.Page) (payload, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deps.Timeout)
	defer cancel()

	if op == tokens.OpQuestionGeneration {
		if o.deps.Generator == nil {
			return payload{}, errors.New("question generation is not configured")
		}
		qs, err := o.deps.Generator.Generate(ctx, q, content.QuestionCount)
		if err != nil {
			return payload{}, err
		}
		return payload{Questions: qs}, nil
	}

	items, err := o.deps.Searcher.Search(ctx, q, page)
	if err != nil {
		return payload{}, err
	}
	return payload{Items: items}, nil
}

func (o *Orchestrator) fail(r *run, stage State, userID uuid.UUID, err error) error {
	r.enter(StateFailed)
	metrics.PipelineRunsTotal.WithLabelValues(string(StateFailed)).Inc()
	if !errors.Is(err, tokens.ErrAccountNotFound) {
		slog.Error("retrieval failed", "stage", stage, "user_id", userID, "error", err)
	}
	return &RetrievalFault{Stage: stage, Err: err}
}

func (o *Orchestrator) record(ctx context.Context, rec usage.Record) {
	if o.deps.Recorder == nil {
		return
	}
	ctx, cancel := o.storageCtx(ctx)
	defer cancel()
	if err := o.deps.Recorder.Record(ctx, rec); err != nil {
		slog.Warn("recording usage failed", "user_id", rec.UserID, "error", err)
	}
}
