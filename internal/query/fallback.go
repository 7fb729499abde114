package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studyq-platform/studyq/internal/llm"
)

// Outcome tags how an interpretation step ended.
type Outcome string

const (
	// OutcomeResolved means the step produced its result normally.
	OutcomeResolved Outcome = "resolved"
	// OutcomeDegraded means the step failed and the deterministic result was kept.
	OutcomeDegraded Outcome = "degraded"
)

// FallbackResult is the tagged result of a semantic completion attempt.
// On OutcomeDegraded, Query is the unchanged pattern-based partial.
type FallbackResult struct {
	Query   StructuredQuery
	Outcome Outcome
	Reason  string
}

const defaultFallbackTimeout = 10 * time.Second

const fallbackSystemPrompt = `You convert a student's revision request into search parameters.
Reply with exactly one JSON object and nothing else, with these keys:
"exam_type", "exam_board", "subject", "topic", "request_type".
Use null for any value the request does not state or clearly imply.`

// FallbackClient completes a partial query by asking a language model.
type FallbackClient struct {
	provider llm.Provider
	timeout  time.Duration
}

// NewFallbackClient creates a FallbackClient. A non-positive timeout uses the default.
func NewFallbackClient(provider llm.Provider, timeout time.Duration) *FallbackClient {
	if timeout <= 0 {
		timeout = defaultFallbackTimeout
	}
	return &FallbackClient{provider: provider, timeout: timeout}
}

type modelFields struct {
	ExamType    *string `json:"exam_type"`
	ExamBoard   *string `json:"exam_board"`
	Subject     *string `json:"subject"`
	Topic       *string `json:"topic"`
	RequestType *string `json:"request_type"`
}

// Complete never returns an error: every failure yields OutcomeDegraded with
// the partial query untouched.
func (c *FallbackClient) Complete(ctx context.Context, raw string, partial StructuredQuery) FallbackResult {
	degraded := func(format string, args ...any) FallbackResult {
		return FallbackResult{Query: partial, Outcome: OutcomeDegraded, Reason: fmt.Sprintf(format, args...)}
	}

	if c == nil || c.provider == nil {
		return degraded("no language model configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Generate(ctx, fallbackSystemPrompt, buildFallbackPrompt(raw, partial))
	if err != nil {
		return degraded("language model call failed: %v", err)
	}

	payload, err := llm.ExtractPayload(resp.Text)
	if err != nil {
		return degraded("unusable model reply: %v", err)
	}
	if payload[0] != '{' {
		return degraded("model reply is not an object")
	}

	var fields modelFields
	if err := json.Unmarshal(payload, &fields); err != nil {
		return degraded("malformed model payload: %v", err)
	}

	return FallbackResult{Query: merge(partial, fields), Outcome: OutcomeResolved}
}

// merge lets a non-null model value override the pattern-based one.
// Vocabulary fields are canonicalized; an unrecognised request type is dropped.
func merge(partial StructuredQuery, f modelFields) StructuredQuery {
	q := partial
	if v, ok := present(f.ExamType); ok {
		q.ExamType = canonicalOrRaw("exam_type", v)
	}
	if v, ok := present(f.ExamBoard); ok {
		q.ExamBoard = canonicalOrRaw("exam_board", v)
	}
	if v, ok := present(f.Subject); ok {
		q.Subject = canonicalOrRaw("subject", v)
	}
	if v, ok := present(f.Topic); ok {
		q.Topic = v
	}
	if v, ok := present(f.RequestType); ok {
		if rt, ok := Canonical("request_type", v); ok {
			q.RequestType = RequestType(rt)
		}
	}
	return q
}

func present(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.TrimSpace(*v)
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	return s, true
}

func canonicalOrRaw(field, v string) string {
	if c, ok := Canonical(field, v); ok {
		return c
	}
	return v
}

func buildFallbackPrompt(raw string, partial StructuredQuery) string {
	known, _ := json.Marshal(partial)

	var b strings.Builder
	fmt.Fprintf(&b, "Request: %q\n", raw)
	fmt.Fprintf(&b, "Already detected: %s\n", known)
	fmt.Fprintf(&b, "Missing: %s\n", strings.Join(partial.Missing(), ", "))
	fmt.Fprintf(&b, "exam_type is one of: %s\n", strings.Join(canonicals(examTypes), ", "))
	fmt.Fprintf(&b, "exam_board is one of: %s\n", strings.Join(canonicals(examBoards), ", "))
	fmt.Fprintf(&b, "subject is one of: %s\n", strings.Join(canonicals(subjects), ", "))
	fmt.Fprintf(&b, "request_type is one of: %s, %s\n", strings.Join(canonicals(requestTypes), ", "), RequestGeneral)
	b.WriteString("topic is a short phrase naming the specific topic, or null.")
	return b.String()
}
