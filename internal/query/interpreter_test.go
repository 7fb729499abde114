package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingCompleter struct {
	result FallbackResult
	calls  int
	got    StructuredQuery
}

func (c *countingCompleter) Complete(_ context.Context, _ string, partial StructuredQuery) FallbackResult {
	c.calls++
	c.got = partial
	if c.result.Outcome == "" {
		return FallbackResult{Query: partial, Outcome: OutcomeResolved}
	}
	return c.result
}

func TestInterpreter_CompleteExtractionSkipsFallback(t *testing.T) {
	fb := &countingCompleter{}
	in := NewInterpreter(fb)

	got := in.Interpret(context.Background(), "GCSE Edexcel Maths notes on quadratic equations", Preferences{Subjects: []string{"Biology"}})

	assert.Equal(t, 0, fb.calls)
	assert.Equal(t, PathFast, got.Path)
	assert.Equal(t, OutcomeResolved, got.Outcome)
	assert.Equal(t, StructuredQuery{
		ExamType:    "GCSE",
		ExamBoard:   "Edexcel",
		Subject:     "Mathematics",
		Topic:       "quadratic equations",
		RequestType: RequestNotes,
	}, got.Query)
}

func TestInterpreter_IncompleteUsesFallbackThenEnrich(t *testing.T) {
	fb := &countingCompleter{result: FallbackResult{
		Query:   StructuredQuery{Subject: "Chemistry", Topic: "moles", RequestType: RequestPracticeQuestions},
		Outcome: OutcomeResolved,
	}}
	in := NewInterpreter(fb)

	got := in.Interpret(context.Background(), "chemistry questions about moles", Preferences{ExamType: "GCSE", ExamBoard: "OCR"})

	assert.Equal(t, 1, fb.calls)
	assert.Equal(t, StructuredQuery{Subject: "Chemistry", Topic: "moles", RequestType: RequestPracticeQuestions}, fb.got)
	assert.Equal(t, PathSlow, got.Path)
	assert.Equal(t, OutcomeResolved, got.Outcome)
	assert.Equal(t, StructuredQuery{
		ExamType:    "GCSE",
		ExamBoard:   "OCR",
		Subject:     "Chemistry",
		Topic:       "moles",
		RequestType: RequestPracticeQuestions,
	}, got.Query)
}

func TestInterpreter_DegradedFallbackStillEnriches(t *testing.T) {
	fb := &countingCompleter{result: FallbackResult{
		Query:   StructuredQuery{Subject: "History"},
		Outcome: OutcomeDegraded,
		Reason:  "language model call failed: timeout",
	}}
	in := NewInterpreter(fb)

	got := in.Interpret(context.Background(), "history stuff", Preferences{ExamType: "A-Level", ExamBoard: "AQA"})

	assert.Equal(t, 1, fb.calls)
	assert.Equal(t, PathSlow, got.Path)
	assert.Equal(t, OutcomeDegraded, got.Outcome)
	assert.Contains(t, got.Reason, "timeout")
	assert.Equal(t, StructuredQuery{ExamType: "A-Level", ExamBoard: "AQA", Subject: "History", RequestType: RequestGeneral}, got.Query)
}

func TestInterpreter_NilFallback(t *testing.T) {
	in := NewInterpreter(nil)

	got := in.Interpret(context.Background(), "physics", Preferences{})

	assert.Equal(t, PathSlow, got.Path)
	assert.Equal(t, OutcomeDegraded, got.Outcome)
	assert.Equal(t, StructuredQuery{Subject: "Physics", RequestType: RequestGeneral}, got.Query)
}
