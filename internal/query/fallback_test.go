package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyq-platform/studyq/internal/llm"
)

type stubProvider struct {
	text  string
	err   error
	delay time.Duration

	calls      int
	userPrompt string
}

func (s *stubProvider) Generate(ctx context.Context, _, userPrompt string) (llm.Response, error) {
	s.calls++
	s.userPrompt = userPrompt
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		}
	}
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text}, nil
}

func TestFallbackClient_Complete_MergesNonNull(t *testing.T) {
	p := &stubProvider{text: "Sure! Here you go:\n```json\n" +
		`{"exam_type": "gcse", "exam_board": null, "subject": "maths", "topic": "simultaneous equations", "request_type": "practice questions"}` +
		"\n```\nGood luck."}
	c := NewFallbackClient(p, time.Second)

	partial := StructuredQuery{ExamBoard: "AQA", Subject: "Physics"}
	res := c.Complete(context.Background(), "aqa physics help with simultaneous equations", partial)

	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Empty(t, res.Reason)
	assert.Equal(t, StructuredQuery{
		ExamType:    "GCSE",
		ExamBoard:   "AQA",
		Subject:     "Mathematics",
		Topic:       "simultaneous equations",
		RequestType: RequestPracticeQuestions,
	}, res.Query)
	assert.Equal(t, 1, p.calls)
	assert.Contains(t, p.userPrompt, "exam_type")
	assert.Contains(t, p.userPrompt, "Edexcel")
}

func TestFallbackClient_Complete_UnknownValues(t *testing.T) {
	p := &stubProvider{text: `{"exam_type":"Scottish Highers","exam_board":"","subject":null,"topic":"  ","request_type":"podcast"}`}
	c := NewFallbackClient(p, time.Second)

	partial := StructuredQuery{Subject: "History", RequestType: RequestNotes}
	res := c.Complete(context.Background(), "highers history notes", partial)

	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, StructuredQuery{ExamType: "Scottish Highers", Subject: "History", RequestType: RequestNotes}, res.Query)
}

func TestFallbackClient_Complete_Degraded(t *testing.T) {
	partial := StructuredQuery{ExamType: "GCSE", Subject: "Biology"}

	tests := []struct {
		name     string
		provider llm.Provider
		reason   string
	}{
		{"nil provider", nil, "no language model configured"},
		{"transport error", &stubProvider{err: errors.New("connection refused")}, "connection refused"},
		{"no payload", &stubProvider{text: "I can't help with that."}, "unusable model reply"},
		{"array payload", &stubProvider{text: `["GCSE","Biology"]`}, "not an object"},
		{"wrong field types", &stubProvider{text: `{"exam_type": 3}`}, "malformed model payload"},
		{"timeout", &stubProvider{delay: time.Second, text: `{"topic":"cells"}`}, "deadline exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFallbackClient(tt.provider, 20*time.Millisecond)
			res := c.Complete(context.Background(), "gcse biology", partial)

			assert.Equal(t, OutcomeDegraded, res.Outcome)
			assert.Contains(t, res.Reason, tt.reason)
			assert.Equal(t, partial, res.Query)
		})
	}
}

func TestNewFallbackClient_DefaultTimeout(t *testing.T) {
	c := NewFallbackClient(&stubProvider{}, 0)
	assert.Equal(t, defaultFallbackTimeout, c.timeout)
}
