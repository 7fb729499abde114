package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studyq-platform/studyq/internal/llm"
	"github.com/studyq-platform/studyq/internal/query"
)

var ErrNoQuestions = errors.New("model returned no usable questions")

const generatorSystemPrompt = `You write exam-style practice questions for secondary school students.
Reply with a JSON array only. Each element is an object with keys
"question", "answer", "marks" (integer) and "difficulty" ("easy", "medium" or "hard").`

// Generator produces practice questions with a language model.
type Generator struct {
	provider llm.Provider
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate asks for count questions on q and returns at most count of them.
func (g *Generator) Generate(ctx context.Context, q query.StructuredQuery, count int) ([]Question, error) {
	if g.provider == nil {
		return nil, errors.New("no language model configured")
	}
	if count < 1 {
		count = QuestionCount
	}

	resp, err := g.provider.Generate(ctx, generatorSystemPrompt, buildGeneratorPrompt(q, count))
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	payload, err := llm.ExtractPayload(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("parsing generated questions: %w", err)
	}

	var raw []Question
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decoding generated questions: %w", err)
	}

	questions := make([]Question, 0, count)
	for _, qu := range raw {
		qu.Question = strings.TrimSpace(qu.Question)
		if qu.Question == "" {
			continue
		}
		questions = append(questions, qu)
		if len(questions) == count {
			break
		}
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

func buildGeneratorPrompt(q query.StructuredQuery, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d practice questions", count)
	if q.Subject != "" {
		fmt.Fprintf(&b, " for %s", q.Subject)
	}
	if q.ExamType != "" || q.ExamBoard != "" {
		b.WriteString(" at")
		for _, v := range []string{q.ExamBoard, q.ExamType} {
			if v != "" {
				b.WriteString(" " + v)
			}
		}
		b.WriteString(" level")
	}
	if q.Topic != "" {
		fmt.Fprintf(&b, " on the topic %q", q.Topic)
	}
	b.WriteString(".")
	return b.String()
}
