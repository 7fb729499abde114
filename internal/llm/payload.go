package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoPayload is returned when a reply contains no parseable JSON object or array.
var ErrNoPayload = errors.New("no structured payload found")

var thinkRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinkBlocks removes <think>...</think> reasoning sections some models emit.
func StripThinkBlocks(s string) string {
	return strings.TrimSpace(thinkRegex.ReplaceAllString(s, ""))
}

// ExtractPayload returns the first JSON object or array embedded in free text.
// Every '{' or '[' is tried in reply order and the first balanced substring
// that parses wins. Markdown fence markers carry no brackets, so fenced and
// unfenced payloads compete on position alone.
func ExtractPayload(text string) (json.RawMessage, error) {
	text = StripThinkBlocks(text)

	if p, ok := firstBalanced(text); ok {
		return p, nil
	}
	return nil, ErrNoPayload
}

func firstBalanced(s string) (json.RawMessage, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end, ok := matchClose(s, i)
		if !ok {
			continue
		}
		candidate := s[i : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), true
		}
	}
	return nil, false
}

// matchClose finds the index of the bracket closing the one at start,
// skipping brackets inside JSON string literals.
func matchClose(s string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
