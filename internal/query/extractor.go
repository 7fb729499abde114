package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Extract runs deterministic pattern matching over raw text. For each field
// the vocabulary is scanned in list order and the first entry with a phrase
// present in the text wins, regardless of where in the text it appears.
// The topic is looked for only after a subject has been located; matching
// runs on lower-cased text but the topic keeps the caller's casing.
func Extract(raw string) StructuredQuery {
	text, original, offsets := normalizeWithOffsets(raw)
	var q StructuredQuery

	q.ExamType, _, _ = firstTerm(examTypes, text)
	q.ExamBoard, _, _ = firstTerm(examBoards, text)

	subject, subjectEnd, ok := firstTerm(subjects, text)
	if ok {
		q.Subject = subject
		if start, end, ok := topicSpan(text, subjectEnd); ok {
			q.Topic = strings.TrimSpace(original[offsets[start]:offsets[end]])
		}
	}

	if rt, _, ok := firstTerm(requestTypes, text); ok {
		q.RequestType = RequestType(rt)
	}
	return q
}

// topicSpan locates the topic in text after byte offset from: the text
// following the first connector (in connector list order), cut at the first
// punctuation mark or stop word. It returns byte offsets into text.
func topicSpan(text string, from int) (int, int, bool) {
	rest := text[from:]
	for _, c := range topicConnectors {
		idx := indexWord(rest, c)
		if idx < 0 {
			continue
		}
		start := idx + len(c)
		end := start + topicLength(rest[start:])
		if strings.TrimSpace(rest[start:end]) == "" {
			return 0, 0, false
		}
		return from + start, from + end, true
	}
	return 0, 0, false
}

func topicLength(s string) int {
	cut := len(s)
	if i := strings.IndexAny(s, topicPunctuation); i >= 0 {
		cut = i
	}
	for _, w := range topicStopWords {
		if i := indexWord(s[:cut], w); i >= 0 && i < cut {
			cut = i
		}
	}
	return cut
}

// firstTerm returns the canonical value of the first term in list order with
// a phrase occurring in text, plus the byte offset just past that occurrence.
func firstTerm(list []term, text string) (string, int, bool) {
	for _, t := range list {
		for _, p := range t.phrases {
			if idx := indexWord(text, p); idx >= 0 {
				return t.canonical, idx + len(p), true
			}
		}
	}
	return "", 0, false
}

// indexWord finds the first occurrence of phrase in text that is not glued to
// a neighbouring letter or digit, so "ib" does not match inside "biology".
func indexWord(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// normalize lower-cases s and collapses whitespace runs into single spaces.
func normalize(s string) string {
	text, _, _ := normalizeWithOffsets(s)
	return text
}

// normalizeWithOffsets collapses whitespace in s, then lower-cases it rune by
// rune. offsets[i] is the byte in original where lower byte i came from, with
// one extra entry for len(lower); lower-casing may change a rune's width.
func normalizeWithOffsets(s string) (lower, original string, offsets []int) {
	original = strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	b.Grow(len(original))
	offsets = make([]int, 0, len(original)+1)
	for i, r := range original {
		n, _ := b.WriteRune(unicode.ToLower(r))
		for k := 0; k < n; k++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(original))
	return b.String(), original, offsets
}
