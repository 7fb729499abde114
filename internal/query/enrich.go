package query

import "strings"

// Enrich fills absent fields from the user's stored preferences. Exam type and
// board come from the matching preference, subject from the first preferred
// subject. RequestType always ends up set; Topic may stay empty.
func Enrich(partial StructuredQuery, prefs Preferences) StructuredQuery {
	q := partial

	if q.ExamType == "" {
		q.ExamType = strings.TrimSpace(prefs.ExamType)
	}
	if q.ExamBoard == "" {
		q.ExamBoard = strings.TrimSpace(prefs.ExamBoard)
	}
	if q.Subject == "" {
		for _, s := range prefs.Subjects {
			if s = strings.TrimSpace(s); s != "" {
				q.Subject = s
				break
			}
		}
	}
	if !q.RequestType.Known() {
		q.RequestType = RequestGeneral
	}
	return q
}
