package cache

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/studyq-platform/studyq/internal/query"
)

const (
	keyPrefix   = "studyq:v1"
	anySentinel = "any"
)

// Key builds the cache key for one operation over a resolved query. Every
// query field takes part, absent ones as "any", so queries that resolve to
// the same fields share an entry however they were phrased.
func Key(kind string, q query.StructuredQuery, page, pageSize int) string {
	parts := []string{
		keyPrefix,
		part(kind),
		part(q.ExamType),
		part(q.ExamBoard),
		part(q.Subject),
		part(q.Topic),
		part(string(q.RequestType)),
		"p" + strconv.Itoa(page),
		"n" + strconv.Itoa(pageSize),
	}
	return strings.Join(parts, ":")
}

// part normalizes a field and escapes it so it cannot contain the separator.
func part(v string) string {
	v = strings.Join(strings.Fields(strings.ToLower(v)), " ")
	if v == "" {
		return anySentinel
	}
	return url.QueryEscape(v)
}
