package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyq-platform/studyq/internal/query"
)

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Page: 1, PageSize: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Page: 3, PageSize: MaxPageSize}, Page{Page: 3, PageSize: 500}.Normalize())
	assert.Equal(t, 40, Page{Page: 3, PageSize: 20}.Offset())
}

func TestBuildSearchSQL(t *testing.T) {
	t.Run("all filters", func(t *testing.T) {
		sql, args := buildSearchSQL(query.StructuredQuery{
			ExamType:    "GCSE",
			ExamBoard:   "Edexcel",
			Subject:     "Mathematics",
			Topic:       "quadratic equations",
			RequestType: query.RequestNotes,
		}, Page{Page: 2, PageSize: 10})

		assert.Contains(t, sql, "lower(exam_type) = lower($1)")
		assert.Contains(t, sql, "lower(exam_board) = lower($2)")
		assert.Contains(t, sql, "lower(subject) = lower($3)")
		assert.Contains(t, sql, "lower(content_type) = lower($4)")
		assert.Contains(t, sql, "title ILIKE $5 OR description ILIKE $5")
		assert.Contains(t, sql, "LIMIT $6 OFFSET $7")
		assert.Equal(t, []any{"GCSE", "Edexcel", "Mathematics", "notes", "%quadratic equations%", 10, 10}, args)
	})

	t.Run("no filters", func(t *testing.T) {
		sql, args := buildSearchSQL(query.StructuredQuery{RequestType: query.RequestGeneral}, Page{Page: 1, PageSize: 20})

		assert.NotContains(t, sql, "WHERE")
		assert.Equal(t, []any{20, 0}, args)
	})

	t.Run("topic wildcards are escaped", func(t *testing.T) {
		_, args := buildSearchSQL(query.StructuredQuery{Topic: "100%_yield"}, Page{Page: 1, PageSize: 20})

		assert.Equal(t, `%100\%\_yield%`, args[0])
	})
}
