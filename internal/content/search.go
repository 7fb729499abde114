package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyq-platform/studyq/internal/query"
)

// PostgresSearcher finds content items matching a resolved query.
type PostgresSearcher struct {
	pool *pgxpool.Pool
}

func NewPostgresSearcher(pool *pgxpool.Pool) *PostgresSearcher {
	return &PostgresSearcher{pool: pool}
}

// contentTypeFor maps a request type to the stored content_type it filters on.
// General requests and generated question sets do not filter by type.
func contentTypeFor(rt query.RequestType) string {
	switch rt {
	case query.RequestNotes:
		return "notes"
	case query.RequestPastPapers:
		return "past_paper"
	case query.RequestFlashcards:
		return "flashcards"
	default:
		return ""
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildSearchSQL assembles the filtered query. Absent fields add no filter.
func buildSearchSQL(q query.StructuredQuery, p Page) (string, []any) {
	var (
		conds []string
		args  []any
	)
	eq := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("lower(%s) = lower($%d)", column, len(args)))
	}

	eq("exam_type", q.ExamType)
	eq("exam_board", q.ExamBoard)
	eq("subject", q.Subject)
	eq("content_type", contentTypeFor(q.RequestType))

	if topic := strings.TrimSpace(q.Topic); topic != "" {
		args = append(args, "%"+likeEscaper.Replace(topic)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(topics) AS t WHERE t ILIKE $%d))",
			n, n, n))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, title, description, exam_type, exam_board, subject, topics, content_type, url, year, created_at
		FROM content_items`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, p.PageSize, p.Offset())
	fmt.Fprintf(&b, " ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

func (s *PostgresSearcher) Search(ctx context.Context, q query.StructuredQuery, p Page) ([]Item, error) {
	sql, args := buildSearchSQL(q, p.Normalize())

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching content: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.ExamType, &it.ExamBoard,
			&it.Subject, &it.Topics, &it.ContentType, &it.URL, &it.Year, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning content item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content items: %w", err)
	}
	return items, nil
}
