package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles usage_records PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new usage Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends a record. Re-inserting an existing ID is a no-op so
// redelivered events do not duplicate rows.
func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	resolved, err := json.Marshal(rec.ResolvedQuery)
	if err != nil {
		return fmt.Errorf("marshaling resolved query: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO usage_records (id, user_id, raw_query, resolved_query, operation, interpretation_path,
		                            tokens_charged, result_count, cache_hit, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.UserID, rec.RawQuery, resolved, rec.Operation, rec.InterpretationPath,
		rec.TokensCharged, rec.ResultCount, rec.CacheHit, rec.LatencyMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting usage record: %w", err)
	}
	return nil
}

// Record implements Recorder by writing straight to PostgreSQL.
func (r *Repository) Record(ctx context.Context, rec Record) error {
	return r.Insert(ctx, &rec)
}
