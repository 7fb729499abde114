package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps token accounts on the users table. Update locks the
// row with SELECT ... FOR UPDATE so concurrent API instances serialize on it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectAccount = `
	SELECT id, tier, token_balance, tokens_last_refreshed_at
	FROM users WHERE id = $1`

func (s *PostgresStore) Get(ctx context.Context, userID uuid.UUID) (*Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, selectAccount, userID))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) Update(ctx context.Context, userID uuid.UUID, fn func(*Account) (bool, error)) (*Account, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("beginning token transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	a, err := scanAccount(tx.QueryRow(ctx, selectAccount+" FOR UPDATE", userID))
	if err != nil {
		return nil, err
	}

	changed, err := fn(a)
	if err != nil {
		return nil, err
	}
	if !changed {
		return a, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE users
		 SET token_balance = $2,
		     tokens_last_refreshed_at = $3,
		     updated_at = NOW()
		 WHERE id = $1`, a.UserID, a.Balance, a.LastRefreshedAt)
	if err != nil {
		return nil, fmt.Errorf("updating token balance: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing token transaction: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListStale(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM users
		 WHERE tokens_last_refreshed_at <= $1 AND id > $2
		 ORDER BY id
		 LIMIT $3`, cutoff, after, limit)
	if err != nil {
		return nil, fmt.Errorf("listing stale token accounts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning stale account: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var tier string
	err := row.Scan(&a.UserID, &tier, &a.Balance, &a.LastRefreshedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("querying token account: %w", err)
	}
	a.Tier = Tier(tier)
	return &a, nil
}
