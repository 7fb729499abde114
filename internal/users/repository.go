package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyq-platform/studyq/internal/query"
)

var ErrNotFound = errors.New("user not found")

// Profile is the part of a user record the query pipeline reads.
type Profile struct {
	ID          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	Preferences query.Preferences `json:"preferences"`
}

type Repository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	stmt := `SELECT id, email, exam_type, exam_board, subjects FROM users WHERE id = $1`

	p := &Profile{}
	err := r.pool.QueryRow(ctx, stmt, id).Scan(
		&p.ID, &p.Email, &p.Preferences.ExamType, &p.Preferences.ExamBoard, &p.Preferences.Subjects)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user profile: %w", err)
	}
	return p, nil
}
