package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyq-platform/studyq/internal/query"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// Preferences returns the stored query defaults for id.
func (s *Service) Preferences(ctx context.Context, id uuid.UUID) (query.Preferences, error) {
	p, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		return query.Preferences{}, err
	}
	return p.Preferences, nil
}
