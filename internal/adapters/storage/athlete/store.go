package athlete

import (
	"context"

	domain "clubhouse/internal/domain/athlete"
)

// ListFilter narrows athlete listings.
type ListFilter struct {
	ClubID string
	Status string
	Search string // matches name or email, case-insensitive
	Limit  int
	Offset int
}

// Store persists Athlete state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Athlete, error)
	GetByEmail(ctx context.Context, email string) (domain.Athlete, error)
	GetByAccountID(ctx context.Context, accountID string) (domain.Athlete, error)
	Save(ctx context.Context, value domain.Athlete) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Athlete, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Athlete, error)
}
