package coach

import (
	"context"

	domain "clubhouse/internal/domain/coach"
)

// Store persists Coach state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Coach, error)
	GetByEmail(ctx context.Context, email string) (domain.Coach, error)
	GetByAccountID(ctx context.Context, accountID string) (domain.Coach, error)
	Save(ctx context.Context, value domain.Coach) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Coach, error)
	ListByClubID(ctx context.Context, clubID string) ([]domain.Coach, error)
	CountByClubID(ctx context.Context, clubID string) (int, error)
}
