package trainingsession

import (
	"context"

	domain "clubhouse/internal/domain/trainingsession"
)

// ListFilter narrows session listings. DateFrom and DateTo are
// inclusive YYYY-MM-DD bounds.
type ListFilter struct {
	ClubID   string
	CoachID  string
	Status   string
	DateFrom string
	DateTo   string
	Limit    int
	Offset   int
}

// Store persists training Session state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, value domain.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Session, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountByClubID(ctx context.Context, clubID string) (int, error)
}
