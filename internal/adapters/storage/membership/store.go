package membership

import (
	"context"

	domain "clubhouse/internal/domain/membership"
)

// ListFilter narrows application listings.
type ListFilter struct {
	ClubID string
	Status string
	Limit  int
	Offset int
}

// Store persists membership Application state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Application, error)
	Save(ctx context.Context, value domain.Application) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Application, error)
	Count(ctx context.Context, filter ListFilter) (int, error)

	// HasPending reports whether a pending application already exists
	// for the given club and applicant email.
	HasPending(ctx context.Context, clubID, email string) (bool, error)
}
