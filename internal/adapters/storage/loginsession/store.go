package loginsession

import (
	"context"

	domain "clubhouse/internal/domain/loginsession"
)

// ListFilter narrows login audit listings.
type ListFilter struct {
	Portal  string
	Email   string
	Outcome string
	Limit   int
	Offset  int
}

// Store persists the login audit trail. Records are append-only.
type Store interface {
	Save(ctx context.Context, value domain.Record) error
	List(ctx context.Context, filter ListFilter) ([]domain.Record, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}
