package announcement

import (
	"context"
	"time"

	domain "clubhouse/internal/domain/announcement"
)

// ListFilter narrows announcement listings.
type ListFilter struct {
	ClubID   string
	Status   string
	Audience string
	Limit    int
	Offset   int
}

// Store persists Announcement state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Announcement, error)
	Save(ctx context.Context, value domain.Announcement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Announcement, error)

	// ListPublished returns published announcements visible at now whose
	// audience is one of the given values, scoped to clubID plus
	// all-clubs announcements. An empty clubID matches only all-clubs
	// announcements.
	ListPublished(ctx context.Context, clubID string, audiences []string, now time.Time) ([]domain.Announcement, error)
}
