package leaverequest

import (
	"context"

	domain "clubhouse/internal/domain/leaverequest"
)

// Store persists leave Requests.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Request, error)

	// GetBySessionAndAthlete retrieves the request for one athlete at one
	// session. The (session, athlete) pair is unique.
	GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (domain.Request, error)

	Save(ctx context.Context, value domain.Request) error
	Delete(ctx context.Context, id string) error
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Request, error)
	ListByAthleteID(ctx context.Context, athleteID string, limit int) ([]domain.Request, error)
}
