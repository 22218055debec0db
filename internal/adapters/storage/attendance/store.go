package attendance

import (
	"context"

	domain "clubhouse/internal/domain/attendance"
)

// Store persists attendance Records.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Record, error)

	// GetBySessionAndAthlete retrieves the record for one athlete at one
	// session. The (session, athlete) pair is unique.
	GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (domain.Record, error)

	Save(ctx context.Context, value domain.Record) error
	Delete(ctx context.Context, id string) error
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Record, error)
	ListByAthleteID(ctx context.Context, athleteID string, limit int) ([]domain.Record, error)
	CountBySessionID(ctx context.Context, sessionID string) (int, error)
}
