package parent

import (
	"context"
	"time"

	domain "clubhouse/internal/domain/parent"
)

// UserStore persists parent portal identities.
type UserStore interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Save(ctx context.Context, value domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.User, error)
}

// SessionStore persists parent portal sessions. Tokens are opaque and
// unique; expiry is enforced by the caller and by DeleteExpired sweeps.
type SessionStore interface {
	GetByToken(ctx context.Context, token string) (domain.Session, error)
	Save(ctx context.Context, value domain.Session) error
	Delete(ctx context.Context, id string) error
	DeleteByParentID(ctx context.Context, parentID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ConnectionStore persists parent-athlete links.
type ConnectionStore interface {
	GetByID(ctx context.Context, id string) (domain.Connection, error)
	GetByParentAndAthlete(ctx context.Context, parentID, athleteID string) (domain.Connection, error)
	Save(ctx context.Context, value domain.Connection) error
	Delete(ctx context.Context, id string) error
	ListByParentID(ctx context.Context, parentID string) ([]domain.Connection, error)
	ListByAthleteID(ctx context.Context, athleteID string) ([]domain.Connection, error)
}
