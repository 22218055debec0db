package projections

import (
	"context"

	"clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/adapters/storage/membership"
	"clubhouse/internal/adapters/storage/trainingsession"
	domainAthlete "clubhouse/internal/domain/athlete"
	domainAttendance "clubhouse/internal/domain/attendance"
	domainClub "clubhouse/internal/domain/club"
	domainCoach "clubhouse/internal/domain/coach"
	domainLeave "clubhouse/internal/domain/leaverequest"
	domainMembership "clubhouse/internal/domain/membership"
	domainNotification "clubhouse/internal/domain/notification"
	domainSession "clubhouse/internal/domain/trainingsession"
)

// AthleteStore interface for athlete queries.
type AthleteStore interface {
	GetByID(ctx context.Context, id string) (domainAthlete.Athlete, error)
	List(ctx context.Context, filter athlete.ListFilter) ([]domainAthlete.Athlete, error)
	Count(ctx context.Context, filter athlete.ListFilter) (int, error)
}

// SessionStore interface for training session queries.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (domainSession.Session, error)
	List(ctx context.Context, filter trainingsession.ListFilter) ([]domainSession.Session, error)
}

// ClubStore interface for club lookups.
type ClubStore interface {
	GetByID(ctx context.Context, id string) (domainClub.Club, error)
	List(ctx context.Context) ([]domainClub.Club, error)
}

// CoachStore interface for coach lookups.
type CoachStore interface {
	GetByID(ctx context.Context, id string) (domainCoach.Coach, error)
}

// AttendanceStore interface for attendance queries.
type AttendanceStore interface {
	ListBySessionID(ctx context.Context, sessionID string) ([]domainAttendance.Record, error)
	ListByAthleteID(ctx context.Context, athleteID string, limit int) ([]domainAttendance.Record, error)
}

// LeaveStore interface for leave request queries.
type LeaveStore interface {
	ListBySessionID(ctx context.Context, sessionID string) ([]domainLeave.Request, error)
	ListByAthleteID(ctx context.Context, athleteID string, limit int) ([]domainLeave.Request, error)
}

// ApplicationStore interface for membership application queries.
type ApplicationStore interface {
	List(ctx context.Context, filter membership.ListFilter) ([]domainMembership.Application, error)
	Count(ctx context.Context, filter membership.ListFilter) (int, error)
}

// NotificationStore interface for notification queries.
type NotificationStore interface {
	ListByRecipient(ctx context.Context, recipientKind, recipientID string, limit int) ([]domainNotification.Notification, error)
	CountUnread(ctx context.Context, recipientKind, recipientID string) (int, error)
}
