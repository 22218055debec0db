package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/parent"
)

// ErrParentEmailTaken is returned when a parent user already exists
// with the given email.
var ErrParentEmailTaken = errors.New("a parent with this email already exists")

// ParentUserStoreForAdmin is the parent-user access staff management
// needs.
type ParentUserStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (parent.User, error)
	GetByEmail(ctx context.Context, email string) (parent.User, error)
	Save(ctx context.Context, value parent.User) error
	Delete(ctx context.Context, id string) error
}

// ConnectionStoreForAdmin manages parent-athlete links.
type ConnectionStoreForAdmin interface {
	GetByParentAndAthlete(ctx context.Context, parentID, athleteID string) (parent.Connection, error)
	Save(ctx context.Context, value parent.Connection) error
	Delete(ctx context.Context, id string) error
	ListByParentID(ctx context.Context, parentID string) ([]parent.Connection, error)
}

// ParentSessionPurger removes every session belonging to one parent.
type ParentSessionPurger interface {
	DeleteByParentID(ctx context.Context, parentID string) error
}

// CreateParentUserInput carries input for the create-parent
// orchestrator.
type CreateParentUserInput struct {
	Email    string
	Name     string
	Password string
}

// CreateParentUserDeps holds dependencies for CreateParentUser.
type CreateParentUserDeps struct {
	ParentStore ParentUserStoreForAdmin
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteCreateParentUser registers a parent portal identity. Parents
// are created by staff; there is no self-signup.
// PRE: email is not already registered; password is >= 12 characters
// POST: a parent user with a bcrypt password hash is persisted
func ExecuteCreateParentUser(ctx context.Context, input CreateParentUserInput, deps CreateParentUserDeps) (parent.User, error) {
	if input.Email == "" {
		return parent.User{}, parent.ErrEmptyEmail
	}
	if _, err := deps.ParentStore.GetByEmail(ctx, input.Email); err == nil {
		return parent.User{}, ErrParentEmailTaken
	}

	p := parent.User{
		ID:        deps.GenerateID(),
		Email:     input.Email,
		Name:      input.Name,
		CreatedAt: deps.Now(),
	}
	if err := p.SetPassword(input.Password); err != nil {
		return parent.User{}, err
	}
	if err := p.Validate(); err != nil {
		return parent.User{}, err
	}
	if err := deps.ParentStore.Save(ctx, p); err != nil {
		return parent.User{}, err
	}

	slog.Info("club_event", "event", "parent_created", "parent_id", p.ID, "email", p.Email)
	return p, nil
}

// DeleteParentUserDeps holds dependencies for DeleteParentUser.
type DeleteParentUserDeps struct {
	ParentStore     ParentUserStoreForAdmin
	ConnectionStore ConnectionStoreForAdmin
	SessionStore    ParentSessionPurger
}

// ExecuteDeleteParentUser removes a parent along with their sessions
// and athlete links.
// PRE: ParentID refers to an existing parent user
// POST: the parent, their sessions, and their connections are gone
func ExecuteDeleteParentUser(ctx context.Context, parentID string, deps DeleteParentUserDeps) error {
	if parentID == "" {
		return errors.New("parent ID is required")
	}
	p, err := deps.ParentStore.GetByID(ctx, parentID)
	if err != nil {
		return errors.New("parent not found")
	}

	if err := deps.SessionStore.DeleteByParentID(ctx, p.ID); err != nil {
		return err
	}
	connections, err := deps.ConnectionStore.ListByParentID(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, conn := range connections {
		if err := deps.ConnectionStore.Delete(ctx, conn.ID); err != nil {
			return err
		}
	}
	if err := deps.ParentStore.Delete(ctx, p.ID); err != nil {
		return err
	}

	slog.Info("club_event", "event", "parent_deleted", "parent_id", p.ID)
	return nil
}

// LinkParentInput carries input for the link-parent orchestrator.
type LinkParentInput struct {
	ParentID     string
	AthleteID    string
	Relationship string
}

// LinkParentDeps holds dependencies for LinkParent.
type LinkParentDeps struct {
	ParentStore     ParentUserStoreForAdmin
	AthleteStore    AthleteStoreForOrchestrator
	ConnectionStore ConnectionStoreForAdmin
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteLinkParent connects a parent to one athlete they may view.
// PRE: parent and athlete exist; athlete is active; pair is unlinked
// POST: one connection exists for (parent, athlete)
func ExecuteLinkParent(ctx context.Context, input LinkParentInput, deps LinkParentDeps) (parent.Connection, error) {
	if input.ParentID == "" {
		return parent.Connection{}, parent.ErrNoParent
	}
	if input.AthleteID == "" {
		return parent.Connection{}, parent.ErrNoAthlete
	}

	p, err := deps.ParentStore.GetByID(ctx, input.ParentID)
	if err != nil {
		return parent.Connection{}, errors.New("parent not found")
	}
	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return parent.Connection{}, errors.New("athlete not found")
	}
	if a.IsArchived() {
		return parent.Connection{}, ErrAthleteArchived
	}

	if _, err := deps.ConnectionStore.GetByParentAndAthlete(ctx, p.ID, a.ID); err == nil {
		return parent.Connection{}, parent.ErrAlreadyLinked
	}

	conn := parent.Connection{
		ID:           deps.GenerateID(),
		ParentID:     p.ID,
		AthleteID:    a.ID,
		Relationship: input.Relationship,
		CreatedAt:    deps.Now(),
	}
	if err := conn.Validate(); err != nil {
		return parent.Connection{}, err
	}
	if err := deps.ConnectionStore.Save(ctx, conn); err != nil {
		return parent.Connection{}, err
	}

	slog.Info("club_event", "event", "parent_linked", "parent_id", p.ID, "athlete_id", a.ID)
	return conn, nil
}

// UnlinkParentDeps holds dependencies for UnlinkParent.
type UnlinkParentDeps struct {
	ConnectionStore ConnectionStoreForAdmin
}

// ExecuteUnlinkParent removes a parent-athlete connection.
// PRE: the pair is linked
// POST: the connection is deleted
func ExecuteUnlinkParent(ctx context.Context, parentID, athleteID string, deps UnlinkParentDeps) error {
	if parentID == "" || athleteID == "" {
		return errors.New("parent ID and athlete ID are required")
	}
	conn, err := deps.ConnectionStore.GetByParentAndAthlete(ctx, parentID, athleteID)
	if err != nil {
		return errors.New("connection not found")
	}
	if err := deps.ConnectionStore.Delete(ctx, conn.ID); err != nil {
		return err
	}
	slog.Info("club_event", "event", "parent_unlinked", "parent_id", parentID, "athlete_id", athleteID)
	return nil
}
