package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/coach"
)

// CoachStoreForOrchestrator defines the store interface needed by coach orchestrators.
type CoachStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (coach.Coach, error)
	GetByEmail(ctx context.Context, email string) (coach.Coach, error)
	Save(ctx context.Context, c coach.Coach) error
}

var ErrCoachEmailTaken = errors.New("a coach with this email already exists")

// --- Create Coach ---

// CreateCoachInput carries input for the create-coach orchestrator.
type CreateCoachInput struct {
	ClubID    string
	AccountID string
	Name      string
	Email     string
	Bio       string
}

// CreateCoachDeps holds dependencies for CreateCoach.
type CreateCoachDeps struct {
	CoachStore CoachStoreForOrchestrator
	ClubStore  ClubLookupStore
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateCoach registers a coach in a club.
// PRE: ClubID refers to an existing club; email unique among coaches
// POST: Coach persisted with Status=active
func ExecuteCreateCoach(ctx context.Context, input CreateCoachInput, deps CreateCoachDeps) (coach.Coach, error) {
	if input.ClubID == "" {
		return coach.Coach{}, errors.New("club ID is required")
	}
	if _, err := deps.ClubStore.GetByID(ctx, input.ClubID); err != nil {
		return coach.Coach{}, errors.New("club not found")
	}
	if _, err := deps.CoachStore.GetByEmail(ctx, input.Email); err == nil {
		return coach.Coach{}, ErrCoachEmailTaken
	}

	c := coach.Coach{
		ID:        deps.GenerateID(),
		ClubID:    input.ClubID,
		AccountID: input.AccountID,
		Name:      input.Name,
		Email:     input.Email,
		Bio:       input.Bio,
		Status:    coach.StatusActive,
		CreatedAt: deps.Now(),
	}

	if err := c.Validate(); err != nil {
		return coach.Coach{}, err
	}

	if err := deps.CoachStore.Save(ctx, c); err != nil {
		return coach.Coach{}, err
	}

	slog.Info("coach_event", "event", "coach_created", "coach_id", c.ID, "club_id", c.ClubID)
	return c, nil
}

// --- Edit Coach ---

// EditCoachInput carries input for the edit-coach orchestrator. Empty
// fields keep their current value; Bio is always overwritten.
type EditCoachInput struct {
	CoachID string
	Name    string
	Email   string
	Bio     string
}

// EditCoachDeps holds dependencies for EditCoach.
type EditCoachDeps struct {
	CoachStore CoachStoreForOrchestrator
}

// ExecuteEditCoach updates a coach's profile fields.
// PRE: CoachID refers to an existing coach
// POST: Fields updated and validated
func ExecuteEditCoach(ctx context.Context, input EditCoachInput, deps EditCoachDeps) (coach.Coach, error) {
	if input.CoachID == "" {
		return coach.Coach{}, errors.New("coach ID is required")
	}

	c, err := deps.CoachStore.GetByID(ctx, input.CoachID)
	if err != nil {
		return coach.Coach{}, errors.New("coach not found")
	}

	if input.Name != "" {
		c.Name = input.Name
	}
	if input.Email != "" && input.Email != c.Email {
		if other, err := deps.CoachStore.GetByEmail(ctx, input.Email); err == nil && other.ID != c.ID {
			return coach.Coach{}, ErrCoachEmailTaken
		}
		c.Email = input.Email
	}
	c.Bio = input.Bio

	if err := c.Validate(); err != nil {
		return coach.Coach{}, err
	}

	if err := deps.CoachStore.Save(ctx, c); err != nil {
		return coach.Coach{}, err
	}

	slog.Info("coach_event", "event", "coach_edited", "coach_id", c.ID)
	return c, nil
}

// --- Archive / Restore Coach ---

// ArchiveCoachInput carries input for the archive/restore orchestrator.
type ArchiveCoachInput struct {
	CoachID string
	Restore bool
}

// ArchiveCoachDeps holds dependencies for ArchiveCoach.
type ArchiveCoachDeps struct {
	CoachStore CoachStoreForOrchestrator
}

// ExecuteArchiveCoach archives or restores a coach. Archived coaches
// cannot be assigned to new sessions.
// PRE: CoachID refers to an existing coach
// POST: Status flipped between active and archived
func ExecuteArchiveCoach(ctx context.Context, input ArchiveCoachInput, deps ArchiveCoachDeps) error {
	if input.CoachID == "" {
		return errors.New("coach ID is required")
	}

	c, err := deps.CoachStore.GetByID(ctx, input.CoachID)
	if err != nil {
		return errors.New("coach not found")
	}

	if input.Restore {
		if err := c.Restore(); err != nil {
			return err
		}
	} else {
		if err := c.Archive(); err != nil {
			return err
		}
	}

	if err := deps.CoachStore.Save(ctx, c); err != nil {
		return err
	}

	action := "coach_archived"
	if input.Restore {
		action = "coach_restored"
	}
	slog.Info("coach_event", "event", action, "coach_id", c.ID)
	return nil
}
