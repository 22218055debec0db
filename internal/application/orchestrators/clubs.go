package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/club"
)

// ClubStoreForOrchestrator defines the store interface needed by club orchestrators.
type ClubStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (club.Club, error)
	GetByCode(ctx context.Context, code string) (club.Club, error)
	Save(ctx context.Context, c club.Club) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]club.Club, error)
}

var (
	ErrClubNameTaken = errors.New("a club with this name already exists")
	ErrClubCodeTaken = errors.New("a club with this code already exists")
	ErrClubInUse     = errors.New("club still has athletes, coaches, or sessions and cannot be deleted")
)

// --- Create Club ---

// CreateClubInput carries input for the create-club orchestrator.
type CreateClubInput struct {
	Name        string
	Code        string
	Description string
}

// CreateClubDeps holds dependencies for CreateClub.
type CreateClubDeps struct {
	ClubStore  ClubStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateClub creates a new club.
// PRE: Name and Code are non-empty; both unique across the deployment
// POST: Club persisted with generated ID
func ExecuteCreateClub(ctx context.Context, input CreateClubInput, deps CreateClubDeps) (club.Club, error) {
	c := club.Club{
		ID:          deps.GenerateID(),
		Name:        input.Name,
		Code:        input.Code,
		Description: input.Description,
		CreatedAt:   deps.Now(),
	}

	if err := c.Validate(); err != nil {
		return club.Club{}, err
	}

	existing, err := deps.ClubStore.List(ctx)
	if err != nil {
		return club.Club{}, err
	}
	for _, other := range existing {
		if other.Name == c.Name {
			return club.Club{}, ErrClubNameTaken
		}
	}
	if _, err := deps.ClubStore.GetByCode(ctx, c.Code); err == nil {
		return club.Club{}, ErrClubCodeTaken
	}

	if err := deps.ClubStore.Save(ctx, c); err != nil {
		return club.Club{}, err
	}

	slog.Info("club_event", "event", "club_created", "club_id", c.ID, "name", c.Name)
	return c, nil
}

// --- Edit Club ---

// EditClubInput carries input for the edit-club orchestrator. Empty
// fields keep their current value.
type EditClubInput struct {
	ClubID      string
	Name        string
	Code        string
	Description string
}

// EditClubDeps holds dependencies for EditClub.
type EditClubDeps struct {
	ClubStore ClubStoreForOrchestrator
}

// ExecuteEditClub updates a club's name, code, or description.
// PRE: ClubID refers to an existing club
// POST: Club fields updated; uniqueness of name and code preserved
func ExecuteEditClub(ctx context.Context, input EditClubInput, deps EditClubDeps) (club.Club, error) {
	if input.ClubID == "" {
		return club.Club{}, errors.New("club ID is required")
	}

	c, err := deps.ClubStore.GetByID(ctx, input.ClubID)
	if err != nil {
		return club.Club{}, errors.New("club not found")
	}

	if input.Name != "" && input.Name != c.Name {
		existing, err := deps.ClubStore.List(ctx)
		if err != nil {
			return club.Club{}, err
		}
		for _, other := range existing {
			if other.ID != c.ID && other.Name == input.Name {
				return club.Club{}, ErrClubNameTaken
			}
		}
		c.Name = input.Name
	}
	if input.Code != "" && input.Code != c.Code {
		if other, err := deps.ClubStore.GetByCode(ctx, input.Code); err == nil && other.ID != c.ID {
			return club.Club{}, ErrClubCodeTaken
		}
		c.Code = input.Code
	}
	if input.Description != "" {
		c.Description = input.Description
	}

	if err := c.Validate(); err != nil {
		return club.Club{}, err
	}

	if err := deps.ClubStore.Save(ctx, c); err != nil {
		return club.Club{}, err
	}

	slog.Info("club_event", "event", "club_edited", "club_id", c.ID, "name", c.Name)
	return c, nil
}

// --- Delete Club ---

// DeleteClubInput carries input for the delete-club orchestrator.
type DeleteClubInput struct {
	ClubID string
}

// DeleteClubDeps holds dependencies for DeleteClub. The three counters
// guard referential integrity before the row is removed.
type DeleteClubDeps struct {
	ClubStore    ClubStoreForOrchestrator
	AthleteCount func(ctx context.Context, clubID string) (int, error)
	CoachCount   func(ctx context.Context, clubID string) (int, error)
	SessionCount func(ctx context.Context, clubID string) (int, error)
}

// ExecuteDeleteClub removes a club that nothing references.
// PRE: ClubID refers to an existing club
// POST: Club deleted, or ErrClubInUse when athletes/coaches/sessions remain
func ExecuteDeleteClub(ctx context.Context, input DeleteClubInput, deps DeleteClubDeps) error {
	if input.ClubID == "" {
		return errors.New("club ID is required")
	}

	c, err := deps.ClubStore.GetByID(ctx, input.ClubID)
	if err != nil {
		return errors.New("club not found")
	}

	counters := []func(ctx context.Context, clubID string) (int, error){
		deps.AthleteCount, deps.CoachCount, deps.SessionCount,
	}
	for _, count := range counters {
		if count == nil {
			continue
		}
		n, err := count(ctx, c.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrClubInUse
		}
	}

	if err := deps.ClubStore.Delete(ctx, c.ID); err != nil {
		return err
	}

	slog.Info("club_event", "event", "club_deleted", "club_id", c.ID, "name", c.Name)
	return nil
}
