package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/club"
)

// AthleteStoreForOrchestrator defines the store interface needed by athlete orchestrators.
type AthleteStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (athlete.Athlete, error)
	GetByEmail(ctx context.Context, email string) (athlete.Athlete, error)
	Save(ctx context.Context, a athlete.Athlete) error
}

// ClubLookupStore resolves club IDs for membership checks.
type ClubLookupStore interface {
	GetByID(ctx context.Context, id string) (club.Club, error)
}

var ErrAthleteEmailTaken = errors.New("an athlete with this email already exists")

// --- Create Athlete ---

// CreateAthleteInput carries input for the create-athlete orchestrator.
type CreateAthleteInput struct {
	ClubID           string
	Name             string
	Email            string
	BirthDate        string
	EmergencyContact string
}

// CreateAthleteDeps holds dependencies for CreateAthlete.
type CreateAthleteDeps struct {
	AthleteStore AthleteStoreForOrchestrator
	ClubStore    ClubLookupStore
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteCreateAthlete registers an athlete in a club. The athlete has no
// login until an account is linked through the application approval flow.
// PRE: ClubID refers to an existing club; email unique among athletes
// POST: Athlete persisted with Status=active and no AccountID
func ExecuteCreateAthlete(ctx context.Context, input CreateAthleteInput, deps CreateAthleteDeps) (athlete.Athlete, error) {
	if input.ClubID == "" {
		return athlete.Athlete{}, errors.New("club ID is required")
	}
	if _, err := deps.ClubStore.GetByID(ctx, input.ClubID); err != nil {
		return athlete.Athlete{}, errors.New("club not found")
	}
	if _, err := deps.AthleteStore.GetByEmail(ctx, input.Email); err == nil {
		return athlete.Athlete{}, ErrAthleteEmailTaken
	}

	a := athlete.Athlete{
		ID:               deps.GenerateID(),
		ClubID:           input.ClubID,
		Name:             input.Name,
		Email:            input.Email,
		BirthDate:        input.BirthDate,
		EmergencyContact: input.EmergencyContact,
		Status:           athlete.StatusActive,
		CreatedAt:        deps.Now(),
	}

	if err := a.Validate(); err != nil {
		return athlete.Athlete{}, err
	}

	if err := deps.AthleteStore.Save(ctx, a); err != nil {
		return athlete.Athlete{}, err
	}

	slog.Info("athlete_event", "event", "athlete_created", "athlete_id", a.ID, "club_id", a.ClubID)
	return a, nil
}

// --- Edit Athlete ---

// EditAthleteInput carries input for the edit-athlete orchestrator. Empty
// fields keep their current value; EmergencyContact is always overwritten.
type EditAthleteInput struct {
	AthleteID        string
	Name             string
	Email            string
	BirthDate        string
	EmergencyContact string
	Status           string
}

// EditAthleteDeps holds dependencies for EditAthlete.
type EditAthleteDeps struct {
	AthleteStore AthleteStoreForOrchestrator
}

// ExecuteEditAthlete updates an athlete's profile fields.
// PRE: AthleteID refers to an existing athlete
// POST: Fields updated and validated
func ExecuteEditAthlete(ctx context.Context, input EditAthleteInput, deps EditAthleteDeps) (athlete.Athlete, error) {
	if input.AthleteID == "" {
		return athlete.Athlete{}, errors.New("athlete ID is required")
	}

	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return athlete.Athlete{}, errors.New("athlete not found")
	}

	if input.Name != "" {
		a.Name = input.Name
	}
	if input.Email != "" && input.Email != a.Email {
		if other, err := deps.AthleteStore.GetByEmail(ctx, input.Email); err == nil && other.ID != a.ID {
			return athlete.Athlete{}, ErrAthleteEmailTaken
		}
		a.Email = input.Email
	}
	if input.BirthDate != "" {
		a.BirthDate = input.BirthDate
	}
	a.EmergencyContact = input.EmergencyContact
	if input.Status != "" {
		a.Status = input.Status
	}

	if err := a.Validate(); err != nil {
		return athlete.Athlete{}, err
	}

	if err := deps.AthleteStore.Save(ctx, a); err != nil {
		return athlete.Athlete{}, err
	}

	slog.Info("athlete_event", "event", "athlete_edited", "athlete_id", a.ID)
	return a, nil
}

// --- Archive / Restore Athlete ---

// ArchiveAthleteInput carries input for the archive/restore orchestrator.
type ArchiveAthleteInput struct {
	AthleteID string
	Restore   bool // true restores an archived athlete
}

// ArchiveAthleteDeps holds dependencies for ArchiveAthlete.
type ArchiveAthleteDeps struct {
	AthleteStore AthleteStoreForOrchestrator
}

// ExecuteArchiveAthlete archives or restores an athlete. Archived
// athletes cannot check in and are hidden from parent linking.
// PRE: AthleteID refers to an existing athlete
// POST: Status flipped between active and archived
func ExecuteArchiveAthlete(ctx context.Context, input ArchiveAthleteInput, deps ArchiveAthleteDeps) error {
	if input.AthleteID == "" {
		return errors.New("athlete ID is required")
	}

	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return errors.New("athlete not found")
	}

	if input.Restore {
		if err := a.Restore(); err != nil {
			return err
		}
	} else {
		if err := a.Archive(); err != nil {
			return err
		}
	}

	if err := deps.AthleteStore.Save(ctx, a); err != nil {
		return err
	}

	action := "athlete_archived"
	if input.Restore {
		action = "athlete_restored"
	}
	slog.Info("athlete_event", "event", action, "athlete_id", a.ID)
	return nil
}
