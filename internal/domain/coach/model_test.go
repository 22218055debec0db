package coach_test

import (
	"testing"

	"clubhouse/internal/domain/coach"
)

func TestCoach_Validate(t *testing.T) {
	tests := []struct {
		name    string
		coach   coach.Coach
		wantErr error
	}{
		{
			name: "valid coach",
			coach: coach.Coach{
				ID:     "coach-1",
				ClubID: "club-1",
				Name:   "Alex Tan",
				Email:  "alex@example.com",
				Status: coach.StatusActive,
			},
			wantErr: nil,
		},
		{
			name: "empty name",
			coach: coach.Coach{
				ClubID: "club-1",
				Name:   "",
				Email:  "alex@example.com",
				Status: coach.StatusActive,
			},
			wantErr: coach.ErrEmptyName,
		},
		{
			name: "invalid email",
			coach: coach.Coach{
				ClubID: "club-1",
				Name:   "Alex Tan",
				Email:  "alex.example.com",
				Status: coach.StatusActive,
			},
			wantErr: coach.ErrInvalidMail,
		},
		{
			name: "missing club",
			coach: coach.Coach{
				Name:   "Alex Tan",
				Email:  "alex@example.com",
				Status: coach.StatusActive,
			},
			wantErr: coach.ErrNoClub,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.coach.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCoach_Validate_BadStatus(t *testing.T) {
	c := coach.Coach{
		ID:     "coach-1",
		ClubID: "club-1",
		Name:   "Alex Tan",
		Email:  "alex@example.com",
		Status: "retired",
	}
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestCoach_ArchiveRestore(t *testing.T) {
	c := coach.Coach{ID: "coach-1", Status: coach.StatusActive}

	if err := c.Archive(); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if !c.IsArchived() {
		t.Error("expected coach to be archived")
	}
	if err := c.Archive(); err != coach.ErrAlreadyArchived {
		t.Errorf("second Archive() error = %v, want ErrAlreadyArchived", err)
	}

	if err := c.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if c.Status != coach.StatusActive {
		t.Errorf("Status = %q, want active", c.Status)
	}
	if err := c.Restore(); err != coach.ErrNotArchived {
		t.Errorf("second Restore() error = %v, want ErrNotArchived", err)
	}
}
