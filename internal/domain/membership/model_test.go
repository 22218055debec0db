package membership_test

import (
	"testing"
	"time"

	"clubhouse/internal/domain/membership"
)

func validApplication() membership.Application {
	return membership.Application{
		ID:            "app-1",
		ClubID:        "club-1",
		ApplicantName: "Jordan Rivers",
		Email:         "jordan@example.com",
		Message:       "I would like to join the sprint squad.",
		Status:        membership.StatusPending,
		CreatedAt:     time.Now(),
	}
}

func TestApplication_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*membership.Application)
		wantErr bool
	}{
		{"valid pending", func(a *membership.Application) {}, false},
		{"valid with birth date", func(a *membership.Application) { a.BirthDate = "2009-11-30" }, false},
		{"empty name", func(a *membership.Application) { a.ApplicantName = " " }, true},
		{"invalid email", func(a *membership.Application) { a.Email = "jordan" }, true},
		{"missing club", func(a *membership.Application) { a.ClubID = "" }, true},
		{"bad birth date", func(a *membership.Application) { a.BirthDate = "30-11-2009" }, true},
		{"unknown status", func(a *membership.Application) { a.Status = "waitlisted" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(&app)
			err := app.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplication_Approve(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	app := validApplication()
	if err := app.Approve("acct-admin", now); err != nil {
		t.Fatalf("Approve() error = %v, want nil", err)
	}
	if app.Status != membership.StatusApproved {
		t.Errorf("Status = %v, want %v", app.Status, membership.StatusApproved)
	}
	if app.DecidedBy != "acct-admin" {
		t.Errorf("DecidedBy = %v, want acct-admin", app.DecidedBy)
	}
	if !app.DecidedAt.Equal(now) {
		t.Errorf("DecidedAt = %v, want %v", app.DecidedAt, now)
	}

	if err := app.Approve("acct-admin", now); err != membership.ErrNotPending {
		t.Errorf("Approve() twice error = %v, want %v", err, membership.ErrNotPending)
	}
}

func TestApplication_Reject(t *testing.T) {
	now := time.Now()

	app := validApplication()
	if err := app.Reject("acct-admin", "No open places this term", now); err != nil {
		t.Fatalf("Reject() error = %v, want nil", err)
	}
	if app.Status != membership.StatusRejected {
		t.Errorf("Status = %v, want %v", app.Status, membership.StatusRejected)
	}
	if app.DecisionNote != "No open places this term" {
		t.Errorf("DecisionNote = %q, want note preserved", app.DecisionNote)
	}

	app2 := validApplication()
	app2.Status = membership.StatusApproved
	if err := app2.Reject("acct-admin", "", now); err != membership.ErrNotPending {
		t.Errorf("Reject() on approved error = %v, want %v", err, membership.ErrNotPending)
	}
}

func TestApplication_RequestInfo(t *testing.T) {
	now := time.Now()

	app := validApplication()
	if err := app.RequestInfo("acct-admin", "Please add an emergency contact", now); err != nil {
		t.Fatalf("RequestInfo() error = %v, want nil", err)
	}
	if app.Status != membership.StatusInfoRequested {
		t.Errorf("Status = %v, want %v", app.Status, membership.StatusInfoRequested)
	}
	if app.InfoRequestNote == "" {
		t.Error("InfoRequestNote is empty, want note stored")
	}

	app2 := validApplication()
	if err := app2.RequestInfo("acct-admin", "   ", now); err != membership.ErrEmptyNote {
		t.Errorf("RequestInfo() with blank note error = %v, want %v", err, membership.ErrEmptyNote)
	}
}

func TestApplication_Resubmit(t *testing.T) {
	now := time.Now()

	app := validApplication()
	if err := app.RequestInfo("acct-admin", "Need contact details", now); err != nil {
		t.Fatalf("RequestInfo() error = %v", err)
	}
	if err := app.Resubmit("Added my contact details below.", now.Add(time.Hour)); err != nil {
		t.Fatalf("Resubmit() error = %v, want nil", err)
	}
	if app.Status != membership.StatusPending {
		t.Errorf("Status = %v, want %v", app.Status, membership.StatusPending)
	}
	if app.Message != "Added my contact details below." {
		t.Errorf("Message = %q, want resubmitted message", app.Message)
	}

	app2 := validApplication()
	if err := app2.Resubmit("hello", now); err != membership.ErrNotInfoRequested {
		t.Errorf("Resubmit() on pending error = %v, want %v", err, membership.ErrNotInfoRequested)
	}
}

func TestApplication_IsDecided(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{membership.StatusPending, false},
		{membership.StatusInfoRequested, false},
		{membership.StatusApproved, true},
		{membership.StatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			app := membership.Application{Status: tt.status}
			if got := app.IsDecided(); got != tt.want {
				t.Errorf("IsDecided() = %v, want %v", got, tt.want)
			}
		})
	}
}
