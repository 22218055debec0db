package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clubhouse/internal/domain/account"
	"clubhouse/internal/domain/announcement"
	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/club"
	"clubhouse/internal/domain/coach"
	"clubhouse/internal/domain/leaverequest"
	"clubhouse/internal/domain/membership"
	"clubhouse/internal/domain/parent"
	"clubhouse/internal/domain/trainingsession"

	"github.com/google/uuid"
)

// DemoSeedDeps holds all stores needed for demo data seeding.
type DemoSeedDeps struct {
	AccountStore      demoAccountStore
	ClubStore         demoClubStore
	AthleteStore      demoAthleteStore
	CoachStore        demoCoachStore
	SessionStore      demoSessionStore
	AttendanceStore   demoAttendanceStore
	LeaveStore        demoLeaveStore
	AnnouncementStore demoAnnouncementStore
	ApplicationStore  demoApplicationStore
	ParentStore       demoParentStore
	ConnectionStore   demoConnectionStore
}

type demoAccountStore interface {
	Save(ctx context.Context, a account.Account) error
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}
type demoClubStore interface {
	Save(ctx context.Context, c club.Club) error
	List(ctx context.Context) ([]club.Club, error)
}
type demoAthleteStore interface {
	Save(ctx context.Context, a athlete.Athlete) error
}
type demoCoachStore interface {
	Save(ctx context.Context, c coach.Coach) error
}
type demoSessionStore interface {
	Save(ctx context.Context, s trainingsession.Session) error
}
type demoAttendanceStore interface {
	Save(ctx context.Context, r attendance.Record) error
}
type demoLeaveStore interface {
	Save(ctx context.Context, r leaverequest.Request) error
}
type demoAnnouncementStore interface {
	Save(ctx context.Context, a announcement.Announcement) error
}
type demoApplicationStore interface {
	Save(ctx context.Context, a membership.Application) error
}
type demoParentStore interface {
	Save(ctx context.Context, p parent.User) error
	GetByEmail(ctx context.Context, email string) (parent.User, error)
}
type demoConnectionStore interface {
	Save(ctx context.Context, c parent.Connection) error
}

// ExecuteSeedDemo populates the database with a realistic two-club
// deployment for local development. Idempotent: skips entirely once
// any club exists.
func ExecuteSeedDemo(ctx context.Context, deps DemoSeedDeps, adminAccountID string) error {
	existing, err := deps.ClubStore.List(ctx)
	if err != nil {
		return fmt.Errorf("seed_demo: list clubs: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("seed_event", "event", "demo_skip", "reason", "already_seeded")
		return nil
	}
	now := time.Now()

	// --- Clubs ---
	harbour := club.Club{
		ID:          uuid.New().String(),
		Name:        "Harbour City Athletics",
		Code:        "harbour-city",
		Description: "Track and field squad training out of the Harbour City stadium.",
		CreatedAt:   now,
	}
	westgate := club.Club{
		ID:          uuid.New().String(),
		Name:        "Westgate Swim Club",
		Code:        "westgate-swim",
		Description: "Competitive and learn-to-swim squads at the Westgate pool complex.",
		CreatedAt:   now,
	}
	for _, c := range []club.Club{harbour, westgate} {
		if err := deps.ClubStore.Save(ctx, c); err != nil {
			return fmt.Errorf("seed club %s: %w", c.Name, err)
		}
	}

	// --- Coach account ---
	coachAccountID := ""
	existingCoach, coachErr := deps.AccountStore.GetByEmail(ctx, "coach@clubhouse.nz")
	if coachErr != nil {
		coachAcct := account.Account{
			ID:        uuid.New().String(),
			Email:     "coach@clubhouse.nz",
			Role:      account.RoleCoach,
			Status:    account.StatusActive,
			CreatedAt: now,
		}
		if err := coachAcct.SetPassword("clubhouse12345!"); err != nil {
			return fmt.Errorf("seed coach password: %w", err)
		}
		if err := deps.AccountStore.Save(ctx, coachAcct); err != nil {
			return fmt.Errorf("seed coach account: %w", err)
		}
		coachAccountID = coachAcct.ID
		slog.Info("seed_event", "event", "coach_account_created", "email", "coach@clubhouse.nz")
	} else {
		coachAccountID = existingCoach.ID
	}

	// --- Coaches ---
	type coachSeed struct {
		Name      string
		Email     string
		Bio       string
		ClubID    string
		AccountID string
	}
	coachRows := []coachSeed{
		{"Mere Kingi", "coach@clubhouse.nz", "Sprints and relays. NZ track team 2014-2018.", harbour.ID, coachAccountID},
		{"Rob Fletcher", "rob.f@clubhouse.nz", "Middle distance and cross country.", harbour.ID, ""},
		{"Tessa Nguyen", "tessa.n@clubhouse.nz", "Head swim coach, bronze accreditation.", westgate.ID, ""},
	}
	coachIDs := make([]string, len(coachRows))
	for i, cs := range coachRows {
		id := uuid.New().String()
		coachIDs[i] = id
		c := coach.Coach{
			ID:        id,
			ClubID:    cs.ClubID,
			AccountID: cs.AccountID,
			Name:      cs.Name,
			Email:     cs.Email,
			Bio:       cs.Bio,
			Status:    coach.StatusActive,
			CreatedAt: now,
		}
		if err := deps.CoachStore.Save(ctx, c); err != nil {
			return fmt.Errorf("seed coach %s: %w", cs.Name, err)
		}
	}

	// --- Athlete account (for testing athlete login) ---
	athleteAccountID := ""
	_, athleteAcctErr := deps.AccountStore.GetByEmail(ctx, "kauri.t@email.com")
	if athleteAcctErr != nil {
		athleteAcct := account.Account{
			ID:        uuid.New().String(),
			Email:     "kauri.t@email.com",
			Role:      account.RoleAthlete,
			Status:    account.StatusActive,
			CreatedAt: now,
		}
		if err := athleteAcct.SetPassword("clubhouse12345!"); err != nil {
			return fmt.Errorf("seed athlete password: %w", err)
		}
		if err := deps.AccountStore.Save(ctx, athleteAcct); err != nil {
			return fmt.Errorf("seed athlete account: %w", err)
		}
		athleteAccountID = athleteAcct.ID
		slog.Info("seed_event", "event", "athlete_account_created", "email", "kauri.t@email.com")
	}

	// --- Athletes ---
	type athleteSeed struct {
		Name      string
		Email     string
		BirthDate string
		ClubID    string
	}
	roster := []athleteSeed{
		{"Kauri Te Rangi", "kauri.t@email.com", "2004-03-18", harbour.ID},
		{"Isla Morrison", "isla.m@email.com", "2006-11-02", harbour.ID},
		{"Ben Carter", "ben.c@email.com", "2003-07-29", harbour.ID},
		{"Amaia Fong", "amaia.f@email.com", "2005-01-12", harbour.ID},
		{"Jack Waititi", "jack.w@email.com", "2007-09-05", harbour.ID},
		{"Sophie Lindqvist", "sophie.l@email.com", "2004-06-21", harbour.ID},
		{"Theo Brooks", "theo.b@email.com", "2012-02-14", westgate.ID},
		{"Holly Tamihana", "holly.t@email.com", "2011-08-30", westgate.ID},
		{"Oscar Reid", "oscar.r@email.com", "2005-12-09", westgate.ID},
		{"Priya Sharma", "priya.s@email.com", "2006-04-25", westgate.ID},
		{"Lucas Meyer", "lucas.m@email.com", "2004-10-17", westgate.ID},
		{"Ewa Kowalski", "ewa.k@email.com", "2013-05-03", westgate.ID},
	}
	athleteIDs := make([]string, len(roster))
	for i, as := range roster {
		id := uuid.New().String()
		athleteIDs[i] = id
		a := athlete.Athlete{
			ID:               id,
			ClubID:           as.ClubID,
			Name:             as.Name,
			Email:            as.Email,
			BirthDate:        as.BirthDate,
			EmergencyContact: "027 555 0" + fmt.Sprintf("%03d", i+100),
			Status:           athlete.StatusActive,
			CreatedAt:        now,
		}
		if i == 0 {
			a.AccountID = athleteAccountID
		}
		if err := deps.AthleteStore.Save(ctx, a); err != nil {
			return fmt.Errorf("seed athlete %s: %w", as.Name, err)
		}
	}

	// --- Sessions: four weeks back for history, one week forward ---
	type slotSeed struct {
		Weekday  time.Weekday
		Start    string
		End      string
		Title    string
		Location string
		ClubID   string
		CoachID  string
	}
	timetable := []slotSeed{
		{time.Tuesday, "18:00", "19:30", "Sprint Squad", "Harbour City stadium", harbour.ID, coachIDs[0]},
		{time.Thursday, "18:00", "19:30", "Sprint Squad", "Harbour City stadium", harbour.ID, coachIDs[0]},
		{time.Saturday, "09:00", "10:30", "Distance Group", "Harbour City stadium", harbour.ID, coachIDs[1]},
		{time.Monday, "06:00", "07:00", "Morning Swim", "Westgate pool, lanes 1-4", westgate.ID, coachIDs[2]},
		{time.Wednesday, "06:00", "07:00", "Morning Swim", "Westgate pool, lanes 1-4", westgate.ID, coachIDs[2]},
		{time.Saturday, "08:00", "09:00", "Junior Squad", "Westgate pool, learners pool", westgate.ID, coachIDs[2]},
	}

	type pastSession struct {
		ID     string
		ClubID string
		Date   time.Time
	}
	var history []pastSession
	var upcomingID string
	for daysBack := 28; daysBack >= -7; daysBack-- {
		date := now.AddDate(0, 0, -daysBack)
		for _, slot := range timetable {
			if date.Weekday() != slot.Weekday {
				continue
			}
			id := uuid.New().String()
			s := trainingsession.Session{
				ID:        id,
				ClubID:    slot.ClubID,
				CoachID:   slot.CoachID,
				Title:     slot.Title,
				Location:  slot.Location,
				Date:      date.Format("2006-01-02"),
				StartTime: slot.Start,
				EndTime:   slot.End,
				Capacity:  20,
				Status:    trainingsession.StatusScheduled,
				CreatedAt: now.AddDate(0, 0, -28),
				UpdatedAt: now.AddDate(0, 0, -28),
			}
			// One upcoming cancellation so the roster shows the path.
			if daysBack == -3 && slot.ClubID == westgate.ID && slot.Title == "Morning Swim" {
				s.Status = trainingsession.StatusCancelled
				s.CancelReason = "Pool closed for maintenance"
				s.CancelledAt = now
			}
			if err := deps.SessionStore.Save(ctx, s); err != nil {
				return fmt.Errorf("seed session: %w", err)
			}
			if daysBack > 0 {
				history = append(history, pastSession{ID: id, ClubID: slot.ClubID, Date: date})
			}
			if daysBack == -2 && slot.ClubID == harbour.ID && upcomingID == "" {
				upcomingID = id
			}
		}
	}

	// --- Attendance over the past four weeks ---
	// Rough weekly frequency per roster slot; juniors train less.
	trainFreq := []int{3, 2, 3, 1, 2, 2, 1, 1, 2, 2, 3, 1}
	records := 0
	for i, athleteID := range athleteIDs {
		attended := 0
		for _, ps := range history {
			if ps.ClubID != roster[i].ClubID {
				continue
			}
			if attended%4 >= trainFreq[i] {
				attended++
				continue
			}
			attended++
			r := attendance.Record{
				ID:          uuid.New().String(),
				SessionID:   ps.ID,
				AthleteID:   athleteID,
				CheckedInAt: ps.Date.Add(18 * time.Hour),
				Method:      attendance.MethodCoach,
				RecordedBy:  coachAccountID,
			}
			if err := deps.AttendanceStore.Save(ctx, r); err != nil {
				return fmt.Errorf("seed attendance: %w", err)
			}
			records++
		}
	}

	// --- A pending leave request on an upcoming session ---
	if upcomingID != "" {
		lr := leaverequest.Request{
			ID:          uuid.New().String(),
			SessionID:   upcomingID,
			AthleteID:   athleteIDs[1],
			Reason:      "School exams this week, resting up.",
			Status:      leaverequest.StatusSubmitted,
			RequestedAt: now,
		}
		if err := deps.LeaveStore.Save(ctx, lr); err != nil {
			return fmt.Errorf("seed leave request: %w", err)
		}
	}

	// --- Announcements ---
	announcements := []announcement.Announcement{
		{ID: uuid.New().String(), ClubID: harbour.ID, Audience: announcement.AudienceClub, Status: announcement.StatusPublished, Title: "Club champs entries close Friday", Body: "Get your entries in for the **club championships**. Forms at the clubrooms or email the office.", Color: announcement.ColorRed, Pinned: true, PinnedAt: now.AddDate(0, 0, -2), CreatedBy: adminAccountID, PublishedBy: adminAccountID, AuthorName: "Club Admin", CreatedAt: now.AddDate(0, 0, -4), UpdatedAt: now.AddDate(0, 0, -2), PublishedAt: now.AddDate(0, 0, -4)},
		{ID: uuid.New().String(), ClubID: westgate.ID, Audience: announcement.AudienceParents, Status: announcement.StatusPublished, Title: "Pool maintenance next week", Body: "The main pool is closed Monday to Wednesday next week. Junior Squad moves to the learners pool.", CreatedBy: adminAccountID, PublishedBy: adminAccountID, AuthorName: "Club Admin", CreatedAt: now.AddDate(0, 0, -1), UpdatedAt: now.AddDate(0, 0, -1), PublishedAt: now.AddDate(0, 0, -1)},
		{ID: uuid.New().String(), ClubID: "", Audience: announcement.AudienceClub, Status: announcement.StatusPublished, Title: "Season registrations open", Body: "Registrations for the winter season are open across all clubs. Returning members get priority until the end of the month.", Color: announcement.ColorGreen, CreatedBy: adminAccountID, PublishedBy: adminAccountID, AuthorName: "Club Admin", CreatedAt: now.AddDate(0, 0, -7), UpdatedAt: now.AddDate(0, 0, -7), PublishedAt: now.AddDate(0, 0, -7)},
		{ID: uuid.New().String(), ClubID: harbour.ID, Audience: announcement.AudienceCoaches, Status: announcement.StatusDraft, Title: "Coach catchup agenda", Body: "Draft agenda for the monthly coach catchup. Add items before Thursday.", CreatedBy: adminAccountID, AuthorName: "Club Admin", CreatedAt: now, UpdatedAt: now},
	}
	for _, a := range announcements {
		if err := deps.AnnouncementStore.Save(ctx, a); err != nil {
			return fmt.Errorf("seed announcement: %w", err)
		}
	}

	// --- A pending membership application ---
	app := membership.Application{
		ID:               uuid.New().String(),
		ClubID:           harbour.ID,
		ApplicantName:    "Ruby Ngata",
		Email:            "ruby.ngata@email.com",
		BirthDate:        "2008-02-11",
		EmergencyContact: "Hemi Ngata 021 555 0199",
		Message:          "Moving from the Wellington club, ran 100m and 200m at regionals.",
		Status:           membership.StatusPending,
		CreatedAt:        now.AddDate(0, 0, -1),
		UpdatedAt:        now.AddDate(0, 0, -1),
	}
	if err := deps.ApplicationStore.Save(ctx, app); err != nil {
		return fmt.Errorf("seed application: %w", err)
	}

	// --- Parent portal user linked to the two youngest swimmers ---
	_, parentErr := deps.ParentStore.GetByEmail(ctx, "parent@email.com")
	if parentErr != nil {
		p := parent.User{
			ID:        uuid.New().String(),
			Email:     "parent@email.com",
			Name:      "Dana Brooks",
			CreatedAt: now,
		}
		if err := p.SetPassword("clubhouse12345!"); err != nil {
			return fmt.Errorf("seed parent password: %w", err)
		}
		if err := deps.ParentStore.Save(ctx, p); err != nil {
			return fmt.Errorf("seed parent user: %w", err)
		}
		for _, idx := range []int{6, 11} {
			conn := parent.Connection{
				ID:           uuid.New().String(),
				ParentID:     p.ID,
				AthleteID:    athleteIDs[idx],
				Relationship: "guardian",
				CreatedAt:    now,
			}
			if err := deps.ConnectionStore.Save(ctx, conn); err != nil {
				return fmt.Errorf("seed parent connection: %w", err)
			}
		}
		slog.Info("seed_event", "event", "parent_account_created", "email", "parent@email.com")
	}

	slog.Info("seed_event", "event", "demo_seeded",
		"clubs", 2,
		"coaches", len(coachRows),
		"athletes", len(roster),
		"attendance_records", records,
		"announcements", len(announcements),
	)
	return nil
}
