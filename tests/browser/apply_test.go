package browser_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	membershipStore "clubhouse/internal/adapters/storage/membership"
	clubDomain "clubhouse/internal/domain/club"
	membershipDomain "clubhouse/internal/domain/membership"
)

// TestApply_SubmitsApplication covers the public application form end to
// end: an applicant with only a club code submits, gets the confirmation
// banner, and the application lands in the store as pending.
func TestApply_SubmitsApplication(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	ctx := context.Background()

	clubID := uuid.NewString()
	c := clubDomain.Club{
		ID:        clubID,
		Name:      "Harbour Rowing",
		Code:      "harbour-rowing",
		CreatedAt: time.Now(),
	}
	if err := app.Stores.ClubStore.Save(ctx, c); err != nil {
		t.Fatalf("failed to seed club: %v", err)
	}

	page := app.newPage(t)
	if _, err := page.Goto(app.BaseURL + "/apply"); err != nil {
		t.Fatalf("failed to navigate to apply: %v", err)
	}
	waitForCSRFToken(t, page)

	if err := page.Locator("input[name=ClubCode]").Fill("harbour-rowing"); err != nil {
		t.Fatalf("failed to fill club code: %v", err)
	}
	if err := page.Locator("input[name=ApplicantName]").Fill("Riley Park"); err != nil {
		t.Fatalf("failed to fill name: %v", err)
	}
	if err := page.Locator("input[name=Email]").Fill("riley@example.test"); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=BirthDate]").Fill("2008-04-12"); err != nil {
		t.Fatalf("failed to fill birth date: %v", err)
	}
	if err := page.Locator("input[name=EmergencyContact]").Fill("Jo Park 021 555 0199"); err != nil {
		t.Fatalf("failed to fill emergency contact: %v", err)
	}
	if err := page.Locator("textarea[name=Message]").Fill("Rowed two seasons at school."); err != nil {
		t.Fatalf("failed to fill message: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to submit application: %v", err)
	}

	// Post-redirect-get lands back on the form with the banner visible.
	if err := page.WaitForURL(app.BaseURL+"/apply?submitted=1", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("did not redirect to the confirmation view: %v", err)
	}
	if err := page.Locator("#submitted").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Error("confirmation banner not shown")
	}

	apps, err := app.Stores.ApplicationStore.List(ctx, membershipStore.ListFilter{ClubID: clubID})
	if err != nil {
		t.Fatalf("failed to list applications: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(apps))
	}
	if apps[0].ApplicantName != "Riley Park" || apps[0].Status != membershipDomain.StatusPending {
		t.Errorf("unexpected application: name=%q status=%q", apps[0].ApplicantName, apps[0].Status)
	}
}
