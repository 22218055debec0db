package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	web "clubhouse/internal/adapters/http"
	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/adapters/http/perf"
	"clubhouse/internal/adapters/storage"
	accountStore "clubhouse/internal/adapters/storage/account"
	announcementStore "clubhouse/internal/adapters/storage/announcement"
	athleteStore "clubhouse/internal/adapters/storage/athlete"
	attendanceStore "clubhouse/internal/adapters/storage/attendance"
	clubStore "clubhouse/internal/adapters/storage/club"
	coachStore "clubhouse/internal/adapters/storage/coach"
	featureFlagStore "clubhouse/internal/adapters/storage/featureflag"
	leaveStore "clubhouse/internal/adapters/storage/leaverequest"
	loginSessionStore "clubhouse/internal/adapters/storage/loginsession"
	membershipStore "clubhouse/internal/adapters/storage/membership"
	notificationStore "clubhouse/internal/adapters/storage/notification"
	outboxStore "clubhouse/internal/adapters/storage/outbox"
	parentStore "clubhouse/internal/adapters/storage/parent"
	sessionStore "clubhouse/internal/adapters/storage/trainingsession"
	"clubhouse/internal/application/orchestrators"
)

const (
	adminEmail    = "admin@test.club"
	adminPassword = "TestPass123!x"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	AdminID string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Create temp directory for the database
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Run migrations
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	// Create stores
	acctStore := accountStore.NewSQLiteStore(db)
	stores := &web.Stores{
		AccountStore:       acctStore,
		ClubStore:          clubStore.NewSQLiteStore(db),
		AthleteStore:       athleteStore.NewSQLiteStore(db),
		CoachStore:         coachStore.NewSQLiteStore(db),
		ApplicationStore:   membershipStore.NewSQLiteStore(db),
		SessionStore:       sessionStore.NewSQLiteStore(db),
		AttendanceStore:    attendanceStore.NewSQLiteStore(db),
		LeaveStore:         leaveStore.NewSQLiteStore(db),
		AnnouncementStore:  announcementStore.NewSQLiteStore(db),
		NotificationStore:  notificationStore.NewSQLiteStore(db),
		OutboxStore:        outboxStore.NewSQLiteStore(db),
		FeatureFlagStore:   featureFlagStore.NewSQLiteStore(db),
		LoginSessionStore:  loginSessionStore.NewSQLiteStore(db),
		ParentUserStore:    parentStore.NewUserSQLiteStore(db),
		ParentSessionStore: parentStore.NewSessionSQLiteStore(db),
		ConnectionStore:    parentStore.NewConnectionSQLiteStore(db),
	}

	// Seed admin (without PasswordChangeRequired so login goes straight to dashboard)
	ctx := context.Background()
	adminID, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
		Email:                  adminEmail,
		Password:               adminPassword,
		Role:                   "admin",
		PasswordChangeRequired: false,
	}, orchestrators.CreateAccountDeps{
		AccountStore: acctStore,
		GenerateID:   uuid.NewString,
		Now:          time.Now,
	})
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	// Seed feature flags so the portals are reachable
	if _, err := orchestrators.ExecuteSeedFeatureFlags(ctx, stores.FeatureFlagStore); err != nil {
		t.Fatalf("failed to seed feature flags: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so the relative static path works
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)

	// Page loads fire several requests at once; loosen the per-IP limit
	web.RateLimitPerSecond = 1000

	// Start HTTP server
	collector := perf.NewCollector(perf.DefaultRingSize)
	mux := web.NewMux("static", stores, collector)
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Start Playwright
	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		AdminID: adminID,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// waitForCSRFToken waits until the page script has fetched the CSRF
// token and filled the hidden form field. Submitting before that loses
// the post to the CSRF check.
func waitForCSRFToken(t *testing.T, page playwright.Page) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		val, err := page.Evaluate(`() => {
			const el = document.querySelector('input[name="gorilla.csrf.Token"]');
			return el ? el.value : "";
		}`)
		if err == nil {
			if s, ok := val.(string); ok && s != "" {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("CSRF token never arrived")
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// login signs in as the seeded admin and waits for the dashboard redirect.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	waitForCSRFToken(t, page)
	if err := page.Locator("input[name=Email]").Fill(adminEmail); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=Password]").Fill(adminPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/dashboard", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to dashboard: %v", err)
	}
}

// cookieValue returns the named cookie's value from the page's browser
// context, or the empty string when it is not set.
func cookieValue(t *testing.T, page playwright.Page, name string) string {
	t.Helper()
	cookies, err := page.Context().Cookies()
	if err != nil {
		t.Fatalf("failed to read cookies: %v", err)
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// bodyText returns the visible text of the current page.
func bodyText(t *testing.T, page playwright.Page) string {
	t.Helper()
	text, err := page.Locator("body").TextContent()
	if err != nil {
		t.Fatalf("failed to read page text: %v", err)
	}
	return text
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
