package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "clubhouse/internal/adapters/email"
	web "clubhouse/internal/adapters/http"
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
	outboxStorePkg "clubhouse/internal/adapters/storage/outbox"
	parentStore "clubhouse/internal/adapters/storage/parent"
	sessionStore "clubhouse/internal/adapters/storage/trainingsession"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// config is populated from the environment at startup. The CSRF key is
// read separately by the web layer (CLUBHOUSE_CSRF_KEY).
type config struct {
	Addr          string `env:"CLUBHOUSE_ADDR" envDefault:":8080"`
	Env           string `env:"CLUBHOUSE_ENV" envDefault:"development"`
	DBPath        string `env:"CLUBHOUSE_DB_PATH" envDefault:"clubhouse.db"`
	StaticDir     string `env:"CLUBHOUSE_STATIC_DIR" envDefault:"static"`
	BaseURL       string `env:"CLUBHOUSE_BASE_URL" envDefault:"http://localhost:8080"`
	AdminEmail    string `env:"CLUBHOUSE_ADMIN_EMAIL" envDefault:"admin@harbourathletics.nz"`
	AdminPassword string `env:"CLUBHOUSE_ADMIN_PASSWORD" envDefault:"Southerly change"`
	ResendKey     string `env:"CLUBHOUSE_RESEND_KEY"`
	EmailFrom     string `env:"CLUBHOUSE_EMAIL_FROM" envDefault:"Harbour Athletics <noreply@harbourathletics.nz>"`
	ReplyTo       string `env:"CLUBHOUSE_REPLY_TO" envDefault:"info@harbourathletics.nz"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment: %v", err)
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Health check
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	// Run database migrations
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	log.Println("Database initialized successfully!")

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	// Create store instances (using timed DB for query instrumentation)
	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:       acctStore,
		ClubStore:          clubStore.NewSQLiteStore(timedDB),
		AthleteStore:       athleteStore.NewSQLiteStore(timedDB),
		CoachStore:         coachStore.NewSQLiteStore(timedDB),
		ApplicationStore:   membershipStore.NewSQLiteStore(timedDB),
		SessionStore:       sessionStore.NewSQLiteStore(timedDB),
		AttendanceStore:    attendanceStore.NewSQLiteStore(timedDB),
		LeaveStore:         leaveStore.NewSQLiteStore(timedDB),
		AnnouncementStore:  announcementStore.NewSQLiteStore(timedDB),
		NotificationStore:  notificationStore.NewSQLiteStore(timedDB),
		OutboxStore:        outboxStorePkg.NewSQLiteStore(timedDB),
		FeatureFlagStore:   featureFlagStore.NewSQLiteStore(timedDB),
		LoginSessionStore:  loginSessionStore.NewSQLiteStore(timedDB),
		ParentUserStore:    parentStore.NewUserSQLiteStore(timedDB),
		ParentSessionStore: parentStore.NewSessionSQLiteStore(timedDB),
		ConnectionStore:    parentStore.NewConnectionSQLiteStore(timedDB),
	}

	// Seed default admin account if no accounts exist
	seedDeps := orchestrators.CreateAccountDeps{
		AccountStore: acctStore,
		GenerateID:   uuid.NewString,
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Seed feature flags missing from the store (idempotent)
	if _, err := orchestrators.ExecuteSeedFeatureFlags(context.Background(), stores.FeatureFlagStore); err != nil {
		log.Fatalf("failed to seed feature flags: %v", err)
	}

	// Seed demo data for development only
	if cfg.Env != "production" {
		adminAcct, err := acctStore.GetByEmail(context.Background(), cfg.AdminEmail)
		if err != nil {
			log.Fatalf("failed to get admin account for seeding: %v", err)
		}
		demoDeps := orchestrators.DemoSeedDeps{
			AccountStore:      acctStore,
			ClubStore:         stores.ClubStore,
			AthleteStore:      stores.AthleteStore,
			CoachStore:        stores.CoachStore,
			SessionStore:      stores.SessionStore,
			AttendanceStore:   stores.AttendanceStore,
			LeaveStore:        stores.LeaveStore,
			AnnouncementStore: stores.AnnouncementStore,
			ApplicationStore:  stores.ApplicationStore,
			ParentStore:       stores.ParentUserStore,
			ConnectionStore:   stores.ConnectionStore,
		}
		if err := orchestrators.ExecuteSeedDemo(context.Background(), demoDeps, adminAcct.ID); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
		log.Println("Demo seed data loaded (dev mode)")
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.Env == "production" {
			log.Println("WARNING: CLUBHOUSE_RESEND_KEY is not set; email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop; set CLUBHOUSE_RESEND_KEY for real delivery)")
		}
	}
	web.SetEmailSender(sender, cfg.EmailFrom, cfg.ReplyTo)
	web.SetBaseURL(cfg.BaseURL)

	// Background workers: outbox drain, parent session sweep, session
	// reminders. All stop together on shutdown.
	stopCh := make(chan struct{})
	defer close(stopCh)

	executors := map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{
			Sender:  sender,
			From:    cfg.EmailFrom,
			ReplyTo: cfg.ReplyTo,
		},
	}
	outboxProcessor := orchestrators.NewOutboxProcessor(stores.OutboxStore, executors)
	orchestrators.StartBackgroundWorker(outboxProcessor, 1*time.Minute, stopCh)

	sweepDeps := orchestrators.SweepParentSessionsDeps{
		SessionStore: stores.ParentSessionStore,
		Now:          time.Now,
	}
	go orchestrators.StartParentSessionSweeper(sweepDeps, 1*time.Hour, stopCh)

	reminderDeps := orchestrators.SessionRemindersDeps{
		SessionStore:      stores.SessionStore,
		AthleteStore:      stores.AthleteStore,
		NotificationStore: stores.NotificationStore,
		GenerateID:        uuid.NewString,
		Now:               time.Now,
		Location:          time.Local,
	}
	go orchestrators.StartReminderScheduler(reminderDeps, 5*time.Minute, stopCh)

	// Create HTTP handler with middleware (pass collector for timing + dashboard)
	mux := web.NewMux(cfg.StaticDir, stores, collector)

	// Start server
	log.Printf("Clubhouse %s starting on %s (env=%s, schema=%d)", version, cfg.Addr, cfg.Env, storage.LatestSchemaVersion())

	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
