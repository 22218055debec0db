package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"clubhouse/internal/adapters/email"
	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/adapters/http/perf"
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
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore       accountStore.Store
	ClubStore          clubStore.Store
	AthleteStore       athleteStore.Store
	CoachStore         coachStore.Store
	ApplicationStore   membershipStore.Store
	SessionStore       sessionStore.Store
	AttendanceStore    attendanceStore.Store
	LeaveStore         leaveStore.Store
	AnnouncementStore  announcementStore.Store
	NotificationStore  notificationStore.Store
	OutboxStore        outboxStore.Store
	FeatureFlagStore   featureFlagStore.Store
	LoginSessionStore  loginSessionStore.Store
	ParentUserStore    parentStore.UserStore
	ParentSessionStore parentStore.SessionStore
	ConnectionStore    parentStore.ConnectionStore
}

// loadCSRFKey reads the CSRF secret from CLUBHOUSE_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("CLUBHOUSE_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("CLUBHOUSE_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("CLUBHOUSE_ENV") == "production" {
		log.Fatal("CLUBHOUSE_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set CLUBHOUSE_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// staticRoot is the directory the front-end assets are served from
// (set by NewMux). Handlers use it for the unauthenticated pages.
var staticRoot string

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string
var emailReplyTo string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from, replyTo string) {
	emailSender = sender
	emailFromAddress = from
	emailReplyTo = replyTo
}

// publicBaseURL is the origin used for links in outbound emails.
var publicBaseURL = "http://localhost:8080"

// SetBaseURL sets the public origin for links in outbound emails.
func SetBaseURL(u string) {
	if u != "" {
		publicBaseURL = strings.TrimRight(u, "/")
	}
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	staticRoot = staticDir
	middleware.SecureCookies = os.Getenv("CLUBHOUSE_ENV") == "production"

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> ParentAuth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.ParentAuth(s.ParentSessionStore, s.ParentUserStore),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
