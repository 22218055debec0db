package web

import (
	"net/http"

	"github.com/gorilla/csrf"
)

// handleCSRFToken hands the masked CSRF token to the static front end.
// Pages fetch it once and echo it back in form posts.
func handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"token": csrf.Token(r)})
}

// registerRoutes wires every handler onto the mux. Exact patterns win
// over subtree patterns, so /api/sessions/today beats /api/sessions/.
func registerRoutes(mux *http.ServeMux) {
	// Accounts and sign-in
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/change-password", handleChangePassword)
	mux.HandleFunc("/activate", handleActivate)
	mux.HandleFunc("/api/csrf", handleCSRFToken)

	// Public membership applications
	mux.HandleFunc("/apply", handleApply)
	mux.HandleFunc("/apply/resubmit", handleResubmitApplication)

	// Signed-in staff and athlete APIs
	mux.HandleFunc("/api/dashboard", handleDashboard)

	mux.HandleFunc("/api/clubs", handleClubs)
	mux.HandleFunc("/api/clubs/", handleClubByID)

	mux.HandleFunc("/api/athletes", handleAthletes)
	mux.HandleFunc("/api/athletes/", handleAthleteByID)

	mux.HandleFunc("/api/coaches", handleCoaches)
	mux.HandleFunc("/api/coaches/", handleCoachByID)

	mux.HandleFunc("/api/applications", handleApplications)
	mux.HandleFunc("/api/applications/", handleApplicationByID)

	mux.HandleFunc("/api/sessions", handleSessions)
	mux.HandleFunc("/api/sessions/today", handleSessionsToday)
	mux.HandleFunc("/api/sessions/", handleSessionByID)

	mux.HandleFunc("/api/checkin", handleCheckIn)
	mux.HandleFunc("/api/checkin/undo", handleUndoCheckIn)

	mux.HandleFunc("/api/leave", handleLeave)
	mux.HandleFunc("/api/leave/", handleLeaveByID)

	mux.HandleFunc("/api/announcements", handleAnnouncements)
	mux.HandleFunc("/api/announcements/", handleAnnouncementByID)

	mux.HandleFunc("/api/notifications", handleNotifications)
	mux.HandleFunc("/api/notifications/read-all", handleNotifications)
	mux.HandleFunc("/api/notifications/", handleNotificationByID)

	mux.HandleFunc("/api/parents", handleParents)
	mux.HandleFunc("/api/parents/", handleParentByID)

	// Parent portal
	mux.HandleFunc("/parent/login", handleParentLogin)
	mux.HandleFunc("/parent/logout", handleParentLogout)
	mux.HandleFunc("/parent/overview", handleParentOverview)
	mux.HandleFunc("/parent/notifications", handleParentNotifications)
	mux.HandleFunc("/parent/notifications/read-all", handleParentNotifications)
	mux.HandleFunc("/parent/notifications/", handleParentNotificationByID)

	// Admin operations
	mux.HandleFunc("/admin/accounts", handleAdminAccounts)
	mux.HandleFunc("/admin/accounts/", handleAdminAccountByID)
	mux.HandleFunc("/admin/flags", handleAdminFlags)
	mux.HandleFunc("/admin/outbox", handleAdminOutbox)
	mux.HandleFunc("/admin/outbox/", handleAdminOutbox)
	mux.HandleFunc("/admin/logins", handleAdminLogins)
	mux.HandleFunc("/admin/perf", handleAdminPerf)
}
