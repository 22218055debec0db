package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAccount "clubhouse/internal/domain/account"
	domainAttendance "clubhouse/internal/domain/attendance"
	domainLeave "clubhouse/internal/domain/leaverequest"
	domainLogin "clubhouse/internal/domain/loginsession"
	domainParent "clubhouse/internal/domain/parent"
	domainSession "clubhouse/internal/domain/trainingsession"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts announcement Markdown to HTML. Raw HTML in the
// input comes back escaped.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// domainError writes a client error with the status the failed rule
// implies: 404 missing resource, 409 duplicate, 422 window or state
// rule, 403 disabled feature, 400 anything else.
func domainError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch err {
	case orchestrators.ErrClubNameTaken,
		orchestrators.ErrClubCodeTaken,
		orchestrators.ErrClubInUse,
		orchestrators.ErrAthleteEmailTaken,
		orchestrators.ErrCoachEmailTaken,
		orchestrators.ErrEmailAlreadyExists,
		orchestrators.ErrParentEmailTaken,
		orchestrators.ErrDuplicateApplication,
		domainAttendance.ErrAlreadyPresent,
		domainAttendance.ErrOnLeave,
		domainLeave.ErrAlreadyRequested,
		domainLeave.ErrAlreadyCheckedIn,
		domainLeave.ErrAlreadyAcknowledged,
		domainSession.ErrAlreadyCancelled,
		domainParent.ErrAlreadyLinked,
		domainAccount.ErrAlreadyActivated:
		status = http.StatusConflict
	case orchestrators.ErrOutsideCheckInWindow,
		orchestrators.ErrLeaveTooLate,
		orchestrators.ErrUndoTooLate,
		orchestrators.ErrPinDraft,
		orchestrators.ErrSessionCancelled,
		orchestrators.ErrAthleteArchived,
		orchestrators.ErrAthleteWrongClub,
		orchestrators.ErrCoachWrongClub:
		status = http.StatusUnprocessableEntity
	case orchestrators.ErrSelfCheckInDisabled,
		orchestrators.ErrParentPortalDisabled,
		orchestrators.ErrNotYourNotification:
		status = http.StatusForbidden
	default:
		if strings.HasSuffix(err.Error(), "not found") {
			status = http.StatusNotFound
		}
	}
	http.Error(w, err.Error(), status)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func isFormRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// pathParts splits a trimmed request path: /api/clubs/abc/delete becomes
// ["api", "clubs", "abc", "delete"].
func pathParts(r *http.Request) []string {
	return strings.Split(strings.Trim(r.URL.Path, "/"), "/")
}

// clientIP extracts the requester's address for the login audit trail.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// auditLogin records one row in the login audit trail. Auditing never
// blocks the auth flow; failures are logged and dropped.
func auditLogin(r *http.Request, portal domainLogin.Portal, email string, outcome domainLogin.Outcome, subjectID string) {
	rec := domainLogin.NewRecord(portal, email, outcome, timeNow()).
		WithRequest(clientIP(r), r.UserAgent())
	if subjectID != "" {
		rec = rec.WithSubject(subjectID)
	}
	if err := stores.LoginSessionStore.Save(r.Context(), rec); err != nil {
		slog.Warn("login_audit_save_failed", "error", err.Error())
	}
}

// requireSession resolves the staff session or writes a 401.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireRole resolves the session and enforces role membership: 401
// without a session, 403 with the wrong role.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	for _, role := range roles {
		if sess.Role == role {
			return sess, true
		}
	}
	http.Error(w, "insufficient role", http.StatusForbidden)
	return middleware.Session{}, false
}

// handleLogin handles GET (static form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		// If already logged in, go straight to the dashboard
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticRoot, "login.html"))
		return
	}

	if r.Method == "POST" {
		input := orchestrators.LoginInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Email = r.FormValue("Email")
			input.Password = r.FormValue("Password")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		deps := orchestrators.LoginDeps{
			AccountStore: stores.AccountStore,
		}

		result, err := orchestrators.ExecuteLogin(r.Context(), input, deps)
		if err != nil {
			outcome := domainLogin.OutcomeFailure
			if err == orchestrators.ErrAccountLocked {
				outcome = domainLogin.OutcomeLocked
			}
			auditLogin(r, domainLogin.PortalStaff, input.Email, outcome, "")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		token, err := sessions.Create(result.AccountID, result.Email, result.Role)
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token)
		auditLogin(r, domainLogin.PortalStaff, result.Email, domainLogin.OutcomeSuccess, result.AccountID)

		if isHTMLRequest(r) {
			if result.PasswordChangeRequired {
				http.Redirect(w, r, "/change-password", http.StatusSeeOther)
				return
			}
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		writeJSON(w, map[string]any{
			"account_id":               result.AccountID,
			"email":                    result.Email,
			"role":                     result.Role,
			"password_change_required": result.PasswordChangeRequired,
		})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		auditLogin(r, domainLogin.PortalStaff, sess.Email, domainLogin.OutcomeLogout, sess.AccountID)
	}
	if cookie, err := r.Cookie("clubhouse_session"); err == nil {
		sessions.Delete(cookie.Value)
	}

	middleware.ClearSessionCookie(w)
	if isHTMLRequest(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChangePassword handles POST /change-password
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	if r.Method == "GET" {
		http.ServeFile(w, r, filepath.Join(staticRoot, "change-password.html"))
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	input := orchestrators.ChangePasswordInput{AccountID: session.AccountID}
	confirm := ""
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.CurrentPassword = r.FormValue("CurrentPassword")
		input.NewPassword = r.FormValue("NewPassword")
		confirm = r.FormValue("ConfirmPassword")
	} else {
		var body struct {
			CurrentPassword string
			NewPassword     string
			ConfirmPassword string
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		input.CurrentPassword = body.CurrentPassword
		input.NewPassword = body.NewPassword
		confirm = body.ConfirmPassword
	}

	if confirm != "" && confirm != input.NewPassword {
		http.Error(w, "new passwords do not match", http.StatusBadRequest)
		return
	}

	deps := orchestrators.ChangePasswordDeps{
		AccountStore: stores.AccountStore,
	}
	if err := orchestrators.ExecuteChangePassword(r.Context(), input, deps); err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActivate handles POST /activate, the public activation-token
// redemption for approved applicants.
func handleActivate(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		// Token rides in the query string; the page posts it back.
		http.ServeFile(w, r, filepath.Join(staticRoot, "activate.html"))
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	input := orchestrators.ActivateAccountInput{}
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.Token = r.FormValue("Token")
		input.Password = r.FormValue("Password")
		if confirm := r.FormValue("ConfirmPassword"); confirm != "" && confirm != input.Password {
			http.Error(w, "passwords do not match", http.StatusBadRequest)
			return
		}
	} else {
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}

	deps := orchestrators.ActivateAccountDeps{
		AccountStore: stores.AccountStore,
		Now:          timeNow,
	}
	result, err := orchestrators.ExecuteActivateAccount(r.Context(), input, deps)
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]string{
		"account_id": result.AccountID,
		"email":      result.Email,
		"role":       result.Role,
	})
}

// handleDashboard handles GET /api/dashboard, the role-shaped home
// screen aggregate.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := projections.GetDashboardQuery{
		Role:      sess.Role,
		AccountID: sess.AccountID,
	}
	deps := projections.GetDashboardDeps{
		SessionsDeps: projections.GetSessionsDeps{
			SessionStore:    stores.SessionStore,
			CoachStore:      stores.CoachStore,
			AttendanceStore: stores.AttendanceStore,
		},
		ProfileDeps: projections.GetAthleteProfileDeps{
			AthleteStore:    stores.AthleteStore,
			AttendanceStore: stores.AttendanceStore,
			LeaveStore:      stores.LeaveStore,
			SessionStore:    stores.SessionStore,
			ClubStore:       stores.ClubStore,
		},
		NotificationStore: stores.NotificationStore,
		ApplicationStore:  stores.ApplicationStore,
		AthleteStore:      stores.AthleteStore,
		ClubStore:         stores.ClubStore,
		LeaveStore:        stores.LeaveStore,
		CoachLookup:       stores.CoachStore,
		AthleteLookup:     stores.AthleteStore,
		OutboxStore:       stores.OutboxStore,
		Location:          time.Local,
	}

	result, err := projections.QueryGetDashboard(r.Context(), query, deps, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, result)
}
