package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAccount "clubhouse/internal/domain/account"
	domainAttendance "clubhouse/internal/domain/attendance"
)

func sessionListDeps() projections.GetSessionsDeps {
	return projections.GetSessionsDeps{
		SessionStore:    stores.SessionStore,
		CoachStore:      stores.CoachStore,
		AttendanceStore: stores.AttendanceStore,
	}
}

// scopeSessionQuery pins the club filter to the caller's own club for
// non-admin roles. Admins keep whatever filter they asked for.
func scopeSessionQuery(w http.ResponseWriter, r *http.Request, role, accountID, requested string) (string, bool) {
	switch role {
	case domainAccount.RoleAdmin:
		return requested, true
	case domainAccount.RoleCoach:
		own, err := coachClubID(r.Context(), accountID)
		if err != nil {
			http.Error(w, "coach record not found", http.StatusForbidden)
			return "", false
		}
		return own, true
	case domainAccount.RoleAthlete:
		a, err := stores.AthleteStore.GetByAccountID(r.Context(), accountID)
		if err != nil {
			http.Error(w, "athlete record not found", http.StatusForbidden)
			return "", false
		}
		return a.ClubID, true
	default:
		http.Error(w, "insufficient role", http.StatusForbidden)
		return "", false
	}
}

// handleSessions handles GET (list) and POST (schedule) for /api/sessions
func handleSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}

		clubID, ok := scopeSessionQuery(w, r, sess.Role, sess.AccountID, r.URL.Query().Get("club_id"))
		if !ok {
			return
		}

		query := projections.GetSessionsQuery{
			ClubID:   clubID,
			CoachID:  r.URL.Query().Get("coach_id"),
			Status:   r.URL.Query().Get("status"),
			DateFrom: r.URL.Query().Get("from"),
			DateTo:   r.URL.Query().Get("to"),
		}
		query.Limit, query.Offset = parseLimitOffset(r, 100, 500)

		result, err := projections.QueryGetSessions(ctx, query, sessionListDeps())
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, result)
		return
	}

	if r.Method == "POST" {
		sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
		if !ok {
			return
		}

		input := orchestrators.ScheduleSessionInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.ClubID = r.FormValue("ClubID")
			input.CoachID = r.FormValue("CoachID")
			input.Title = r.FormValue("Title")
			input.Description = r.FormValue("Description")
			input.Location = r.FormValue("Location")
			input.Date = r.FormValue("Date")
			input.StartTime = r.FormValue("StartTime")
			input.EndTime = r.FormValue("EndTime")
			if v := r.FormValue("Capacity"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					http.Error(w, "Invalid form submission", http.StatusBadRequest)
					return
				}
				input.Capacity = n
			}
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		// Coaches schedule within their own club; themselves by default.
		if sess.Role == domainAccount.RoleCoach {
			c, err := stores.CoachStore.GetByAccountID(ctx, sess.AccountID)
			if err != nil {
				http.Error(w, "coach record not found", http.StatusForbidden)
				return
			}
			input.ClubID = c.ClubID
			if input.CoachID == "" {
				input.CoachID = c.ID
			}
		}

		deps := orchestrators.ScheduleSessionDeps{
			SessionStore: stores.SessionStore,
			CoachStore:   stores.CoachStore,
			ClubStore:    stores.ClubStore,
			GenerateID:   generateID,
			Now:          timeNow,
		}
		created, err := orchestrators.ExecuteScheduleSession(ctx, input, deps)
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/sessions", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, created)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleSessionsToday lists today's scheduled sessions for the caller's club.
func handleSessionsToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	clubID, ok := scopeSessionQuery(w, r, sess.Role, sess.AccountID, r.URL.Query().Get("club_id"))
	if !ok {
		return
	}

	result, err := projections.QueryGetTodaysSessions(r.Context(), clubID, timeNow(), time.Local, sessionListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// canTouchSession checks that a coach only acts on sessions of their own
// club. Admins pass unconditionally.
func canTouchSession(w http.ResponseWriter, r *http.Request, role, accountID, sessionID string) bool {
	if role == domainAccount.RoleAdmin {
		return true
	}
	s, err := stores.SessionStore.GetByID(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return false
	}
	own, err := coachClubID(r.Context(), accountID)
	if err != nil || own != s.ClubID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// handleSessionByID handles /api/sessions/:id: GET (roster), GET
// :id/roster.csv (export), POST :id (edit), POST :id/cancel.
func handleSessionByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 3 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	sessionID := parts[2]

	if r.Method == "GET" {
		sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
		if !ok {
			return
		}
		if !canTouchSession(w, r, sess.Role, sess.AccountID, sessionID) {
			return
		}

		result, err := projections.QueryGetSessionRoster(ctx, projections.GetSessionRosterQuery{SessionID: sessionID}, projections.GetSessionRosterDeps{
			SessionStore:    stores.SessionStore,
			AthleteStore:    stores.AthleteStore,
			AttendanceStore: stores.AttendanceStore,
			LeaveStore:      stores.LeaveStore,
			CoachStore:      stores.CoachStore,
			ClubStore:       stores.ClubStore,
		})
		if err != nil {
			domainError(w, err)
			return
		}

		if len(parts) >= 4 && parts[3] == "roster.csv" {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=roster-%s.csv", sessionID))
			if err := result.WriteCSV(w); err != nil {
				slog.Error("roster_csv_write_failed", "session_id", sessionID, "error", err)
			}
			return
		}

		writeJSON(w, result)
		return
	}

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
	if !ok {
		return
	}
	if !canTouchSession(w, r, sess.Role, sess.AccountID, sessionID) {
		return
	}

	if len(parts) >= 4 && parts[3] == "cancel" {
		reason := ""
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			reason = r.FormValue("Reason")
		} else if r.ContentLength > 0 {
			var body struct{ Reason string }
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			reason = body.Reason
		}

		deps := orchestrators.CancelSessionDeps{
			SessionStore:      stores.SessionStore,
			AttendanceStore:   stores.AttendanceStore,
			LeaveStore:        stores.LeaveStore,
			AthleteStore:      stores.AthleteStore,
			NotificationStore: stores.NotificationStore,
			OutboxStore:       stores.OutboxStore,
			GenerateID:        generateID,
			Now:               timeNow,
		}
		cancelled, err := orchestrators.ExecuteCancelSession(ctx, orchestrators.CancelSessionInput{
			SessionID:   sessionID,
			Reason:      reason,
			CancelledBy: sess.AccountID,
		}, deps)
		if err != nil {
			domainError(w, err)
			return
		}
		if isHTMLRequest(r) {
			http.Redirect(w, r, "/sessions", http.StatusSeeOther)
			return
		}
		writeJSON(w, cancelled)
		return
	}

	input := orchestrators.EditSessionInput{SessionID: sessionID}
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.CoachID = r.FormValue("CoachID")
		input.Title = r.FormValue("Title")
		input.Description = r.FormValue("Description")
		input.Location = r.FormValue("Location")
		input.Date = r.FormValue("Date")
		input.StartTime = r.FormValue("StartTime")
		input.EndTime = r.FormValue("EndTime")
		if v := r.FormValue("Capacity"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Capacity = n
		}
	} else {
		var body struct {
			CoachID     string
			Title       string
			Description string
			Location    string
			Date        string
			StartTime   string
			EndTime     string
			Capacity    int
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		input.CoachID = body.CoachID
		input.Title = body.Title
		input.Description = body.Description
		input.Location = body.Location
		input.Date = body.Date
		input.StartTime = body.StartTime
		input.EndTime = body.EndTime
		input.Capacity = body.Capacity
	}

	updated, err := orchestrators.ExecuteEditSession(ctx, input, orchestrators.EditSessionDeps{
		SessionStore: stores.SessionStore,
		CoachStore:   stores.CoachStore,
		Now:          timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}
	writeJSON(w, updated)
}

// handleCheckIn records attendance. Athletes check themselves in;
// coaches and admins record on an athlete's behalf.
func handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var sessionID, athleteID string
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		sessionID = r.FormValue("SessionID")
		athleteID = r.FormValue("AthleteID")
	} else {
		var body struct {
			SessionID string
			AthleteID string
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		sessionID = body.SessionID
		athleteID = body.AthleteID
	}

	input := orchestrators.CheckInInput{
		SessionID:  sessionID,
		RecordedBy: sess.AccountID,
	}
	switch sess.Role {
	case domainAccount.RoleAthlete:
		a, err := stores.AthleteStore.GetByAccountID(ctx, sess.AccountID)
		if err != nil {
			http.Error(w, "athlete record not found", http.StatusForbidden)
			return
		}
		input.AthleteID = a.ID
		input.Method = domainAttendance.MethodSelf
	case domainAccount.RoleCoach, domainAccount.RoleAdmin:
		input.AthleteID = athleteID
		input.Method = domainAttendance.MethodCoach
	default:
		http.Error(w, "insufficient role", http.StatusForbidden)
		return
	}

	deps := orchestrators.CheckInDeps{
		SessionStore:    stores.SessionStore,
		AthleteStore:    stores.AthleteStore,
		AttendanceStore: stores.AttendanceStore,
		LeaveStore:      stores.LeaveStore,
		FlagStore:       stores.FeatureFlagStore,
		GenerateID:      generateID,
		Now:             timeNow,
		Location:        time.Local,
	}
	record, err := orchestrators.ExecuteCheckIn(ctx, input, deps)
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, record)
}

// handleUndoCheckIn removes a same-day check-in. Staff only.
func handleUndoCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
	if !ok {
		return
	}

	var input orchestrators.UndoCheckInInput
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.SessionID = r.FormValue("SessionID")
		input.AthleteID = r.FormValue("AthleteID")
	} else {
		var body struct {
			SessionID string
			AthleteID string
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		input.SessionID = body.SessionID
		input.AthleteID = body.AthleteID
	}
	input.UndoneBy = sess.AccountID

	err := orchestrators.ExecuteUndoCheckIn(ctx, input, orchestrators.UndoCheckInDeps{
		AttendanceStore: stores.AttendanceStore,
		Now:             timeNow,
		Location:        time.Local,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLeave files a leave request for the athlete's own place in a session.
func handleLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := requireRole(w, r, domainAccount.RoleAthlete)
	if !ok {
		return
	}

	a, err := stores.AthleteStore.GetByAccountID(ctx, sess.AccountID)
	if err != nil {
		http.Error(w, "athlete record not found", http.StatusForbidden)
		return
	}

	input := orchestrators.RequestLeaveInput{AthleteID: a.ID}
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.SessionID = r.FormValue("SessionID")
		input.Reason = r.FormValue("Reason")
	} else {
		var body struct {
			SessionID string
			Reason    string
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		input.SessionID = body.SessionID
		input.Reason = body.Reason
	}

	deps := orchestrators.RequestLeaveDeps{
		SessionStore:      stores.SessionStore,
		AthleteStore:      stores.AthleteStore,
		CoachStore:        stores.CoachStore,
		LeaveStore:        stores.LeaveStore,
		AttendanceStore:   stores.AttendanceStore,
		NotificationStore: stores.NotificationStore,
		GenerateID:        generateID,
		Now:               timeNow,
		Location:          time.Local,
	}
	request, err := orchestrators.ExecuteRequestLeave(ctx, input, deps)
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, request)
}

// handleLeaveByID handles POST /api/leave/:id/acknowledge.
func handleLeaveByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 4 || parts[3] != "acknowledge" {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
	if !ok {
		return
	}

	acknowledged, err := orchestrators.ExecuteAcknowledgeLeave(ctx, orchestrators.AcknowledgeLeaveInput{
		LeaveID:        parts[2],
		AcknowledgedBy: sess.AccountID,
	}, orchestrators.AcknowledgeLeaveDeps{
		LeaveStore: stores.LeaveStore,
		Now:        timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}
	writeJSON(w, acknowledged)
}
