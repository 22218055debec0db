package web

import (
	"net/http"
	"path/filepath"
	"time"

	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAccount "clubhouse/internal/domain/account"
	domainLogin "clubhouse/internal/domain/loginsession"
	domainNotification "clubhouse/internal/domain/notification"
	domainParent "clubhouse/internal/domain/parent"
)

// parentView is the staff-facing shape of a parent user. The password
// hash never leaves the server.
type parentView struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

func toParentView(p domainParent.User) parentView {
	return parentView{ID: p.ID, Email: p.Email, Name: p.Name, CreatedAt: p.CreatedAt}
}

// handleParentLogin handles the parent portal sign-in page and POST.
func handleParentLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		if _, ok := middleware.GetParentFromContext(r.Context()); ok {
			http.Redirect(w, r, "/parent/overview", http.StatusSeeOther)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticRoot, "parent-login.html"))
		return
	}

	if r.Method == "POST" {
		input := orchestrators.ParentLoginInput{}
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

		deps := orchestrators.ParentLoginDeps{
			ParentStore:  stores.ParentUserStore,
			SessionStore: stores.ParentSessionStore,
			FlagStore:    stores.FeatureFlagStore,
			GenerateID:   generateID,
			Now:          timeNow,
		}
		result, err := orchestrators.ExecuteParentLogin(r.Context(), input, deps)
		if err != nil {
			if err == orchestrators.ErrParentPortalDisabled {
				domainError(w, err)
				return
			}
			outcome := domainLogin.OutcomeFailure
			if err == orchestrators.ErrAccountLocked {
				outcome = domainLogin.OutcomeLocked
			}
			auditLogin(r, domainLogin.PortalParent, input.Email, outcome, "")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		middleware.SetParentCookie(w, result.Session.Token, domainParent.SessionTTL)
		auditLogin(r, domainLogin.PortalParent, result.Parent.Email, domainLogin.OutcomeSuccess, result.Parent.ID)

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/parent/overview", http.StatusSeeOther)
			return
		}
		writeJSON(w, map[string]any{
			"parent_id": result.Parent.ID,
			"email":     result.Parent.Email,
			"name":      result.Parent.Name,
		})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleParentLogout handles POST /parent/logout
func handleParentLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie("clubhouse_parent_session"); err == nil {
		if p, ok := middleware.GetParentFromContext(r.Context()); ok {
			auditLogin(r, domainLogin.PortalParent, p.Email, domainLogin.OutcomeLogout, p.ParentID)
		}
		if err := orchestrators.ExecuteParentLogout(r.Context(), cookie.Value, orchestrators.ParentLogoutDeps{
			SessionStore: stores.ParentSessionStore,
		}); err != nil {
			internalError(w, err)
			return
		}
	}
	middleware.ClearParentCookie(w)

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/parent/login", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleParentOverview serves the read-only portal home.
func handleParentOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := middleware.GetParentFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	result, err := projections.QueryGetParentOverview(r.Context(), projections.GetParentOverviewQuery{
		ParentID: p.ParentID,
	}, timeNow(), time.Local, projections.GetParentOverviewDeps{
		ConnectionStore:   stores.ConnectionStore,
		AthleteStore:      stores.AthleteStore,
		AttendanceStore:   stores.AttendanceStore,
		LeaveStore:        stores.LeaveStore,
		SessionStore:      stores.SessionStore,
		CoachStore:        stores.CoachStore,
		ClubStore:         stores.ClubStore,
		AnnouncementStore: stores.AnnouncementStore,
	})
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleParentNotifications handles GET /parent/notifications and POST
// /parent/notifications/read-all for the signed-in parent.
func handleParentNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetParentFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	parts := pathParts(r)
	if r.Method == "POST" && len(parts) >= 3 && parts[2] == "read-all" {
		markAllNotificationsRead(w, r, domainNotification.RecipientParent, p.ParentID)
		return
	}

	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	notificationFeed(w, r, domainNotification.RecipientParent, p.ParentID)
}

// handleParentNotificationByID handles POST /parent/notifications/:id/read.
func handleParentNotificationByID(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetParentFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	parts := pathParts(r)
	if len(parts) < 4 || parts[3] != "read" {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	markNotificationRead(w, r, domainNotification.RecipientParent, p.ParentID, parts[2])
}

// handleParents handles staff management of parent users: GET (list)
// and POST (create) for /api/parents.
func handleParents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach); !ok {
			return
		}
		parents, err := stores.ParentUserStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		views := make([]parentView, 0, len(parents))
		for _, p := range parents {
			views = append(views, toParentView(p))
		}
		writeJSON(w, map[string]any{"parents": views})
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach); !ok {
			return
		}

		input := orchestrators.CreateParentUserInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Email = r.FormValue("Email")
			input.Name = r.FormValue("Name")
			input.Password = r.FormValue("Password")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		created, err := orchestrators.ExecuteCreateParentUser(ctx, input, orchestrators.CreateParentUserDeps{
			ParentStore: stores.ParentUserStore,
			GenerateID:  generateID,
			Now:         timeNow,
		})
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/parents", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, toParentView(created))
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// parentLinkView joins a connection with the athlete's display name.
type parentLinkView struct {
	ConnectionID string
	AthleteID    string
	AthleteName  string
	Relationship string
	CreatedAt    time.Time
}

// handleParentByID handles /api/parents/:id: GET (detail with links),
// POST :id/delete (admin), POST :id/link, POST :id/unlink.
func handleParentByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 3 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	parentID := parts[2]

	sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
	if !ok {
		return
	}

	p, err := stores.ParentUserStore.GetByID(ctx, parentID)
	if err != nil {
		http.Error(w, "parent not found", http.StatusNotFound)
		return
	}

	if r.Method == "GET" {
		connections, err := stores.ConnectionStore.ListByParentID(ctx, parentID)
		if err != nil {
			internalError(w, err)
			return
		}
		links := make([]parentLinkView, 0, len(connections))
		for _, c := range connections {
			link := parentLinkView{
				ConnectionID: c.ID,
				AthleteID:    c.AthleteID,
				Relationship: c.Relationship,
				CreatedAt:    c.CreatedAt,
			}
			if a, err := stores.AthleteStore.GetByID(ctx, c.AthleteID); err == nil {
				link.AthleteName = a.Name
			}
			links = append(links, link)
		}
		writeJSON(w, map[string]any{"parent": toParentView(p), "links": links})
		return
	}

	if r.Method != "POST" || len(parts) < 4 {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch parts[3] {
	case "delete":
		// Deleting a portal account is an admin call, not a coach one.
		if sess.Role != domainAccount.RoleAdmin {
			http.Error(w, "insufficient role", http.StatusForbidden)
			return
		}
		err := orchestrators.ExecuteDeleteParentUser(ctx, parentID, orchestrators.DeleteParentUserDeps{
			ParentStore:     stores.ParentUserStore,
			ConnectionStore: stores.ConnectionStore,
			SessionStore:    stores.ParentSessionStore,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		if isHTMLRequest(r) {
			http.Redirect(w, r, "/parents", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "link":
		var athleteID, relationship string
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			athleteID = r.FormValue("AthleteID")
			relationship = r.FormValue("Relationship")
		} else {
			var body struct {
				AthleteID    string
				Relationship string
			}
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			athleteID = body.AthleteID
			relationship = body.Relationship
		}

		// Coaches may only link athletes of their own club.
		if sess.Role == domainAccount.RoleCoach {
			own, err := coachClubID(ctx, sess.AccountID)
			if err != nil {
				http.Error(w, "coach record not found", http.StatusForbidden)
				return
			}
			a, err := stores.AthleteStore.GetByID(ctx, athleteID)
			if err != nil || a.ClubID != own {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		connection, err := orchestrators.ExecuteLinkParent(ctx, orchestrators.LinkParentInput{
			ParentID:     parentID,
			AthleteID:    athleteID,
			Relationship: relationship,
		}, orchestrators.LinkParentDeps{
			ParentStore:     stores.ParentUserStore,
			AthleteStore:    stores.AthleteStore,
			ConnectionStore: stores.ConnectionStore,
			GenerateID:      generateID,
			Now:             timeNow,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		if isHTMLRequest(r) {
			http.Redirect(w, r, "/parents", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, connection)
	case "unlink":
		var athleteID string
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			athleteID = r.FormValue("AthleteID")
		} else {
			var body struct{ AthleteID string }
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			athleteID = body.AthleteID
		}

		if err := orchestrators.ExecuteUnlinkParent(ctx, parentID, athleteID, orchestrators.UnlinkParentDeps{
			ConnectionStore: stores.ConnectionStore,
		}); err != nil {
			domainError(w, err)
			return
		}
		if isHTMLRequest(r) {
			http.Redirect(w, r, "/parents", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}
