package web

import (
	"net/http"
	"time"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAccount "clubhouse/internal/domain/account"
	domainAnnouncement "clubhouse/internal/domain/announcement"
)

// parseTimeValue parses a form timestamp. Accepts RFC 3339 and the
// HTML datetime-local format; empty means unset.
func parseTimeValue(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", v, time.Local)
}

func announcementDeps() orchestrators.CreateAnnouncementDeps {
	return orchestrators.CreateAnnouncementDeps{
		AnnouncementStore: stores.AnnouncementStore,
		ClubStore:         stores.ClubStore,
		GenerateID:        generateID,
		Now:               timeNow,
	}
}

// announcementWithHTML decorates an announcement with its rendered body
// for clients that display rather than edit.
type announcementWithHTML struct {
	domainAnnouncement.Announcement
	BodyHTML string
}

// handleAnnouncements handles GET (board) and POST (create draft) for
// /api/announcements.
func handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}

		query := projections.GetAnnouncementListQuery{ViewerRole: sess.Role}
		switch sess.Role {
		case domainAccount.RoleAdmin:
			query.ClubID = r.URL.Query().Get("club_id")
			query.IncludeDrafts = r.URL.Query().Get("drafts") == "1"
		case domainAccount.RoleCoach:
			own, err := coachClubID(ctx, sess.AccountID)
			if err != nil {
				http.Error(w, "coach record not found", http.StatusForbidden)
				return
			}
			query.ClubID = own
			query.IncludeDrafts = r.URL.Query().Get("drafts") == "1"
		case domainAccount.RoleAthlete:
			a, err := stores.AthleteStore.GetByAccountID(ctx, sess.AccountID)
			if err != nil {
				http.Error(w, "athlete record not found", http.StatusForbidden)
				return
			}
			query.ClubID = a.ClubID
		}

		result, err := projections.QueryGetAnnouncementList(ctx, query, timeNow(), projections.GetAnnouncementListDeps{
			AnnouncementStore: stores.AnnouncementStore,
		})
		if err != nil {
			internalError(w, err)
			return
		}

		decorated := make([]announcementWithHTML, 0, len(result.Announcements))
		for _, a := range result.Announcements {
			decorated = append(decorated, announcementWithHTML{Announcement: a, BodyHTML: renderMarkdown(a.Body)})
		}
		writeJSON(w, map[string]any{"announcements": decorated})
		return
	}

	if r.Method == "POST" {
		sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
		if !ok {
			return
		}

		input := orchestrators.CreateAnnouncementInput{CreatedBy: sess.AccountID}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.ClubID = r.FormValue("ClubID")
			input.Audience = r.FormValue("Audience")
			input.Title = r.FormValue("Title")
			input.Body = r.FormValue("Body")
			input.Color = r.FormValue("Color")
			input.ShowAuthor = r.FormValue("ShowAuthor") == "on" || r.FormValue("ShowAuthor") == "true"
			var err error
			if input.VisibleFrom, err = parseTimeValue(r.FormValue("VisibleFrom")); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			if input.VisibleUntil, err = parseTimeValue(r.FormValue("VisibleUntil")); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
		} else {
			var body struct {
				ClubID       string
				Audience     string
				Title        string
				Body         string
				Color        string
				ShowAuthor   bool
				VisibleFrom  time.Time
				VisibleUntil time.Time
			}
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			input.ClubID = body.ClubID
			input.Audience = body.Audience
			input.Title = body.Title
			input.Body = body.Body
			input.Color = body.Color
			input.ShowAuthor = body.ShowAuthor
			input.VisibleFrom = body.VisibleFrom
			input.VisibleUntil = body.VisibleUntil
		}

		input.AuthorName = sess.Email
		if sess.Role == domainAccount.RoleCoach {
			c, err := stores.CoachStore.GetByAccountID(ctx, sess.AccountID)
			if err != nil {
				http.Error(w, "coach record not found", http.StatusForbidden)
				return
			}
			input.ClubID = c.ClubID
			input.AuthorName = c.Name
		}

		created, err := orchestrators.ExecuteCreateAnnouncement(ctx, input, announcementDeps())
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/announcements", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, created)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// canTouchAnnouncement checks club scope for coaches. All-clubs
// announcements belong to admins alone.
func canTouchAnnouncement(w http.ResponseWriter, r *http.Request, role, accountID string, a domainAnnouncement.Announcement) bool {
	if role == domainAccount.RoleAdmin {
		return true
	}
	own, err := coachClubID(r.Context(), accountID)
	if err != nil || a.ClubID == "" || a.ClubID != own {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// handleAnnouncementByID handles /api/announcements/:id: GET (fetch),
// POST (edit), and POST :id/{publish|pin|unpin}.
func handleAnnouncementByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 3 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	announcementID := parts[2]

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	a, err := stores.AnnouncementStore.GetByID(ctx, announcementID)
	if err != nil {
		http.Error(w, "announcement not found", http.StatusNotFound)
		return
	}

	if r.Method == "GET" {
		// Drafts are staff-only reading.
		if a.Status == domainAnnouncement.StatusDraft &&
			sess.Role != domainAccount.RoleAdmin && sess.Role != domainAccount.RoleCoach {
			http.Error(w, "announcement not found", http.StatusNotFound)
			return
		}
		writeJSON(w, announcementWithHTML{Announcement: a, BodyHTML: renderMarkdown(a.Body)})
		return
	}

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sess.Role != domainAccount.RoleAdmin && sess.Role != domainAccount.RoleCoach {
		http.Error(w, "insufficient role", http.StatusForbidden)
		return
	}
	if !canTouchAnnouncement(w, r, sess.Role, sess.AccountID, a) {
		return
	}

	if len(parts) >= 4 {
		switch parts[3] {
		case "publish":
			published, err := orchestrators.ExecutePublishAnnouncement(ctx, orchestrators.PublishAnnouncementInput{
				AnnouncementID: announcementID,
				PublishedBy:    sess.AccountID,
			}, orchestrators.PublishAnnouncementDeps{
				AnnouncementStore: stores.AnnouncementStore,
				ClubStore:         stores.ClubStore,
				AthleteStore:      stores.AthleteStore,
				CoachStore:        stores.CoachStore,
				ConnectionStore:   stores.ConnectionStore,
				ParentStore:       stores.ParentUserStore,
				NotificationStore: stores.NotificationStore,
				OutboxStore:       stores.OutboxStore,
				FlagStore:         stores.FeatureFlagStore,
				GenerateID:        generateID,
				Now:               timeNow,
			})
			if err != nil {
				domainError(w, err)
				return
			}
			if isHTMLRequest(r) {
				http.Redirect(w, r, "/announcements", http.StatusSeeOther)
				return
			}
			writeJSON(w, published)
		case "pin", "unpin":
			pinned, err := orchestrators.ExecutePinAnnouncement(ctx, orchestrators.PinAnnouncementInput{
				AnnouncementID: announcementID,
				Unpin:          parts[3] == "unpin",
			}, announcementDeps())
			if err != nil {
				domainError(w, err)
				return
			}
			if isHTMLRequest(r) {
				http.Redirect(w, r, "/announcements", http.StatusSeeOther)
				return
			}
			writeJSON(w, pinned)
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
		}
		return
	}

	input := orchestrators.EditAnnouncementInput{AnnouncementID: announcementID}
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.Audience = r.FormValue("Audience")
		input.Title = r.FormValue("Title")
		input.Body = r.FormValue("Body")
		input.Color = r.FormValue("Color")
		input.ShowAuthor = r.FormValue("ShowAuthor") == "on" || r.FormValue("ShowAuthor") == "true"
		var err error
		if input.VisibleFrom, err = parseTimeValue(r.FormValue("VisibleFrom")); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		if input.VisibleUntil, err = parseTimeValue(r.FormValue("VisibleUntil")); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
	} else {
		var body struct {
			Audience     string
			Title        string
			Body         string
			Color        string
			ShowAuthor   bool
			VisibleFrom  time.Time
			VisibleUntil time.Time
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		input.Audience = body.Audience
		input.Title = body.Title
		input.Body = body.Body
		input.Color = body.Color
		input.ShowAuthor = body.ShowAuthor
		input.VisibleFrom = body.VisibleFrom
		input.VisibleUntil = body.VisibleUntil
	}

	updated, err := orchestrators.ExecuteEditAnnouncement(ctx, input, announcementDeps())
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/announcements", http.StatusSeeOther)
		return
	}
	writeJSON(w, updated)
}
