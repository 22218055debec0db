package web

import (
	"net/http"

	"clubhouse/internal/application/orchestrators"
	domainAccount "clubhouse/internal/domain/account"
)

// handleCoaches handles GET (list) and POST (create) for /api/coaches
func handleCoaches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
		if !ok {
			return
		}

		if clubID := r.URL.Query().Get("club_id"); clubID != "" || sess.Role == domainAccount.RoleCoach {
			if sess.Role == domainAccount.RoleCoach {
				own, err := coachClubID(ctx, sess.AccountID)
				if err != nil {
					http.Error(w, "coach record not found", http.StatusForbidden)
					return
				}
				clubID = own
			}
			coaches, err := stores.CoachStore.ListByClubID(ctx, clubID)
			if err != nil {
				internalError(w, err)
				return
			}
			writeJSON(w, coaches)
			return
		}

		coaches, err := stores.CoachStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, coaches)
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
			return
		}

		input := orchestrators.CreateCoachInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.ClubID = r.FormValue("ClubID")
			input.AccountID = r.FormValue("AccountID")
			input.Name = r.FormValue("Name")
			input.Email = r.FormValue("Email")
			input.Bio = r.FormValue("Bio")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		deps := orchestrators.CreateCoachDeps{
			CoachStore: stores.CoachStore,
			ClubStore:  stores.ClubStore,
			GenerateID: generateID,
			Now:        timeNow,
		}
		c, err := orchestrators.ExecuteCreateCoach(ctx, input, deps)
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/coaches", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, c)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleCoachByID handles /api/coaches/:id: GET (fetch), POST (edit),
// and POST /api/coaches/:id/{archive|restore}.
func handleCoachByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 3 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	coachID := parts[2]

	if r.Method == "GET" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach); !ok {
			return
		}
		c, err := stores.CoachStore.GetByID(ctx, coachID)
		if err != nil {
			http.Error(w, "coach not found", http.StatusNotFound)
			return
		}
		writeJSON(w, c)
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
			return
		}

		if len(parts) >= 4 {
			switch parts[3] {
			case "archive", "restore":
				err := orchestrators.ExecuteArchiveCoach(ctx, orchestrators.ArchiveCoachInput{
					CoachID: coachID,
					Restore: parts[3] == "restore",
				}, orchestrators.ArchiveCoachDeps{CoachStore: stores.CoachStore})
				if err != nil {
					domainError(w, err)
					return
				}
				if isHTMLRequest(r) {
					http.Redirect(w, r, "/coaches", http.StatusSeeOther)
					return
				}
				w.WriteHeader(http.StatusNoContent)
				return
			default:
				http.Error(w, "unknown action", http.StatusBadRequest)
				return
			}
		}

		input := orchestrators.EditCoachInput{CoachID: coachID}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Name = r.FormValue("Name")
			input.Email = r.FormValue("Email")
			input.Bio = r.FormValue("Bio")
		} else {
			var body struct {
				Name  string
				Email string
				Bio   string
			}
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			input.Name = body.Name
			input.Email = body.Email
			input.Bio = body.Bio
		}

		c, err := orchestrators.ExecuteEditCoach(ctx, input, orchestrators.EditCoachDeps{CoachStore: stores.CoachStore})
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/coaches", http.StatusSeeOther)
			return
		}
		writeJSON(w, c)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}
