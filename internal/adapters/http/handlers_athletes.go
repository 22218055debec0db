package web

import (
	"context"
	"net/http"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAccount "clubhouse/internal/domain/account"
)

// coachClubID resolves the signed-in coach's club. Coach reads are
// scoped to that club everywhere.
func coachClubID(ctx context.Context, accountID string) (string, error) {
	c, err := stores.CoachStore.GetByAccountID(ctx, accountID)
	if err != nil {
		return "", err
	}
	return c.ClubID, nil
}

// handleAthletes handles GET (list) and POST (create) for /api/athletes
func handleAthletes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
		if !ok {
			return
		}

		filter := athleteStore.ListFilter{
			ClubID: r.URL.Query().Get("club_id"),
			Status: r.URL.Query().Get("status"),
			Search: r.URL.Query().Get("q"),
		}
		filter.Limit, filter.Offset = parseLimitOffset(r, 100, 500)

		if sess.Role == domainAccount.RoleCoach {
			clubID, err := coachClubID(ctx, sess.AccountID)
			if err != nil {
				http.Error(w, "coach record not found", http.StatusForbidden)
				return
			}
			filter.ClubID = clubID
		}

		athletes, err := stores.AthleteStore.List(ctx, filter)
		if err != nil {
			internalError(w, err)
			return
		}
		total, err := stores.AthleteStore.Count(ctx, filter)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, map[string]any{"athletes": athletes, "total": total})
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
			return
		}

		input := orchestrators.CreateAthleteInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.ClubID = r.FormValue("ClubID")
			input.Name = r.FormValue("Name")
			input.Email = r.FormValue("Email")
			input.BirthDate = r.FormValue("BirthDate")
			input.EmergencyContact = r.FormValue("EmergencyContact")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		deps := orchestrators.CreateAthleteDeps{
			AthleteStore: stores.AthleteStore,
			ClubStore:    stores.ClubStore,
			GenerateID:   generateID,
			Now:          timeNow,
		}
		a, err := orchestrators.ExecuteCreateAthlete(ctx, input, deps)
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/athletes", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, a)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleAthleteByID handles /api/athletes/:id: GET (profile), POST
// (edit), and POST /api/athletes/:id/{archive|restore}.
func handleAthleteByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 3 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	athleteID := parts[2]

	if r.Method == "GET" {
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}

		// Athletes see themselves; coaches their own club; admins anyone.
		switch sess.Role {
		case domainAccount.RoleAthlete:
			own, err := stores.AthleteStore.GetByAccountID(ctx, sess.AccountID)
			if err != nil || own.ID != athleteID {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
		case domainAccount.RoleCoach:
			clubID, err := coachClubID(ctx, sess.AccountID)
			if err != nil {
				http.Error(w, "coach record not found", http.StatusForbidden)
				return
			}
			a, err := stores.AthleteStore.GetByID(ctx, athleteID)
			if err != nil {
				http.Error(w, "athlete not found", http.StatusNotFound)
				return
			}
			if a.ClubID != clubID {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
		case domainAccount.RoleAdmin:
		default:
			http.Error(w, "insufficient role", http.StatusForbidden)
			return
		}

		result, err := projections.QueryGetAthleteProfile(ctx, projections.GetAthleteProfileQuery{AthleteID: athleteID}, projections.GetAthleteProfileDeps{
			AthleteStore:    stores.AthleteStore,
			AttendanceStore: stores.AttendanceStore,
			LeaveStore:      stores.LeaveStore,
			SessionStore:    stores.SessionStore,
			ClubStore:       stores.ClubStore,
		})
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, result)
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
			return
		}

		if len(parts) >= 4 {
			switch parts[3] {
			case "archive", "restore":
				deps := orchestrators.ArchiveAthleteDeps{AthleteStore: stores.AthleteStore}
				err := orchestrators.ExecuteArchiveAthlete(ctx, orchestrators.ArchiveAthleteInput{
					AthleteID: athleteID,
					Restore:   parts[3] == "restore",
				}, deps)
				if err != nil {
					domainError(w, err)
					return
				}
				if isHTMLRequest(r) {
					http.Redirect(w, r, "/athletes", http.StatusSeeOther)
					return
				}
				w.WriteHeader(http.StatusNoContent)
				return
			default:
				http.Error(w, "unknown action", http.StatusBadRequest)
				return
			}
		}

		input := orchestrators.EditAthleteInput{AthleteID: athleteID}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Name = r.FormValue("Name")
			input.Email = r.FormValue("Email")
			input.BirthDate = r.FormValue("BirthDate")
			input.EmergencyContact = r.FormValue("EmergencyContact")
			input.Status = r.FormValue("Status")
		} else {
			var body struct {
				Name             string
				Email            string
				BirthDate        string
				EmergencyContact string
				Status           string
			}
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			input.Name = body.Name
			input.Email = body.Email
			input.BirthDate = body.BirthDate
			input.EmergencyContact = body.EmergencyContact
			input.Status = body.Status
		}

		a, err := orchestrators.ExecuteEditAthlete(ctx, input, orchestrators.EditAthleteDeps{AthleteStore: stores.AthleteStore})
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/athletes", http.StatusSeeOther)
			return
		}
		writeJSON(w, a)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}
