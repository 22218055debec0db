package web

import (
	"context"
	"net/http"
	"strconv"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/application/orchestrators"
	domainAccount "clubhouse/internal/domain/account"
)

// handleClubs handles GET (list) and POST (create) for /api/clubs
func handleClubs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		if _, ok := requireSession(w, r); !ok {
			return
		}
		clubs, err := stores.ClubStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, clubs)
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
			return
		}

		input := orchestrators.CreateClubInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Name = r.FormValue("Name")
			input.Code = r.FormValue("Code")
			input.Description = r.FormValue("Description")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		deps := orchestrators.CreateClubDeps{
			ClubStore:  stores.ClubStore,
			GenerateID: generateID,
			Now:        timeNow,
		}
		c, err := orchestrators.ExecuteCreateClub(ctx, input, deps)
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/clubs", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, c)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleClubByID handles /api/clubs/:id: GET (fetch), POST (edit), and
// POST /api/clubs/:id/delete.
func handleClubByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 3 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	clubID := parts[2]

	if r.Method == "GET" {
		if _, ok := requireSession(w, r); !ok {
			return
		}
		c, err := stores.ClubStore.GetByID(ctx, clubID)
		if err != nil {
			http.Error(w, "club not found", http.StatusNotFound)
			return
		}
		athletes, _ := stores.AthleteStore.Count(ctx, athleteStore.ListFilter{ClubID: clubID})
		coaches, _ := stores.CoachStore.CountByClubID(ctx, clubID)
		writeJSON(w, map[string]any{
			"club":          c,
			"athlete_count": athletes,
			"coach_count":   coaches,
		})
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
			return
		}

		if len(parts) >= 4 && parts[3] == "delete" {
			deps := orchestrators.DeleteClubDeps{
				ClubStore: stores.ClubStore,
				AthleteCount: func(ctx context.Context, id string) (int, error) {
					return stores.AthleteStore.Count(ctx, athleteStore.ListFilter{ClubID: id})
				},
				CoachCount:   stores.CoachStore.CountByClubID,
				SessionCount: stores.SessionStore.CountByClubID,
			}
			if err := orchestrators.ExecuteDeleteClub(ctx, orchestrators.DeleteClubInput{ClubID: clubID}, deps); err != nil {
				domainError(w, err)
				return
			}
			if isHTMLRequest(r) {
				http.Redirect(w, r, "/clubs", http.StatusSeeOther)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		input := orchestrators.EditClubInput{ClubID: clubID}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Name = r.FormValue("Name")
			input.Code = r.FormValue("Code")
			input.Description = r.FormValue("Description")
		} else {
			var body struct {
				Name        string
				Code        string
				Description string
			}
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			input.Name = body.Name
			input.Code = body.Code
			input.Description = body.Description
		}

		deps := orchestrators.EditClubDeps{ClubStore: stores.ClubStore}
		c, err := orchestrators.ExecuteEditClub(ctx, input, deps)
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/clubs", http.StatusSeeOther)
			return
		}
		writeJSON(w, c)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// parseLimitOffset reads optional limit/offset query parameters with a
// default and cap on limit.
func parseLimitOffset(r *http.Request, def, max int) (int, int) {
	limit := def
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= max {
			limit = n
		}
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
