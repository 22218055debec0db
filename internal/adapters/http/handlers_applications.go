package web

import (
	"net/http"
	"path/filepath"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAccount "clubhouse/internal/domain/account"
)

// handleApply handles the public membership application form: GET serves
// the form page, POST submits an application. No session required.
func handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		http.ServeFile(w, r, filepath.Join(staticRoot, "apply.html"))
		return
	}

	if r.Method == "POST" {
		input := orchestrators.SubmitApplicationInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.ClubID = r.FormValue("ClubID")
			input.ClubCode = r.FormValue("ClubCode")
			input.ApplicantName = r.FormValue("ApplicantName")
			input.Email = r.FormValue("Email")
			input.BirthDate = r.FormValue("BirthDate")
			input.EmergencyContact = r.FormValue("EmergencyContact")
			input.Message = r.FormValue("Message")
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		deps := orchestrators.SubmitApplicationDeps{
			ApplicationStore:  stores.ApplicationStore,
			ClubStore:         stores.ClubStore,
			CoachStore:        stores.CoachStore,
			NotificationStore: stores.NotificationStore,
			GenerateID:        generateID,
			Now:               timeNow,
		}
		app, err := orchestrators.ExecuteSubmitApplication(ctx, input, deps)
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/apply?submitted=1", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, app)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleResubmitApplication handles the public resubmission endpoint
// reached from an info-request email. The applicant proves ownership by
// echoing the email the application was made with.
func handleResubmitApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		http.ServeFile(w, r, filepath.Join(staticRoot, "resubmit.html"))
		return
	}

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	input := orchestrators.ResubmitApplicationInput{}
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.ApplicationID = r.FormValue("ApplicationID")
		input.Email = r.FormValue("Email")
		input.Message = r.FormValue("Message")
	} else {
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}

	deps := orchestrators.ResubmitApplicationDeps{
		ApplicationStore:  stores.ApplicationStore,
		ClubStore:         stores.ClubStore,
		CoachStore:        stores.CoachStore,
		NotificationStore: stores.NotificationStore,
		GenerateID:        generateID,
		Now:               timeNow,
	}
	app, err := orchestrators.ExecuteResubmitApplication(ctx, input, deps)
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/apply?resubmitted=1", http.StatusSeeOther)
		return
	}
	writeJSON(w, app)
}

// handleApplications lists membership applications for review.
// Coaches see their own club only; admins can filter freely.
func handleApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
	if !ok {
		return
	}

	query := projections.GetApplicationListQuery{
		ClubID: r.URL.Query().Get("club_id"),
		Status: r.URL.Query().Get("status"),
	}
	query.Limit, query.Offset = parseLimitOffset(r, 50, 200)

	if sess.Role == domainAccount.RoleCoach {
		own, err := coachClubID(ctx, sess.AccountID)
		if err != nil {
			http.Error(w, "coach record not found", http.StatusForbidden)
			return
		}
		query.ClubID = own
	}

	result, err := projections.QueryGetApplicationList(ctx, query, projections.GetApplicationListDeps{
		ApplicationStore: stores.ApplicationStore,
		ClubStore:        stores.ClubStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleApplicationByID handles /api/applications/:id: GET (fetch) plus
// the decision actions POST :id/{approve|reject|request-info}.
func handleApplicationByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r)
	if len(parts) < 3 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	applicationID := parts[2]

	sess, ok := requireRole(w, r, domainAccount.RoleAdmin, domainAccount.RoleCoach)
	if !ok {
		return
	}

	app, err := stores.ApplicationStore.GetByID(ctx, applicationID)
	if err != nil {
		http.Error(w, "application not found", http.StatusNotFound)
		return
	}

	// Coaches may only act on applications for their own club.
	if sess.Role == domainAccount.RoleCoach {
		own, err := coachClubID(ctx, sess.AccountID)
		if err != nil || own != app.ClubID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	if r.Method == "GET" {
		writeJSON(w, app)
		return
	}

	if r.Method != "POST" || len(parts) < 4 {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	note := ""
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		note = r.FormValue("Note")
	} else if r.ContentLength > 0 {
		var body struct{ Note string }
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		note = body.Note
	}

	deps := orchestrators.DecideApplicationDeps{
		ApplicationStore:  stores.ApplicationStore,
		AthleteStore:      stores.AthleteStore,
		AccountStore:      stores.AccountStore,
		ClubStore:         stores.ClubStore,
		OutboxStore:       stores.OutboxStore,
		NotificationStore: stores.NotificationStore,
		GenerateID:        generateID,
		Now:               timeNow,
		BaseURL:           publicBaseURL,
	}

	switch parts[3] {
	case "approve":
		result, err := orchestrators.ExecuteApproveApplication(ctx, orchestrators.ApproveApplicationInput{
			ApplicationID: applicationID,
			DeciderID:     sess.AccountID,
		}, deps)
		if err != nil {
			domainError(w, err)
			return
		}
		if isHTMLRequest(r) {
			http.Redirect(w, r, "/applications", http.StatusSeeOther)
			return
		}
		writeJSON(w, result)
	case "reject":
		updated, err := orchestrators.ExecuteRejectApplication(ctx, orchestrators.RejectApplicationInput{
			ApplicationID: applicationID,
			DeciderID:     sess.AccountID,
			Note:          note,
		}, deps)
		if err != nil {
			domainError(w, err)
			return
		}
		if isHTMLRequest(r) {
			http.Redirect(w, r, "/applications", http.StatusSeeOther)
			return
		}
		writeJSON(w, updated)
	case "request-info":
		updated, err := orchestrators.ExecuteRequestApplicationInfo(ctx, orchestrators.RequestApplicationInfoInput{
			ApplicationID: applicationID,
			DeciderID:     sess.AccountID,
			Note:          note,
		}, deps)
		if err != nil {
			domainError(w, err)
			return
		}
		if isHTMLRequest(r) {
			http.Redirect(w, r, "/applications", http.StatusSeeOther)
			return
		}
		writeJSON(w, updated)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}
