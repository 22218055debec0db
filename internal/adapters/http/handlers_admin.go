package web

import (
	"net/http"
	"strconv"
	"time"

	"clubhouse/internal/application/orchestrators"
	domainAccount "clubhouse/internal/domain/account"
)

// accountView is the admin-facing shape of an account. The password
// hash never leaves the server.
type accountView struct {
	ID                     string
	Email                  string
	Role                   string
	Status                 string
	CreatedAt              time.Time
	FailedLogins           int
	LockedUntil            time.Time
	PasswordChangeRequired bool
}

func toAccountView(a domainAccount.Account) accountView {
	return accountView{
		ID:                     a.ID,
		Email:                  a.Email,
		Role:                   a.Role,
		Status:                 a.Status,
		CreatedAt:              a.CreatedAt,
		FailedLogins:           a.FailedLogins,
		LockedUntil:            a.LockedUntil,
		PasswordChangeRequired: a.PasswordChangeRequired,
	}
}

// handleAdminAccounts handles GET (list) and POST (create) for
// /admin/accounts. Admin only.
func handleAdminAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
		return
	}

	if r.Method == "GET" {
		accounts, err := stores.AccountStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		views := make([]accountView, 0, len(accounts))
		for _, a := range accounts {
			views = append(views, toAccountView(a))
		}
		writeJSON(w, map[string]any{"accounts": views})
		return
	}

	if r.Method == "POST" {
		input := orchestrators.CreateAccountInput{PasswordChangeRequired: true}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Email = r.FormValue("Email")
			input.Password = r.FormValue("Password")
			input.Role = r.FormValue("Role")
		} else {
			var body struct {
				Email    string
				Password string
				Role     string
			}
			if err := strictDecode(r, &body); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			input.Email = body.Email
			input.Password = body.Password
			input.Role = body.Role
		}

		id, err := orchestrators.ExecuteCreateAccount(ctx, input, orchestrators.CreateAccountDeps{
			AccountStore: stores.AccountStore,
			GenerateID:   generateID,
			Now:          timeNow,
		})
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/admin/accounts", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]string{"account_id": id})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleAdminAccountByID handles POST /admin/accounts/:id/activation-token.
// Hands back a fresh activation link for operators to pass along when
// the queued email never landed.
func handleAdminAccountByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
		return
	}

	parts := pathParts(r)
	if len(parts) < 4 || parts[3] != "activation-token" {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token, err := orchestrators.ExecuteIssueActivationToken(ctx, orchestrators.IssueActivationTokenInput{
		AccountID: parts[2],
	}, orchestrators.IssueActivationTokenDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"token":          token.Token,
		"activation_url": publicBaseURL + "/activate?token=" + token.Token,
		"expires_at":     token.ExpiresAt,
	})
}

// handleAdminFlags handles GET (list) and POST (toggle) for /admin/flags.
func handleAdminFlags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
		return
	}

	if r.Method == "GET" {
		flags, err := stores.FeatureFlagStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, map[string]any{"flags": flags})
		return
	}

	if r.Method == "POST" {
		input := orchestrators.ToggleFeatureFlagInput{}
		if isFormRequest(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			input.Key = r.FormValue("Key")
			input.Enabled = r.FormValue("Enabled") == "on" || r.FormValue("Enabled") == "true"
			input.EnabledAdmin = r.FormValue("EnabledAdmin") == "on" || r.FormValue("EnabledAdmin") == "true"
			input.EnabledCoach = r.FormValue("EnabledCoach") == "on" || r.FormValue("EnabledCoach") == "true"
			input.EnabledAthlete = r.FormValue("EnabledAthlete") == "on" || r.FormValue("EnabledAthlete") == "true"
			input.EnabledParent = r.FormValue("EnabledParent") == "on" || r.FormValue("EnabledParent") == "true"
		} else {
			if err := strictDecode(r, &input); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
		}

		flag, err := orchestrators.ExecuteToggleFeatureFlag(ctx, input, stores.FeatureFlagStore)
		if err != nil {
			domainError(w, err)
			return
		}

		if isHTMLRequest(r) {
			http.Redirect(w, r, "/admin/flags", http.StatusSeeOther)
			return
		}
		writeJSON(w, flag)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleAdminPerf serves a latency snapshot from the in-memory ring.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
		return
	}

	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}

	window := 15 * time.Minute
	if v := r.URL.Query().Get("window_minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			window = time.Duration(n) * time.Minute
		}
	}
	topN := 10
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			topN = n
		}
	}

	writeJSON(w, perfCollector.Snapshot(timeNow().Add(-window), topN))
}
