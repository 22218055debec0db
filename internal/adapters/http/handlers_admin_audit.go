package web

import (
	"net/http"
	"strconv"

	"clubhouse/internal/application/projections"
	domainAccount "clubhouse/internal/domain/account"
)

// handleAdminLogins serves the login audit trail (GET /admin/logins).
// Filters: portal, email, outcome. Paged via limit/offset.
func handleAdminLogins(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
		return
	}

	query := projections.GetLoginSessionsQuery{
		Portal:  r.URL.Query().Get("portal"),
		Email:   r.URL.Query().Get("email"),
		Outcome: r.URL.Query().Get("outcome"),
		Limit:   100,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			query.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			query.Offset = n
		}
	}

	result, err := projections.QueryGetLoginSessions(r.Context(), query, projections.GetLoginSessionsDeps{
		LoginSessionStore: stores.LoginSessionStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}
