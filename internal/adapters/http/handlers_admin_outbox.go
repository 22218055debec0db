package web

import (
	"net/http"
	"strconv"

	"clubhouse/internal/application/orchestrators"
	domainAccount "clubhouse/internal/domain/account"
	"clubhouse/internal/domain/outbox"
)

// outboxExecutors builds the action executors used for manual retries.
// Without a configured sender, retries still run and record the failure.
func outboxExecutors() map[string]orchestrators.ActionExecutor {
	if emailSender == nil {
		return nil
	}
	return map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{
			Sender:  emailSender,
			From:    emailFromAddress,
			ReplyTo: emailReplyTo,
		},
	}
}

// handleAdminOutbox handles admin endpoints for managing outbox entries.
// Routes: GET /admin/outbox (list entries), POST /admin/outbox/:id/retry
// (manual retry), POST /admin/outbox/:id/abandon
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireRole(w, r, domainAccount.RoleAdmin); !ok {
		return
	}

	switch r.Method {
	case "GET":
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		status := r.URL.Query().Get("status")
		actionType := r.URL.Query().Get("action_type")

		var entries []outbox.Entry
		var err error
		switch {
		case actionType != "":
			entries, err = stores.OutboxStore.ListByActionType(ctx, actionType, status, limit)
		case status == "pending":
			entries, err = stores.OutboxStore.ListPending(ctx, limit)
		default:
			// The review queue defaults to what needs a human.
			entries, err = stores.OutboxStore.ListFailed(ctx, limit)
		}
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, entries)

	case "POST":
		parts := pathParts(r)
		if len(parts) < 4 || parts[0] != "admin" || parts[1] != "outbox" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}
		entryID := parts[2]
		action := parts[3]

		processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, outboxExecutors())

		switch action {
		case "retry":
			if err := processor.ProcessSingle(ctx, entryID); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]string{"status": "retry triggered"})

		case "abandon":
			if err := processor.AbandonEntry(ctx, entryID); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]string{"status": "abandoned"})

		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
		}

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
