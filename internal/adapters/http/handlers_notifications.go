package web

import (
	"net/http"
	"strconv"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainNotification "clubhouse/internal/domain/notification"
)

// notificationFeed serves one recipient's feed with the unread count.
func notificationFeed(w http.ResponseWriter, r *http.Request, kind, recipientID string) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	result, err := projections.QueryGetNotificationList(r.Context(), projections.GetNotificationListQuery{
		RecipientKind: kind,
		RecipientID:   recipientID,
		Limit:         limit,
	}, projections.GetNotificationListDeps{NotificationStore: stores.NotificationStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// markNotificationRead flips one notification for the recipient.
func markNotificationRead(w http.ResponseWriter, r *http.Request, kind, recipientID, notificationID string) {
	err := orchestrators.ExecuteMarkNotificationRead(r.Context(), orchestrators.MarkNotificationReadInput{
		NotificationID: notificationID,
		RecipientKind:  kind,
		RecipientID:    recipientID,
	}, orchestrators.MarkNotificationReadDeps{
		NotificationStore: stores.NotificationStore,
		Now:               timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/notifications", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// markAllNotificationsRead clears the recipient's unread pile.
func markAllNotificationsRead(w http.ResponseWriter, r *http.Request, kind, recipientID string) {
	err := orchestrators.ExecuteMarkAllNotificationsRead(r.Context(), orchestrators.MarkAllNotificationsReadInput{
		RecipientKind: kind,
		RecipientID:   recipientID,
	}, orchestrators.MarkAllNotificationsReadDeps{
		NotificationStore: stores.NotificationStore,
		Now:               timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/notifications", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNotifications handles GET /api/notifications and POST
// /api/notifications/read-all for the signed-in staff or athlete account.
func handleNotifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	parts := pathParts(r)
	if r.Method == "POST" && len(parts) >= 3 && parts[2] == "read-all" {
		markAllNotificationsRead(w, r, domainNotification.RecipientAccount, sess.AccountID)
		return
	}

	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	notificationFeed(w, r, domainNotification.RecipientAccount, sess.AccountID)
}

// handleNotificationByID handles POST /api/notifications/:id/read.
func handleNotificationByID(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
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
	markNotificationRead(w, r, domainNotification.RecipientAccount, sess.AccountID, parts[2])
}
