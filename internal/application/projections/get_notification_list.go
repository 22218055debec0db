package projections

import (
	"context"
	"sort"

	domainNotification "clubhouse/internal/domain/notification"
)

// defaultNotificationLimit bounds the notification feed.
const defaultNotificationLimit = 50

// GetNotificationListQuery carries query parameters.
type GetNotificationListQuery struct {
	RecipientKind string
	RecipientID   string
	Limit         int
}

// GetNotificationListResult carries the query result.
type GetNotificationListResult struct {
	Notifications []domainNotification.Notification
	UnreadCount   int
}

// GetNotificationListDeps holds dependencies for GetNotificationList.
type GetNotificationListDeps struct {
	NotificationStore NotificationStore
}

// QueryGetNotificationList retrieves one recipient's notification feed.
// PRE: RecipientKind and RecipientID are non-empty
// POST: unread entries first, newest first within each group
func QueryGetNotificationList(ctx context.Context, query GetNotificationListQuery, deps GetNotificationListDeps) (GetNotificationListResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	items, err := deps.NotificationStore.ListByRecipient(ctx, query.RecipientKind, query.RecipientID, limit)
	if err != nil {
		return GetNotificationListResult{}, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsRead() != items[j].IsRead() {
			return !items[i].IsRead()
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	unread, err := deps.NotificationStore.CountUnread(ctx, query.RecipientKind, query.RecipientID)
	if err != nil {
		return GetNotificationListResult{}, err
	}

	return GetNotificationListResult{Notifications: items, UnreadCount: unread}, nil
}
