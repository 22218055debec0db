package notification

import (
	"errors"
	"time"
)

// Notification kinds
const (
	KindApplicationReceived = "application_received"
	KindApplicationDecided  = "application_decided"
	KindAnnouncement        = "announcement"
	KindSessionCancelled    = "session_cancelled"
	KindSessionReminder     = "session_reminder"
	KindLeaveRequest        = "leave_request"
)

// Recipient kinds. Account recipients are staff and athletes; parent
// recipients belong to the parent portal.
const (
	RecipientAccount = "account"
	RecipientParent  = "parent"
)

// ValidKinds contains all valid notification kinds.
var ValidKinds = []string{
	KindApplicationReceived,
	KindApplicationDecided,
	KindAnnouncement,
	KindSessionCancelled,
	KindSessionReminder,
	KindLeaveRequest,
}

// Domain errors
var (
	ErrEmptyRecipientID   = errors.New("recipient ID is required")
	ErrInvalidRecipient   = errors.New("recipient kind must be 'account' or 'parent'")
	ErrInvalidKind        = errors.New("notification kind is not recognised")
	ErrEmptyTitle         = errors.New("notification title cannot be empty")
	ErrMissingCreatedTime = errors.New("created_at must be set")
)

// Notification is an in-app message delivered to one recipient.
// SubjectID points at the record the notification is about, for example
// the application, session, or announcement.
type Notification struct {
	ID            string
	RecipientKind string // account, parent
	RecipientID   string
	Kind          string
	Title         string
	Body          string
	SubjectID     string
	ReadAt        time.Time
	CreatedAt     time.Time
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if n.RecipientID == "" {
		return ErrEmptyRecipientID
	}
	if n.RecipientKind != RecipientAccount && n.RecipientKind != RecipientParent {
		return ErrInvalidRecipient
	}
	if !isValidKind(n.Kind) {
		return ErrInvalidKind
	}
	if n.Title == "" {
		return ErrEmptyTitle
	}
	if n.CreatedAt.IsZero() {
		return ErrMissingCreatedTime
	}
	return nil
}

// IsRead returns true if the notification has been read.
// INVARIANT: ReadAt field is not mutated
func (n *Notification) IsRead() bool {
	return !n.ReadAt.IsZero()
}

// MarkRead records when the notification was read. Reading twice keeps
// the first timestamp.
func (n *Notification) MarkRead(now time.Time) {
	if n.ReadAt.IsZero() {
		n.ReadAt = now
	}
}

func isValidKind(k string) bool {
	for _, v := range ValidKinds {
		if v == k {
			return true
		}
	}
	return false
}
