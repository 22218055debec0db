package loginsession

import (
	"time"

	"github.com/google/uuid"
)

// Portal identifies which login surface produced the record.
type Portal string

const (
	PortalStaff  Portal = "staff"
	PortalParent Portal = "parent"
)

// Outcome represents the result of a login attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeLocked  Outcome = "locked"
	OutcomeLogout  Outcome = "logout"
)

// Record is a single entry in the login audit trail. Every staff,
// athlete, and parent sign-in attempt leaves one, successful or not.
type Record struct {
	ID        string    `json:"id"`
	Portal    Portal    `json:"portal"`
	Email     string    `json:"email"`
	SubjectID string    `json:"subject_id"` // account or parent ID when known
	Outcome   Outcome   `json:"outcome"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord creates a login record for the given attempt.
// PRE: email is the submitted login email, outcome is a valid Outcome
// POST: Returns a Record with a fresh ID and the provided timestamp
func NewRecord(portal Portal, email string, outcome Outcome, now time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		Portal:    portal,
		Email:     email,
		Outcome:   outcome,
		CreatedAt: now,
	}
}

// WithSubject sets the authenticated subject once it is known.
// POST: Record subject field is populated
func (r Record) WithSubject(subjectID string) Record {
	r.SubjectID = subjectID
	return r
}

// WithRequest sets IP address and user agent from the HTTP request.
// POST: Record network fields are populated
func (r Record) WithRequest(ipAddress, userAgent string) Record {
	r.IPAddress = ipAddress
	r.UserAgent = userAgent
	return r
}
