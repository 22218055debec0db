package announcement

import (
	"errors"
	"time"
)

// Announcement audiences
const (
	AudienceClub     = "club" // everyone connected to the club
	AudienceAthletes = "athletes"
	AudienceCoaches  = "coaches"
	AudienceParents  = "parents"
)

// Announcement statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Color presets: 7 predefined highlight colours for announcements.
const (
	ColorOrange = "orange" // #F9B232 (default)
	ColorRed    = "red"    // #e74c3c
	ColorGreen  = "green"  // #27ae60
	ColorBlue   = "blue"   // #2980b9
	ColorPurple = "purple" // #8e44ad
	ColorTeal   = "teal"   // #16a085
	ColorGrey   = "grey"   // #7f8c8d
)

// ColorHex maps preset names to hex values.
var ColorHex = map[string]string{
	ColorOrange: "#F9B232",
	ColorRed:    "#e74c3c",
	ColorGreen:  "#27ae60",
	ColorBlue:   "#2980b9",
	ColorPurple: "#8e44ad",
	ColorTeal:   "#16a085",
	ColorGrey:   "#7f8c8d",
}

// ValidColors contains all valid colour preset names.
var ValidColors = []string{ColorOrange, ColorRed, ColorGreen, ColorBlue, ColorPurple, ColorTeal, ColorGrey}

// ValidAudiences contains all valid announcement audiences.
var ValidAudiences = []string{AudienceClub, AudienceAthletes, AudienceCoaches, AudienceParents}

// ValidStatuses contains all valid announcement statuses.
var ValidStatuses = []string{StatusDraft, StatusPublished}

// Domain errors
var (
	ErrEmptyTitle       = errors.New("announcement title cannot be empty")
	ErrEmptyBody        = errors.New("announcement body cannot be empty")
	ErrInvalidAudience  = errors.New("announcement audience must be one of: club, athletes, coaches, parents")
	ErrInvalidStatus    = errors.New("announcement status must be one of: draft, published")
	ErrInvalidColor     = errors.New("announcement color must be one of: orange, red, green, blue, purple, teal, grey")
	ErrAlreadyPinned    = errors.New("announcement is already pinned")
	ErrNotPinned        = errors.New("announcement is not pinned")
	ErrAlreadyPublished = errors.New("announcement is already published")
	ErrNoPublisher      = errors.New("publisher ID is required")
)

// Announcement is a club noticeboard entry. Body supports Markdown
// formatting. Audience controls who is notified on publish.
type Announcement struct {
	ID           string
	ClubID       string // empty targets every club
	Audience     string // club, athletes, coaches, parents
	Status       string // draft, published
	Title        string
	Body         string // Markdown content
	CreatedBy    string // AccountID of author
	PublishedBy  string // AccountID of publisher (empty if draft)
	AuthorName   string // Display name of the author
	ShowAuthor   bool   // Whether to show author name when displayed
	Color        string // Highlight colour preset (orange, red, green, blue, purple, teal, grey)
	Pinned       bool   // Whether pinned to top of the noticeboard
	PinnedAt     time.Time
	VisibleFrom  time.Time // Scheduled appearance (zero = immediately)
	VisibleUntil time.Time // Scheduled disappearance (zero = indefinite)
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  time.Time
}

// Validate checks if the Announcement has valid data.
// PRE: Announcement struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Announcement) Validate() error {
	if a.Title == "" {
		return ErrEmptyTitle
	}
	if a.Body == "" {
		return ErrEmptyBody
	}
	if !isValidAudience(a.Audience) {
		return ErrInvalidAudience
	}
	if !isValidStatus(a.Status) {
		return ErrInvalidStatus
	}
	if a.Color != "" && !isValidColor(a.Color) {
		return ErrInvalidColor
	}
	return nil
}

// EffectiveColor returns the color hex value, defaulting to orange.
func (a *Announcement) EffectiveColor() string {
	if a.Color == "" {
		return ColorHex[ColorOrange]
	}
	if hex, ok := ColorHex[a.Color]; ok {
		return hex
	}
	return ColorHex[ColorOrange]
}

// IsVisible returns true if the announcement is currently visible based
// on the scheduled window.
// PRE: now is the current time in UTC
// POST: Returns true if the announcement falls within its visibility window
func (a *Announcement) IsVisible(now time.Time) bool {
	if !a.VisibleFrom.IsZero() && now.Before(a.VisibleFrom) {
		return false
	}
	if !a.VisibleUntil.IsZero() && now.After(a.VisibleUntil) {
		return false
	}
	return true
}

// Pin marks the announcement as pinned.
// PRE: Announcement is not already pinned
// POST: Pinned is true, PinnedAt is set
func (a *Announcement) Pin(now time.Time) error {
	if a.Pinned {
		return ErrAlreadyPinned
	}
	a.Pinned = true
	a.PinnedAt = now
	return nil
}

// Unpin removes the pinned status.
// PRE: Announcement is pinned
// POST: Pinned is false, PinnedAt is zeroed
func (a *Announcement) Unpin() error {
	if !a.Pinned {
		return ErrNotPinned
	}
	a.Pinned = false
	a.PinnedAt = time.Time{}
	return nil
}

// IsDraft returns true if the announcement is in draft state.
// INVARIANT: Status field is not mutated
func (a *Announcement) IsDraft() bool {
	return a.Status == StatusDraft
}

// IsPublished returns true if the announcement has been published.
// INVARIANT: Status field is not mutated
func (a *Announcement) IsPublished() bool {
	return a.Status == StatusPublished
}

// Publish moves the announcement from draft to published.
// PRE: Announcement is in draft state, publisherID is non-empty
// POST: Status is published, PublishedBy and PublishedAt are set
func (a *Announcement) Publish(publisherID string, now time.Time) error {
	if a.IsPublished() {
		return ErrAlreadyPublished
	}
	if publisherID == "" {
		return ErrNoPublisher
	}
	a.Status = StatusPublished
	a.PublishedBy = publisherID
	a.PublishedAt = now
	a.UpdatedAt = now
	return nil
}

func isValidAudience(aud string) bool {
	for _, v := range ValidAudiences {
		if v == aud {
			return true
		}
	}
	return false
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func isValidColor(c string) bool {
	for _, v := range ValidColors {
		if v == c {
			return true
		}
	}
	return false
}
