package featureflag

import "errors"

// Flag keys referenced by code. Keys are stable; routes and workers
// check them at request time.
const (
	KeySelfCheckIn    = "self_checkin"
	KeyParentPortal   = "parent_portal"
	KeyEmailBroadcast = "email_broadcast"
)

// FeatureFlag holds server-enforced availability controls for a feature.
//
// Key is stable and referenced by code (routes/workers).
//
// NOTE: We store booleans per role explicitly rather than using maps to keep
// storage and JSON payloads simple.
type FeatureFlag struct {
	Key         string
	Description string

	Enabled bool

	EnabledAdmin   bool
	EnabledCoach   bool
	EnabledAthlete bool
	EnabledParent  bool
}

var (
	ErrMissingKey = errors.New("feature flag key is required")
)

// Validate checks required fields for a FeatureFlag.
// PRE: FeatureFlag struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (f *FeatureFlag) Validate() error {
	if f.Key == "" {
		return ErrMissingKey
	}
	return nil
}

// EnabledForRole returns true if the feature is on globally and enabled
// for the given role. Parents pass the literal role "parent".
//
// PRE: role is a valid session role string
// INVARIANT: f is not mutated
func (f FeatureFlag) EnabledForRole(role string) bool {
	if !f.Enabled {
		return false
	}
	switch role {
	case "admin":
		return f.EnabledAdmin
	case "coach":
		return f.EnabledCoach
	case "athlete":
		return f.EnabledAthlete
	case "parent":
		return f.EnabledParent
	default:
		return false
	}
}
