package featureflag

// DefaultFlags returns the known feature flags and their default settings.
//
// These are intended to represent broad, user-visible areas of the product.
// As new major features are added, append to this list.
func DefaultFlags() []FeatureFlag {
	return []FeatureFlag{
		{
			Key:            KeySelfCheckIn,
			Description:    "Self check-in (athletes marking their own attendance)",
			Enabled:        true,
			EnabledAdmin:   true,
			EnabledCoach:   true,
			EnabledAthlete: true,
			EnabledParent:  false,
		},
		{
			Key:            KeyParentPortal,
			Description:    "Parent portal (read-only athlete view for parents)",
			Enabled:        true,
			EnabledAdmin:   true,
			EnabledCoach:   false,
			EnabledAthlete: false,
			EnabledParent:  true,
		},
		{
			Key:            KeyEmailBroadcast,
			Description:    "Email broadcast of published announcements",
			Enabled:        false,
			EnabledAdmin:   true,
			EnabledCoach:   false,
			EnabledAthlete: false,
			EnabledParent:  false,
		},
	}
}
