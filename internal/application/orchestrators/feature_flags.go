package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"clubhouse/internal/domain/featureflag"
)

// FlagStoreForAdmin is the feature flag access seeding and toggling
// need.
type FlagStoreForAdmin interface {
	GetByKey(ctx context.Context, key string) (featureflag.FeatureFlag, error)
	List(ctx context.Context) ([]featureflag.FeatureFlag, error)
	Save(ctx context.Context, value featureflag.FeatureFlag) error
}

// ExecuteSeedFeatureFlags inserts any known flag missing from the
// store. Existing rows are left alone so admin changes survive
// restarts.
// POST: every flag in featureflag.DefaultFlags exists in the store
func ExecuteSeedFeatureFlags(ctx context.Context, store FlagStoreForAdmin) (int, error) {
	seeded := 0
	for _, flag := range featureflag.DefaultFlags() {
		if _, err := store.GetByKey(ctx, flag.Key); err == nil {
			continue
		}
		if err := store.Save(ctx, flag); err != nil {
			return seeded, err
		}
		seeded++
	}
	if seeded > 0 {
		slog.Info("application_event", "event", "feature_flags_seeded", "count", seeded)
	}
	return seeded, nil
}

// ToggleFeatureFlagInput carries the full desired state of one flag.
type ToggleFeatureFlagInput struct {
	Key            string
	Enabled        bool
	EnabledAdmin   bool
	EnabledCoach   bool
	EnabledAthlete bool
	EnabledParent  bool
}

// ExecuteToggleFeatureFlag updates one flag's availability. Only known
// keys can be toggled; the set of flags is fixed in code.
// PRE: Key refers to a seeded flag
// POST: the stored flag matches the input
func ExecuteToggleFeatureFlag(ctx context.Context, input ToggleFeatureFlagInput, store FlagStoreForAdmin) (featureflag.FeatureFlag, error) {
	if input.Key == "" {
		return featureflag.FeatureFlag{}, featureflag.ErrMissingKey
	}

	flag, err := store.GetByKey(ctx, input.Key)
	if err != nil {
		return featureflag.FeatureFlag{}, errors.New("feature flag not found")
	}

	flag.Enabled = input.Enabled
	flag.EnabledAdmin = input.EnabledAdmin
	flag.EnabledCoach = input.EnabledCoach
	flag.EnabledAthlete = input.EnabledAthlete
	flag.EnabledParent = input.EnabledParent

	if err := flag.Validate(); err != nil {
		return featureflag.FeatureFlag{}, err
	}
	if err := store.Save(ctx, flag); err != nil {
		return featureflag.FeatureFlag{}, err
	}

	slog.Info("application_event", "event", "feature_flag_toggled", "key", flag.Key, "enabled", flag.Enabled)
	return flag, nil
}
