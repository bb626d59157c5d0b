package ports

import (
	"context"
	"lingodrill/internal/types"
)

// ProfileStore persists per-(user, bot) profiles.
// Each Apply* call MUST be a single atomic persistence call so a concurrent
// reader never observes a half-updated profile. Application-level ordering
// across concurrent updates for the same profile is NOT required: the last
// writer for a field wins.
type ProfileStore interface {
	// Get returns the profile. MUST return types.ErrNotFound if absent.
	Get(ctx context.Context, userID int64, botID string) (types.Profile, error)

	// Create persists a new profile. MUST fail if the profile already exists;
	// callers treat a creation race as "someone else created it" and re-Get.
	Create(ctx context.Context, p types.Profile) (types.Profile, error)

	// ApplySession applies the session/streak update atomically and returns
	// the resulting profile.
	ApplySession(ctx context.Context, userID int64, botID string, u types.SessionUpdate) (types.Profile, error)

	ApplyProfile(ctx context.Context, userID int64, botID string, u types.ProfileUpdate) (types.Profile, error)

	// ApplyStatus sets the user's standing (active/blocked/inactive).
	ApplyStatus(ctx context.Context, userID int64, botID string, status types.UserStatus) (types.Profile, error)
}
