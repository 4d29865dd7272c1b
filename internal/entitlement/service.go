package entitlement

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradeplusonline/accessbot/models"
)

// ownerDaysRemaining is what Status reports for the privileged identity.
const ownerDaysRemaining = 36500

// Service enforces the subscription rules on top of the store: grants
// overwrite expiry, renewals never stack, and the access predicate is
// "expires in the future", not "record exists".
type Service struct {
	store   models.EntitlementStore
	ownerID int64
	now     func() time.Time
	logger  zerolog.Logger
}

// NewService creates an entitlement service. ownerID is the configured
// privileged identity; 0 disables the bypass.
func NewService(store models.EntitlementStore, ownerID int64) *Service {
	return &Service{
		store:   store,
		ownerID: ownerID,
		now:     time.Now,
		logger:  log.With().Str("component", "entitlement").Logger(),
	}
}

// Grant sets the user's expiry to now + duration and returns the new expiry.
// A repeat grant replaces the previous expiry; remaining time is not carried
// over. Zero and negative durations are accepted and yield an already-expired
// record.
func (s *Service) Grant(userID, chatID int64, duration time.Duration) (time.Time, error) {
	expiresAt := s.now().UTC().Add(duration)

	if err := s.store.UpsertEntitlement(userID, chatID, expiresAt); err != nil {
		return time.Time{}, err
	}

	s.logger.Info().
		Int64("user_id", userID).
		Time("expires_at", expiresAt).
		Dur("duration", duration).
		Msg("Access granted")

	return expiresAt, nil
}

// Status reports the user's current access. A storage failure comes back as
// an error, never as AccessNone.
func (s *Service) Status(userID int64) (models.Access, error) {
	if s.IsPrivileged(userID) {
		return models.Access{State: models.AccessActive, DaysRemaining: ownerDaysRemaining}, nil
	}

	ent, err := s.store.GetEntitlement(userID)
	if err != nil {
		return models.Access{}, err
	}

	if ent == nil {
		return models.Access{State: models.AccessNone}, nil
	}

	now := s.now()
	if !ent.ExpiresAt.After(now) {
		// Still in the store but past expiry: the sweep has not caught
		// up yet. No access either way.
		return models.Access{State: models.AccessExpired}, nil
	}

	daysLeft := int(ent.ExpiresAt.Sub(now).Hours() / 24)
	return models.Access{State: models.AccessActive, DaysRemaining: daysLeft}, nil
}

// Revoke deletes the user's entitlement. Idempotent.
func (s *Service) Revoke(userID int64) error {
	if err := s.store.DeleteEntitlement(userID); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", userID).Msg("Access revoked")
	return nil
}

// IsPrivileged reports whether the user is the configured owner.
func (s *Service) IsPrivileged(userID int64) bool {
	return s.ownerID != 0 && userID == s.ownerID
}

// TrialEligible reports whether a confirmed channel member qualifies for the
// free trial: no usable access yet, and a tariff already selected for
// purchase.
func TrialEligible(access models.Access, pendingTariff string) bool {
	return !access.HasAccess() && pendingTariff != ""
}
