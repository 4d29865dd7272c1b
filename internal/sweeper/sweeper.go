package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradeplusonline/accessbot/models"
)

// Revoker is the slice of the entitlement service the sweep needs.
type Revoker interface {
	Revoke(userID int64) error
	IsPrivileged(userID int64) bool
}

// Notifier delivers the near-expiry notice to one user.
type Notifier interface {
	NotifyExpiringSoon(ctx context.Context, ent models.Entitlement) error
}

// Sweeper periodically scans all entitlements, warns users whose remaining
// time truncates to exactly one day, and revokes records past expiry.
type Sweeper struct {
	store         models.EntitlementStore
	revoker       Revoker
	notifier      Notifier
	interval      time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	logger        zerolog.Logger
}

// New creates a sweeper. interval is the wall-clock period between sweeps;
// notifyTimeout bounds each per-user notification attempt.
func New(store models.EntitlementStore, revoker Revoker, notifier Notifier, interval, notifyTimeout time.Duration) *Sweeper {
	return &Sweeper{
		store:         store,
		revoker:       revoker,
		notifier:      notifier,
		interval:      interval,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
		logger:        log.With().Str("component", "sweeper").Logger(),
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce runs a single sweep cycle over a snapshot of the store. Failures
// on one record never abort the rest; the next cycle retries naturally.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	ents, err := s.store.ListEntitlements()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list entitlements, skipping sweep cycle")
		return
	}

	now := s.now()
	revoked := 0
	notified := 0

	for _, ent := range ents {
		if s.revoker.IsPrivileged(ent.UserID) {
			continue
		}

		if ent.ExpiresAt.Before(now) {
			if err := s.revoker.Revoke(ent.UserID); err != nil {
				s.logger.Error().Err(err).Int64("user_id", ent.UserID).Msg("Failed to revoke expired entitlement")
				continue
			}
			revoked++
			continue
		}

		// Warn when the truncated remaining time is exactly one day.
		// A user straddling that boundary across two cycles may be
		// warned twice; there is no cross-cycle de-duplication.
		daysLeft := int(ent.ExpiresAt.Sub(now).Hours() / 24)
		if daysLeft == 1 {
			notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
			err := s.notifier.NotifyExpiringSoon(notifyCtx, ent)
			cancel()
			if err != nil {
				// The user may have blocked the bot; skip and move on.
				s.logger.Warn().Err(err).Int64("user_id", ent.UserID).Msg("Failed to deliver near-expiry notice")
				continue
			}
			notified++
		}
	}

	s.logger.Info().
		Int("total", len(ents)).
		Int("revoked", revoked).
		Int("notified", notified).
		Msg("Sweep cycle completed")
}
