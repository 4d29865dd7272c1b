package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tradeplusonline/accessbot/models"
)

type fakeStore struct {
	ents []models.Entitlement
	err  error
}

func (f *fakeStore) UpsertEntitlement(userID, chatID int64, expiresAt time.Time) error {
	return nil
}

func (f *fakeStore) GetEntitlement(userID int64) (*models.Entitlement, error) {
	return nil, nil
}

func (f *fakeStore) DeleteEntitlement(userID int64) error {
	return nil
}

func (f *fakeStore) ListEntitlements() ([]models.Entitlement, error) {
	return f.ents, f.err
}

type fakeRevoker struct {
	ownerID int64
	revoked []int64
	err     map[int64]error
}

func (f *fakeRevoker) Revoke(userID int64) error {
	if err, ok := f.err[userID]; ok {
		return err
	}
	f.revoked = append(f.revoked, userID)
	return nil
}

func (f *fakeRevoker) IsPrivileged(userID int64) bool {
	return f.ownerID != 0 && userID == f.ownerID
}

type fakeNotifier struct {
	notified []int64
	err      map[int64]error
}

func (f *fakeNotifier) NotifyExpiringSoon(ctx context.Context, ent models.Entitlement) error {
	if err, ok := f.err[ent.UserID]; ok {
		return err
	}
	f.notified = append(f.notified, ent.UserID)
	return nil
}

// blockingNotifier hangs until its per-user deadline fires, the way a dead
// Telegram connection would.
type blockingNotifier struct {
	attempted []int64
}

func (b *blockingNotifier) NotifyExpiringSoon(ctx context.Context, ent models.Entitlement) error {
	b.attempted = append(b.attempted, ent.UserID)
	<-ctx.Done()
	return ctx.Err()
}

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestSweeper(store *fakeStore, revoker *fakeRevoker, notifier *fakeNotifier) *Sweeper {
	sw := New(store, revoker, notifier, time.Hour, time.Second)
	sw.now = func() time.Time { return t0 }
	return sw
}

func ent(userID int64, expiresIn time.Duration) models.Entitlement {
	return models.Entitlement{UserID: userID, ChatID: userID, ExpiresAt: t0.Add(expiresIn)}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestSweepRevokesExpiredAndNotifiesOneDayBoundary(t *testing.T) {
	store := &fakeStore{ents: []models.Entitlement{
		ent(1, -2*24*time.Hour),  // two days past expiry: revoke
		ent(2, -time.Hour),       // one hour past expiry: revoke
		ent(3, 23*time.Hour),     // truncates to 0 days: no notice
		ent(4, 25*time.Hour),     // truncates to 1 day: notice
		ent(5, 10*24*time.Hour),  // far out: untouched
	}}
	revoker := &fakeRevoker{}
	notifier := &fakeNotifier{}

	sw := newTestSweeper(store, revoker, notifier)
	sw.sweepOnce(context.Background())

	if len(revoker.revoked) != 2 || !containsID(revoker.revoked, 1) || !containsID(revoker.revoked, 2) {
		t.Errorf("revoked = %v, want exactly users 1 and 2", revoker.revoked)
	}
	if len(notifier.notified) != 1 || !containsID(notifier.notified, 4) {
		t.Errorf("notified = %v, want exactly user 4", notifier.notified)
	}
}

func TestSweepSkipsOwner(t *testing.T) {
	store := &fakeStore{ents: []models.Entitlement{
		ent(99, -time.Hour),
		ent(100, 25*time.Hour),
	}}
	revoker := &fakeRevoker{ownerID: 99}
	notifier := &fakeNotifier{}

	sw := newTestSweeper(store, revoker, notifier)
	sw.sweepOnce(context.Background())

	if len(revoker.revoked) != 0 {
		t.Errorf("revoked = %v, want none: the owner is never swept", revoker.revoked)
	}
	if len(notifier.notified) != 1 || !containsID(notifier.notified, 100) {
		t.Errorf("notified = %v, want exactly user 100", notifier.notified)
	}
}

func TestSweepNotifyFailureDoesNotAbortCycle(t *testing.T) {
	store := &fakeStore{ents: []models.Entitlement{
		ent(1, 25*time.Hour),
		ent(2, 25*time.Hour),
		ent(3, -time.Hour),
	}}
	revoker := &fakeRevoker{}
	notifier := &fakeNotifier{err: map[int64]error{1: errors.New("user blocked the bot")}}

	sw := newTestSweeper(store, revoker, notifier)
	sw.sweepOnce(context.Background())

	if !containsID(notifier.notified, 2) {
		t.Errorf("notified = %v, want user 2 despite user 1 failing", notifier.notified)
	}
	if !containsID(revoker.revoked, 3) {
		t.Errorf("revoked = %v, want user 3 despite notification failure", revoker.revoked)
	}
}

func TestSweepRevokeFailureDoesNotAbortCycle(t *testing.T) {
	store := &fakeStore{ents: []models.Entitlement{
		ent(1, -time.Hour),
		ent(2, -2*time.Hour),
	}}
	revoker := &fakeRevoker{err: map[int64]error{1: errors.New("connection refused")}}
	notifier := &fakeNotifier{}

	sw := newTestSweeper(store, revoker, notifier)
	sw.sweepOnce(context.Background())

	if !containsID(revoker.revoked, 2) {
		t.Errorf("revoked = %v, want user 2 despite user 1 failing", revoker.revoked)
	}
}

func TestSweepListErrorSkipsCycle(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	revoker := &fakeRevoker{}
	notifier := &fakeNotifier{}

	sw := newTestSweeper(store, revoker, notifier)
	sw.sweepOnce(context.Background())

	if len(revoker.revoked) != 0 || len(notifier.notified) != 0 {
		t.Errorf("sweep acted on a failed snapshot: revoked=%v notified=%v",
			revoker.revoked, notifier.notified)
	}
}

func TestSweepStuckNotificationIsCutOff(t *testing.T) {
	// A recipient that never answers is abandoned at the per-user timeout;
	// the cycle still reaches every remaining record.
	store := &fakeStore{ents: []models.Entitlement{
		ent(1, 25*time.Hour), // notice hangs
		ent(2, 25*time.Hour), // notice hangs
		ent(3, -time.Hour),   // must still be revoked
	}}
	revoker := &fakeRevoker{}
	notifier := &blockingNotifier{}

	sw := New(store, revoker, notifier, time.Hour, 20*time.Millisecond)
	sw.now = func() time.Time { return t0 }

	start := time.Now()
	sw.sweepOnce(context.Background())
	elapsed := time.Since(start)

	if len(notifier.attempted) != 2 || !containsID(notifier.attempted, 1) || !containsID(notifier.attempted, 2) {
		t.Errorf("attempted = %v, want users 1 and 2 each tried once", notifier.attempted)
	}
	if !containsID(revoker.revoked, 3) {
		t.Errorf("revoked = %v, want user 3 despite stuck notifications", revoker.revoked)
	}
	if elapsed > time.Second {
		t.Errorf("sweep took %v, want stuck notices abandoned at the timeout", elapsed)
	}
}

func TestSweepRepeatsNoticeAcrossCycles(t *testing.T) {
	// No cross-cycle de-duplication: a user still inside the 1-day window
	// on the next cycle is warned again.
	store := &fakeStore{ents: []models.Entitlement{ent(7, 47*time.Hour)}}
	revoker := &fakeRevoker{}
	notifier := &fakeNotifier{}

	sw := newTestSweeper(store, revoker, notifier)

	sw.now = func() time.Time { return t0.Add(22 * time.Hour) } // 25h left
	sw.sweepOnce(context.Background())
	sw.now = func() time.Time { return t0.Add(22*time.Hour + 30*time.Minute) } // 24.5h left
	sw.sweepOnce(context.Background())

	if len(notifier.notified) != 2 {
		t.Errorf("notified %d times, want 2 (once per cycle inside the window)", len(notifier.notified))
	}
}
