package assignment

import (
	"context"
	"errors"
	"time"

	"tablebook/internal/reservations"
	"tablebook/internal/shared/constants"
	"tablebook/internal/shared/errs"
	"tablebook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommitterConfig bounds the retries of a contended commit.
type CommitterConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	LockTTL     time.Duration
}

// Committer persists assignments so that no two overlapping reservations end up on the
// same table. Each attempt selects a unit, locks its tables and re-checks them inside a
// transaction; lost races back off exponentially.
type Committer struct {
	store  Store
	locker Locker
	cfg    CommitterConfig
	log    *logger.Logger
}

func NewCommitter(store Store, locker Locker, cfg CommitterConfig) *Committer {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	return &Committer{store: store, locker: locker, cfg: cfg, log: logger.GetDefault()}
}

// Commit assigns a unit to r and writes it. A no_candidate outcome is not an error; running
// out of attempts returns a conflict outcome with a slot_unavailable error.
func (c *Committer) Commit(ctx context.Context, r *reservations.Reservation, req Request, existing bool, onWrite func(tx *gorm.DB) error) (Outcome, error) {
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		floor, err := c.store.LoadFloor(ctx, r.LocationID)
		if err != nil {
			return Outcome{}, err
		}
		bookings, err := c.store.Bookings(ctx, r.LocationID, r.Date)
		if err != nil {
			return Outcome{}, err
		}

		candidates, reason := Candidates(req, floor, bookings)
		if len(candidates) == 0 {
			return Outcome{Kind: KindNoCandidate, Reason: reason, Attempts: attempt}, nil
		}
		unit := candidates[0]

		err = c.attempt(ctx, Write{Reservation: r, Unit: unit, Existing: existing, OnWrite: onWrite})
		if err == nil {
			c.log.LogAssignmentCommitted(ctx, r.ID.String(), string(unit.Kind), unit.ID.String(), attempt)
			return Outcome{Kind: KindAssigned, Unit: &unit, Attempts: attempt}, nil
		}
		if !errors.Is(err, ErrLockBusy) && !errors.Is(err, ErrConflict) {
			return Outcome{}, err
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}
		wait := backoff(c.cfg.Backoff, attempt)
		c.log.LogCommitRetry(ctx, r.LocationID.String(), attempt, wait, err.Error())
		if err := sleep(ctx, wait); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{Kind: KindConflict, Reason: ReasonLostToContention, Attempts: c.cfg.MaxAttempts},
		errs.New(errs.CodeSlotUnavailable, "the slot just became unavailable, please try another slot").
			WithDetail("attempts", c.cfg.MaxAttempts)
}

func (c *Committer) attempt(ctx context.Context, w Write) error {
	r := w.Reservation
	keys := lockKeys(r, w.Unit.TableIDs)
	release, err := c.locker.Acquire(ctx, keys, c.cfg.LockTTL)
	if err != nil {
		return err
	}
	defer release()

	prevTable, prevGroup, prevIDs := r.TableID, r.TableGroupID, r.TableIDs
	if err := c.store.Commit(ctx, w); err != nil {
		r.TableID, r.TableGroupID, r.TableIDs = prevTable, prevGroup, prevIDs
		return err
	}
	return nil
}

// maxBackoffShift caps the exponential growth of the retry delay.
const maxBackoffShift = 6

func backoff(base time.Duration, attempt int) time.Duration {
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return base << uint(shift)
}

func lockKeys(r *reservations.Reservation, tableIDs []uuid.UUID) []string {
	keys := make([]string, 0, len(tableIDs))
	for _, id := range tableIDs {
		keys = append(keys, constants.BuildTableLockKey(r.LocationID.String(), r.Date.String(), id.String()))
	}
	return keys
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
