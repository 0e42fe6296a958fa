package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrConflict is returned when the unit was taken between selection and commit.
var ErrConflict = errors.New("unit was taken by a concurrent commit")

// Write is one assignment to persist.
type Write struct {
	Reservation *reservations.Reservation
	Unit        floorplan.Unit
	// Existing updates the table references of a stored reservation instead of inserting it.
	Existing bool
	// OnWrite runs inside the transaction after the reservation is written.
	OnWrite func(tx *gorm.DB) error
}

// Store reads floor and occupancy snapshots and persists assignments.
type Store interface {
	LoadFloor(ctx context.Context, locationID uuid.UUID) (*floorplan.Floor, error)
	Bookings(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]Booking, error)
	// Commit locks the unit's table rows, re-checks them for overlaps and writes the
	// reservation in one transaction. It returns ErrConflict when the unit is taken.
	Commit(ctx context.Context, w Write) error
}

type store struct {
	db     *gorm.DB
	floors floorplan.Repository
}

func NewStore(db *gorm.DB, floors floorplan.Repository) Store {
	return &store{db: db, floors: floors}
}

func (s *store) LoadFloor(ctx context.Context, locationID uuid.UUID) (*floorplan.Floor, error) {
	return s.floors.LoadFloor(ctx, locationID)
}

func (s *store) Bookings(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]Booking, error) {
	list, err := reservations.NewRepository(s.db).ListForDate(ctx, locationID, date)
	if err != nil {
		return nil, err
	}
	return BookingsFrom(list), nil
}

func (s *store) Commit(ctx context.Context, w Write) error {
	r := w.Reservation
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []floorplan.Table
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", w.Unit.TableIDs).
			Order("id").
			Find(&locked).Error
		if err != nil {
			return fmt.Errorf("failed to lock tables: %w", err)
		}
		if len(locked) != len(w.Unit.TableIDs) {
			return ErrConflict
		}
		for _, t := range locked {
			if !t.IsActive {
				return ErrConflict
			}
		}

		repo := reservations.NewRepository(tx)
		list, err := repo.ListForDate(ctx, r.LocationID, r.Date)
		if err != nil {
			return err
		}
		members := make(map[uuid.UUID]bool, len(w.Unit.TableIDs))
		for _, id := range w.Unit.TableIDs {
			members[id] = true
		}
		for _, b := range BookingsFrom(list) {
			if b.ReservationID == r.ID || !Overlaps(r.StartTime, r.DurationMinutes, r.BufferMinutes, b) {
				continue
			}
			for _, id := range b.TableIDs {
				if members[id] {
					return ErrConflict
				}
			}
		}

		applyUnit(r, w.Unit)
		if w.Existing {
			err = repo.UpdateFields(ctx, r.ID, map[string]interface{}{
				"table_id":       r.TableID,
				"table_group_id": r.TableGroupID,
				"table_ids":      r.TableIDs,
			})
		} else {
			err = repo.Create(ctx, r)
		}
		if err != nil {
			return err
		}

		if err := touchUnit(tx, w.Unit, time.Now().UTC()); err != nil {
			return err
		}
		if w.OnWrite != nil {
			return w.OnWrite(tx)
		}
		return nil
	})
}

// touchUnit records the assignment time used by round-robin fill order.
func touchUnit(tx *gorm.DB, u floorplan.Unit, at time.Time) error {
	var model interface{} = &floorplan.Table{}
	if u.Kind == floorplan.UnitGroup {
		model = &floorplan.TableGroup{}
	}
	if err := tx.Model(model).Where("id = ?", u.ID).Update("last_assigned_at", at).Error; err != nil {
		return fmt.Errorf("failed to update last assignment: %w", err)
	}
	return nil
}

func applyUnit(r *reservations.Reservation, u floorplan.Unit) {
	id := u.ID
	r.TableID, r.TableGroupID = nil, nil
	if u.Kind == floorplan.UnitGroup {
		r.TableGroupID = &id
	} else {
		r.TableID = &id
	}
	r.TableIDs = append(r.TableIDs[:0:0], u.TableIDs...)
}
