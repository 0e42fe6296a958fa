package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tablebook/internal/shared/errs"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) Repository
	// Transaction runs fn in one database transaction.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	// GetForUpdate loads the reservation holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Reservation, error)
	// ListForDate returns the reservations of a location and date that still count toward
	// capacity, ordered by start time.
	ListForDate(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]Reservation, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	// ListExpiredOptions returns the ids of pending reservations whose option expired at or
	// before now, oldest expiry first.
	ListExpiredOptions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) Create(ctx context.Context, res *Reservation) error {
	if err := r.db.WithContext(ctx).Create(res).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repository) get(q *gorm.DB, id uuid.UUID) (*Reservation, error) {
	var res Reservation
	if err := q.Where("id = ?", id).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeNotFound, "reservation %s not found", id).WithDetail("reservation_id", id.String())
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return &res, nil
}

func (r *repository) ListForDate(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]Reservation, error) {
	var list []Reservation
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND date = ?", locationID, date).
		Where("status NOT IN ?", []Status{StatusCancelled, StatusNoShow}).
		Order("start_time ASC").
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Reservation{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.New(errs.CodeNotFound, "reservation %s not found", id)
	}
	return nil
}

func (r *repository) ListExpiredOptions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).Model(&Reservation{}).
		Where("status = ? AND option_expires_at IS NOT NULL AND option_expires_at <= ?", StatusPending, now).
		Order("option_expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired options: %w", err)
	}
	return ids, nil
}
