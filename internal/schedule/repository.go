package schedule

import (
	"context"
	"errors"

	"tablebook/internal/shared/errs"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetShiftsByLocation(ctx context.Context, locationID uuid.UUID) ([]Shift, error)
	GetShiftByID(ctx context.Context, id uuid.UUID) (*Shift, error)
	GetExceptionsForDate(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]ShiftException, error)
	CreateShift(ctx context.Context, shift *Shift) error
	CreateException(ctx context.Context, exc *ShiftException) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetShiftsByLocation(ctx context.Context, locationID uuid.UUID) ([]Shift, error) {
	var shifts []Shift
	err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("display_order ASC, start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *repository) GetShiftByID(ctx context.Context, id uuid.UUID) (*Shift, error) {
	var shift Shift
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeNotFound, "shift %s not found", id)
		}
		return nil, err
	}
	return &shift, nil
}

func (r *repository) GetExceptionsForDate(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]ShiftException, error) {
	var exceptions []ShiftException
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND date = ?", locationID, date).
		Find(&exceptions).Error
	return exceptions, err
}

func (r *repository) CreateShift(ctx context.Context, shift *Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *repository) CreateException(ctx context.Context, exc *ShiftException) error {
	return r.db.WithContext(ctx).Create(exc).Error
}
