package tickets

import (
	"context"
	"errors"

	"tablebook/internal/shared/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// ActiveForShifts returns the active shift tickets of the given shifts whose ticket is
	// itself active, with Ticket preloaded.
	ActiveForShifts(ctx context.Context, shiftIDs []uuid.UUID) ([]ShiftTicket, error)
	GetForShift(ctx context.Context, shiftID, ticketID uuid.UUID) (*ShiftTicket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error)
	CreateTicket(ctx context.Context, ticket *Ticket) error
	CreateShiftTicket(ctx context.Context, st *ShiftTicket) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveForShifts(ctx context.Context, shiftIDs []uuid.UUID) ([]ShiftTicket, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	var rows []ShiftTicket
	err := r.db.WithContext(ctx).
		Preload("Ticket").
		Where("shift_id IN ? AND is_active = ?", shiftIDs, true).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	active := rows[:0]
	for _, st := range rows {
		if st.Ticket != nil && st.Ticket.Status == StatusActive {
			active = append(active, st)
		}
	}
	return active, nil
}

func (r *repository) GetForShift(ctx context.Context, shiftID, ticketID uuid.UUID) (*ShiftTicket, error) {
	var st ShiftTicket
	err := r.db.WithContext(ctx).
		Preload("Ticket").
		Where("shift_id = ? AND ticket_id = ?", shiftID, ticketID).
		First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeInvalidConfig, "ticket %s is not offered on shift %s", ticketID, shiftID).
				WithDetail("ticket_id", ticketID.String()).
				WithDetail("shift_id", shiftID.String())
		}
		return nil, err
	}
	if !st.IsActive || st.Ticket == nil || st.Ticket.Status != StatusActive {
		return nil, errs.New(errs.CodeInvalidConfig, "ticket %s is not active on shift %s", ticketID, shiftID).
			WithDetail("ticket_id", ticketID.String()).
			WithDetail("shift_id", shiftID.String())
	}
	return &st, nil
}

func (r *repository) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var t Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeNotFound, "ticket %s not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) CreateTicket(ctx context.Context, ticket *Ticket) error {
	if err := Validate(ticket); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repository) CreateShiftTicket(ctx context.Context, st *ShiftTicket) error {
	if err := Validate(st); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Omit("Ticket").Create(st).Error
}
