package schedule

import (
	"context"
	"fmt"

	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

// Service resolves the effective schedule of a location.
type Service interface {
	EffectiveSchedule(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]EffectiveShift, error)
	GetShift(ctx context.Context, id uuid.UUID) (*Shift, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) EffectiveSchedule(ctx context.Context, locationID uuid.UUID, date civil.Date) ([]EffectiveShift, error) {
	shifts, err := s.repo.GetShiftsByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts: %w", err)
	}

	exceptions, err := s.repo.GetExceptionsForDate(ctx, locationID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift exceptions: %w", err)
	}

	return Resolve(date, shifts, exceptions)
}

func (s *service) GetShift(ctx context.Context, id uuid.UUID) (*Shift, error) {
	return s.repo.GetShiftByID(ctx, id)
}
