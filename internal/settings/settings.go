package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationSettings holds the per-location defaults of the booking engine.
type ReservationSettings struct {
	LocationID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"location_id"`
	AllowMultiTable      bool      `gorm:"not null" json:"allow_multi_table"`
	AutoAssign           bool      `gorm:"not null" json:"auto_assign"`
	DefaultDuration      int       `gorm:"not null;default:90" json:"default_duration"`
	DefaultBuffer        int       `gorm:"not null;default:0" json:"default_buffer"`
	BookingCutoffMinutes int       `gorm:"not null;default:0" json:"booking_cutoff_minutes"`
	SqueezeEnabled       bool      `gorm:"not null;default:false" json:"squeeze_enabled"`
	SqueezeDuration      int       `gorm:"not null;default:60" json:"squeeze_duration"`
	SqueezeGap           int       `gorm:"not null;default:0" json:"squeeze_gap"`
	SqueezeLimitPerShift int       `gorm:"not null;default:0" json:"squeeze_limit_per_shift"`
	WaitlistAutoInvite   bool      `gorm:"not null;default:false" json:"waitlist_auto_invite"`
	MaxParallelInvites   int       `gorm:"not null;default:1" json:"max_parallel_invites"`
	LowCapacityThreshold int       `gorm:"not null" json:"low_capacity_threshold"`
	Timezone             string    `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName sets the table name for ReservationSettings
func (ReservationSettings) TableName() string {
	return "reservation_settings"
}

// Defaults returns the settings used for a location that has no stored row.
func Defaults(locationID uuid.UUID, timezone string) ReservationSettings {
	if timezone == "" {
		timezone = "UTC"
	}
	return ReservationSettings{
		LocationID:           locationID,
		AllowMultiTable:      true,
		AutoAssign:           true,
		DefaultDuration:      90,
		SqueezeDuration:      60,
		MaxParallelInvites:   1,
		LowCapacityThreshold: 4,
		Timezone:             timezone,
	}
}

// Location loads the IANA zone of the settings, falling back to UTC for an empty name.
func (s *ReservationSettings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

type Repository interface {
	// Get returns the stored settings, or the defaults when none are stored.
	Get(ctx context.Context, locationID uuid.UUID) (*ReservationSettings, error)
	Save(ctx context.Context, s *ReservationSettings) error
}

type repository struct {
	db              *gorm.DB
	defaultTimezone string
}

func NewRepository(db *gorm.DB, defaultTimezone string) Repository {
	return &repository{db: db, defaultTimezone: defaultTimezone}
}

func (r *repository) Get(ctx context.Context, locationID uuid.UUID) (*ReservationSettings, error) {
	var s ReservationSettings
	err := r.db.WithContext(ctx).Where("location_id = ?", locationID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d := Defaults(locationID, r.defaultTimezone)
			return &d, nil
		}
		return nil, fmt.Errorf("failed to load reservation settings: %w", err)
	}
	return &s, nil
}

func (r *repository) Save(ctx context.Context, s *ReservationSettings) error {
	return r.db.WithContext(ctx).Save(s).Error
}
