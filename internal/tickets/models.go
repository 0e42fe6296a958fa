package tickets

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the lifecycle status of a ticket.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// PacingUnit is the unit a pacing or seating limit counts in.
type PacingUnit string

const (
	PacingGuests       PacingUnit = "guests"
	PacingReservations PacingUnit = "reservations"
)

// UUIDList represents a list of ids stored as a JSON array
type UUIDList []uuid.UUID

// Value implements the driver.Valuer interface for database storage
func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]uuid.UUID(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *UUIDList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// GormDataType tells GORM how to handle this type
func (UUIDList) GormDataType() string {
	return "text"
}

// Contains reports whether id is in the list.
func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Ticket is a bookable reservation product.
type Ticket struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"location_id"`
	Name            string     `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes" validate:"min=0,max=720"`
	BufferMinutes   int        `gorm:"not null;default:0" json:"buffer_minutes" validate:"min=0,max=240"`
	MinPartySize    int        `gorm:"not null;default:1" json:"min_party_size" validate:"min=1"`
	MaxPartySize    int        `gorm:"not null" json:"max_party_size" validate:"gtefield=MinPartySize"`
	IsDefault       bool       `gorm:"not null;default:false" json:"is_default"`
	PolicyID        *uuid.UUID `gorm:"type:uuid" json:"policy_id,omitempty"`
	Status          Status     `gorm:"type:varchar(20);not null;default:'draft'" json:"status" validate:"oneof=draft active archived"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName sets the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ShiftTicket configures one ticket as offered during one shift. Nil override fields fall
// back to the ticket, then to the location's reservation settings.
type ShiftTicket struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShiftID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shift_ticket" json:"shift_id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shift_ticket" json:"ticket_id"`
	IsActive bool      `gorm:"not null" json:"is_active"`

	DurationMinutes *int `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=720"`
	BufferMinutes   *int `json:"buffer_minutes,omitempty" validate:"omitempty,min=0,max=240"`
	MinPartySize    *int `json:"min_party_size,omitempty" validate:"omitempty,min=1"`
	MaxPartySize    *int `json:"max_party_size,omitempty" validate:"omitempty,min=1"`
	ArrivalInterval *int `json:"arrival_interval,omitempty" validate:"omitempty,oneof=15 30 60"`

	PacingLimit              *int       `json:"pacing_limit,omitempty" validate:"omitempty,min=0"`
	PacingUnit               PacingUnit `gorm:"type:varchar(20);not null;default:'guests'" json:"pacing_unit" validate:"omitempty,oneof=guests reservations"`
	SeatingLimitGuests       *int       `json:"seating_limit_guests,omitempty" validate:"omitempty,min=0"`
	SeatingLimitReservations *int       `json:"seating_limit_reservations,omitempty" validate:"omitempty,min=0"`
	IgnorePacing             bool       `gorm:"not null;default:false" json:"ignore_pacing"`
	AllowedAreaIDs           UUIDList   `json:"allowed_area_ids"`

	SqueezeEnabled         *bool            `json:"squeeze_enabled,omitempty"`
	SqueezeDurationMinutes *int             `json:"squeeze_duration_minutes,omitempty" validate:"omitempty,min=1"`
	SqueezeGapMinutes      *int             `json:"squeeze_gap_minutes,omitempty" validate:"omitempty,min=0"`
	SqueezeFixedEndTime    *civil.TimeOfDay `json:"squeeze_fixed_end_time,omitempty"`
	SqueezeLimitPerShift   *int             `json:"squeeze_limit_per_shift,omitempty" validate:"omitempty,min=0"`

	WaitlistEnabled bool      `gorm:"not null;default:false" json:"waitlist_enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relationships
	Ticket *Ticket `json:"ticket,omitempty" gorm:"foreignKey:TicketID;constraint:OnDelete:RESTRICT;"`
}

// TableName sets the table name for ShiftTicket
func (ShiftTicket) TableName() string {
	return "shift_tickets"
}

func (st *ShiftTicket) BeforeCreate(tx *gorm.DB) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	return nil
}
