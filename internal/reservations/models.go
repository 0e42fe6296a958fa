package reservations

import (
	"time"

	"tablebook/internal/tickets"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is where a reservation was made.
type Channel string

const (
	ChannelWidget   Channel = "widget"
	ChannelOperator Channel = "operator"
)

func (c Channel) IsValid() bool {
	return c == ChannelWidget || c == ChannelOperator
}

// Reservation defines the main reservation structure
type Reservation struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_reservations_location_date" json:"location_id"`
	Date            civil.Date       `gorm:"not null;index:idx_reservations_location_date" json:"date"`
	StartTime       civil.TimeOfDay  `gorm:"not null" json:"start_time"`
	DurationMinutes int              `gorm:"not null" json:"duration_minutes"`
	BufferMinutes   int              `gorm:"not null;default:0" json:"buffer_minutes"`
	PartySize       int              `gorm:"not null" json:"party_size"`
	ShiftID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"shift_id"`
	TicketID        uuid.UUID        `gorm:"type:uuid;not null" json:"ticket_id"`
	TableID         *uuid.UUID       `gorm:"type:uuid" json:"table_id,omitempty"`
	TableGroupID    *uuid.UUID       `gorm:"type:uuid" json:"table_group_id,omitempty"`
	// TableIDs are the physical tables the reservation occupies, one for a table and every
	// member for a group.
	TableIDs        tickets.UUIDList `json:"table_ids"`
	Channel         Channel          `gorm:"type:varchar(20);not null" json:"channel"`
	Status          Status           `gorm:"type:varchar(20);not null;check:status IN ('pending','confirmed','checked_in','seated','completed','cancelled','no_show')" json:"status"`
	IsSqueeze       bool             `gorm:"not null" json:"is_squeeze"`
	OptionExpiresAt *time.Time       `json:"option_expires_at,omitempty"`
	GuestName       string           `gorm:"type:varchar(200)" json:"guest_name,omitempty"`
	Notes           string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	CancelledAt     *time.Time       `json:"cancelled_at,omitempty"`
}

// TableName sets the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// EndTime is the minute the guests are expected to leave, buffer excluded.
func (r *Reservation) EndTime() civil.TimeOfDay {
	return r.StartTime.Add(r.DurationMinutes)
}

// IsAssigned reports whether a table or table group is recorded.
func (r *Reservation) IsAssigned() bool {
	return r.TableID != nil || r.TableGroupID != nil
}

// SlotQuery asks whether a party can book one explicit slot.
type SlotQuery struct {
	LocationID uuid.UUID
	Date       civil.Date
	Time       civil.TimeOfDay
	PartySize  int
	TicketID   uuid.UUID
	Channel    Channel
}

// SlotDecision is the evaluated slot a reservation is created from.
type SlotDecision struct {
	Bookable        bool
	ReasonCode      string
	ShiftID         uuid.UUID
	TicketID        uuid.UUID
	DurationMinutes int
	BufferMinutes   int
	IsSqueeze       bool
}
