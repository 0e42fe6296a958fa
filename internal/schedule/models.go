package schedule

import (
	"time"

	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeekdaySet is a bitmask of ISO weekdays, bit 1 = Monday ... bit 7 = Sunday.
type WeekdaySet uint8

// Weekdays builds a set from ISO weekday numbers; out-of-range values are ignored.
func Weekdays(days ...int) WeekdaySet {
	var set WeekdaySet
	for _, d := range days {
		if d >= 1 && d <= 7 {
			set |= 1 << uint(d)
		}
	}
	return set
}

// AllWeek is every ISO weekday.
var AllWeek = Weekdays(1, 2, 3, 4, 5, 6, 7)

func (s WeekdaySet) Contains(isoWeekday int) bool {
	if isoWeekday < 1 || isoWeekday > 7 {
		return false
	}
	return s&(1<<uint(isoWeekday)) != 0
}

// Days returns the ISO weekdays in the set in ascending order.
func (s WeekdaySet) Days() []int {
	days := make([]int, 0, 7)
	for d := 1; d <= 7; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Shift is a recurring weekly service window of a location.
type Shift struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"location_id"`
	Name            string          `gorm:"type:varchar(100);not null" json:"name"`
	StartTime       civil.TimeOfDay `gorm:"not null" json:"start_time"`
	EndTime         civil.TimeOfDay `gorm:"not null" json:"end_time"`
	Weekdays        WeekdaySet      `gorm:"not null" json:"weekdays"`
	ArrivalInterval int             `gorm:"not null;default:15" json:"arrival_interval"`
	DisplayOrder    int             `gorm:"not null;default:0" json:"display_order"`
	IsActive        bool            `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName sets the table name for Shift
func (Shift) TableName() string {
	return "shifts"
}

func (s *Shift) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ExceptionType is the kind of date-scoped override.
type ExceptionType string

const (
	ExceptionClosed   ExceptionType = "closed"
	ExceptionModified ExceptionType = "modified"
	ExceptionSpecial  ExceptionType = "special"
)

func (t ExceptionType) IsValid() bool {
	switch t {
	case ExceptionClosed, ExceptionModified, ExceptionSpecial:
		return true
	}
	return false
}

// ShiftException overrides one shift, or the whole location when ShiftID is nil, on one date.
type ShiftException struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID    uuid.UUID        `gorm:"type:uuid;index:idx_shift_exceptions_location_date;not null" json:"location_id"`
	ShiftID       *uuid.UUID       `gorm:"type:uuid;index" json:"shift_id,omitempty"`
	Date          civil.Date       `gorm:"index:idx_shift_exceptions_location_date;not null" json:"date"`
	Type          ExceptionType    `gorm:"type:varchar(20);not null" json:"type"`
	OverrideStart *civil.TimeOfDay `json:"override_start,omitempty"`
	OverrideEnd   *civil.TimeOfDay `json:"override_end,omitempty"`
	Label         string           `gorm:"type:varchar(200)" json:"label,omitempty"`
	Notes         string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName sets the table name for ShiftException
func (ShiftException) TableName() string {
	return "shift_exceptions"
}

func (e *ShiftException) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsLocationWide reports whether the exception applies to every shift of the location.
func (e *ShiftException) IsLocationWide() bool {
	return e.ShiftID == nil
}

// Status is the resolved state of a shift on one date.
type Status string

const (
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
	StatusModified Status = "modified"
	StatusSpecial  Status = "special"
)

// Bookable reports whether slots may be generated for the shift.
func (s Status) Bookable() bool {
	return s != StatusClosed
}

// EffectiveShift is a shift's schedule for one date after exceptions are applied.
type EffectiveShift struct {
	ShiftID         uuid.UUID       `json:"shift_id"`
	LocationID      uuid.UUID       `json:"location_id"`
	Name            string          `json:"name"`
	Date            civil.Date      `json:"date"`
	Status          Status          `json:"status"`
	StartTime       civil.TimeOfDay `json:"start_time"`
	EndTime         civil.TimeOfDay `json:"end_time"`
	ArrivalInterval int             `json:"arrival_interval"`
	DisplayOrder    int             `json:"display_order"`
	Label           string          `json:"label,omitempty"`
	ExceptionID     *uuid.UUID      `json:"exception_id,omitempty"`
}

// Contains reports whether t lies in the half-open window [start, end).
func (e EffectiveShift) Contains(t civil.TimeOfDay) bool {
	return t >= e.StartTime && t < e.EndTime
}
