package floorplan

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FillOrder governs which table of an area is offered first.
type FillOrder string

const (
	FillFirstAvailable FillOrder = "first_available"
	FillRoundRobin     FillOrder = "round_robin"
	FillPriority       FillOrder = "priority"
	FillCustom         FillOrder = "custom"
)

func (f FillOrder) IsValid() bool {
	switch f {
	case FillFirstAvailable, FillRoundRobin, FillPriority, FillCustom:
		return true
	}
	return false
}

// Area is a named zone of a location's floor.
type Area struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID uuid.UUID `gorm:"type:uuid;index;not null" json:"location_id"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	FillOrder  FillOrder `gorm:"type:varchar(20);not null;default:'first_available'" json:"fill_order"`
	SortOrder  int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName sets the table name for Area
func (Area) TableName() string {
	return "areas"
}

func (a *Area) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Table is a physical table. Priorities range 0..100, higher is preferred.
type Table struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"location_id"`
	AreaID           uuid.UUID  `gorm:"type:uuid;index;not null" json:"area_id"`
	Name             string     `gorm:"type:varchar(50);not null" json:"name"`
	MinCapacity      int        `gorm:"not null;default:1" json:"min_capacity"`
	MaxCapacity      int        `gorm:"not null" json:"max_capacity"`
	IsActive         bool       `gorm:"not null" json:"is_active"`
	IsOnlineBookable bool       `gorm:"not null" json:"is_online_bookable"`
	IsJoinable       bool       `gorm:"not null" json:"is_joinable"`
	JoinPriority     int        `gorm:"not null;default:0" json:"join_priority"`
	AssignPriority   int        `gorm:"not null;default:0" json:"assign_priority"`
	SortOrder        int        `gorm:"not null;default:0" json:"sort_order"`
	LastAssignedAt   *time.Time `json:"last_assigned_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName sets the table name for Table
func (Table) TableName() string {
	return "tables"
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableGroup is a fixed combination of tables bookable as one unit.
type TableGroup struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"location_id"`
	AreaID           uuid.UUID  `gorm:"type:uuid;index;not null" json:"area_id"`
	Name             string     `gorm:"type:varchar(100);not null" json:"name"`
	ExtraSeats       int        `gorm:"not null;default:0" json:"extra_seats"`
	IsActive         bool       `gorm:"not null" json:"is_active"`
	IsOnlineBookable bool       `gorm:"not null" json:"is_online_bookable"`
	AssignPriority   int        `gorm:"not null;default:0" json:"assign_priority"`
	SortOrder        int        `gorm:"not null;default:0" json:"sort_order"`
	LastAssignedAt   *time.Time `json:"last_assigned_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relationships
	Tables []Table `json:"tables,omitempty" gorm:"many2many:table_group_members;"`
}

// TableName sets the table name for TableGroup
func (TableGroup) TableName() string {
	return "table_groups"
}

func (g *TableGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
