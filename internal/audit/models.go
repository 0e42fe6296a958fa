package audit

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap represents a JSON map type that can be stored in the database
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONMap) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// GormDataType tells GORM how to handle this type
func (JSONMap) GormDataType() string {
	return "jsonb"
}

// EntityType names the kind of record an entry describes.
type EntityType string

const EntityReservation EntityType = "reservation"

// Actions recorded for reservations.
const (
	ActionCreated        = "created"
	ActionStatusChange   = "status_change"
	ActionStatusOverride = "status_override"
	ActionOptionExtended = "option_extended"
	ActionTableAssigned  = "table_assigned"
)

// Entry is one immutable audit record.
type Entry struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType EntityType `gorm:"type:varchar(40);not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_entity" json:"entity_id"`
	ActorID    string     `gorm:"type:varchar(100)" json:"actor_id,omitempty"`
	Action     string     `gorm:"type:varchar(40);not null" json:"action"`
	FromStatus string     `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   string     `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	IsOverride bool       `gorm:"not null" json:"is_override"`
	Reason     string     `gorm:"type:text" json:"reason,omitempty"`
	Metadata   JSONMap    `json:"metadata,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// TableName sets the table name for Entry
func (Entry) TableName() string {
	return "audit_entries"
}

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
