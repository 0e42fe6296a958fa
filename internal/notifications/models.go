package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a reservation domain event.
type EventType string

const (
	EventReservationCreated EventType = "reservation.created"
	EventStatusChanged      EventType = "reservation.status_changed"
	// EventSlotFreed is emitted when a cancellation or no-show releases a table, so the
	// waitlist service can invite the next party.
	EventSlotFreed      EventType = "reservation.slot_freed"
	EventOptionExtended EventType = "reservation.option_extended"
	EventTableAssigned  EventType = "reservation.table_assigned"
)

// Event is the payload published for every reservation change.
type Event struct {
	ID              uuid.UUID   `json:"id"`
	Type            EventType   `json:"type"`
	LocationID      uuid.UUID   `json:"location_id"`
	ReservationID   uuid.UUID   `json:"reservation_id"`
	Date            string      `json:"date"`
	StartTime       string      `json:"start_time"`
	PartySize       int         `json:"party_size"`
	ShiftID         uuid.UUID   `json:"shift_id"`
	TicketID        uuid.UUID   `json:"ticket_id"`
	FromStatus      string      `json:"from_status,omitempty"`
	ToStatus        string      `json:"to_status,omitempty"`
	TableIDs        []uuid.UUID `json:"table_ids,omitempty"`
	OptionExpiresAt *time.Time  `json:"option_expires_at,omitempty"`
	ActorID         string      `json:"actor_id,omitempty"`
	OccurredAt      time.Time   `json:"occurred_at"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(eventType EventType, locationID, reservationID uuid.UUID) *Event {
	return &Event{
		ID:            uuid.New(),
		Type:          eventType,
		LocationID:    locationID,
		ReservationID: reservationID,
		OccurredAt:    time.Now().UTC(),
	}
}

// ToJSON converts event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey keeps every event of one reservation on the same partition, in order.
func (e *Event) PartitionKey() string {
	return e.ReservationID.String()
}
