package availability

import (
	"time"

	"tablebook/internal/reservations"
	"tablebook/internal/schedule"
	"tablebook/internal/tickets"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

type AvailabilityResponse struct {
	LocationID uuid.UUID            `json:"location_id"`
	Date       civil.Date           `json:"date"`
	PartySize  int                  `json:"party_size"`
	Channel    reservations.Channel `json:"channel"`
	Timezone   string               `json:"timezone"`
	Shifts     []ShiftAvailability  `json:"shifts"`
}

type ShiftAvailability struct {
	ShiftID   uuid.UUID       `json:"shift_id"`
	Name      string          `json:"name"`
	Status    schedule.Status `json:"status"`
	StartTime civil.TimeOfDay `json:"start_time"`
	EndTime   civil.TimeOfDay `json:"end_time"`
	Label     string          `json:"label,omitempty"`
	Slots     []SlotResult    `json:"slots"`
}

// Diagnosis explains one slot: the schedule it falls in, the ticket as configured for the
// shift, whether the time is offered at all and every rule the evaluator ran.
type Diagnosis struct {
	LocationID     uuid.UUID                 `json:"location_id"`
	Date           civil.Date                `json:"date"`
	Time           civil.TimeOfDay           `json:"time"`
	PartySize      int                       `json:"party_size"`
	Channel        reservations.Channel      `json:"channel"`
	Timezone       string                    `json:"timezone"`
	Now            time.Time                 `json:"now"`
	Schedule       []schedule.EffectiveShift `json:"schedule"`
	EffectiveShift *schedule.EffectiveShift  `json:"effective_shift,omitempty"`
	Ticket         *tickets.Config           `json:"ticket,omitempty"`
	GeneratedSlots []civil.TimeOfDay         `json:"generated_slots"`
	SlotGenerated  bool                      `json:"slot_generated"`
	Result         SlotResult                `json:"result"`
	Trace          *Trace                    `json:"trace,omitempty"`
}
