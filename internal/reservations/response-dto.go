package reservations

import (
	"time"

	"github.com/google/uuid"
)

type TransitionResponse struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	FromStatus    Status    `json:"from_status"`
	Status        Status    `json:"status"`
	IsOverride    bool      `json:"is_override"`
}

type ExtendOptionResponse struct {
	ReservationID   uuid.UUID `json:"reservation_id"`
	OptionExpiresAt time.Time `json:"option_expires_at"`
}
