package reservations

type CreateReservationRequest struct {
	LocationID      string  `json:"location_id" binding:"required,uuid"`
	Date            string  `json:"date" binding:"required"`
	Time            string  `json:"time" binding:"required"`
	PartySize       int     `json:"party_size" binding:"required,min=1,max=500"`
	TicketID        string  `json:"ticket_id" binding:"required,uuid"`
	Channel         string  `json:"channel" binding:"omitempty,oneof=widget operator"`
	IsOption        bool    `json:"is_option"`
	PreferredAreaID *string `json:"preferred_area_id" binding:"omitempty,uuid"`
	GuestName       string  `json:"guest_name" binding:"max=200"`
	Notes           string  `json:"notes" binding:"max=2000"`
}

type TransitionRequest struct {
	NewStatus  string `json:"new_status" binding:"required"`
	Reason     string `json:"reason" binding:"max=500"`
	IsOverride bool   `json:"is_override"`
}

type ExtendOptionRequest struct {
	// ExtraHours of 0 applies the default of 24.
	ExtraHours int `json:"extra_hours" binding:"omitempty,min=1,max=168"`
}
