package assignment

type AssignTableRequest struct {
	LocationID      string  `json:"location_id" binding:"required,uuid"`
	Date            string  `json:"date" binding:"required"`
	Time            string  `json:"time" binding:"required"`
	PartySize       int     `json:"party_size" binding:"required,min=1"`
	DurationMinutes int     `json:"duration_minutes" binding:"omitempty,min=1,max=720"`
	ShiftID         string  `json:"shift_id" binding:"required,uuid"`
	TicketID        string  `json:"ticket_id" binding:"required,uuid"`
	ReservationID   *string `json:"reservation_id" binding:"omitempty,uuid"`
	PreferredAreaID *string `json:"preferred_area_id" binding:"omitempty,uuid"`
	Channel         string  `json:"channel" binding:"omitempty,oneof=widget operator"`
}
