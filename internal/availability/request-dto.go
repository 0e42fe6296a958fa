package availability

type AvailabilityRequest struct {
	Date      string `form:"date" binding:"required"`
	PartySize int    `form:"party_size" binding:"required,min=1"`
	TicketID  string `form:"ticket_id" binding:"omitempty,uuid"`
	Channel   string `form:"channel" binding:"omitempty,oneof=widget operator"`
}

type DiagnoseRequest struct {
	Date      string `form:"date" binding:"required"`
	Time      string `form:"time" binding:"required"`
	PartySize int    `form:"party_size" binding:"required,min=1"`
	TicketID  string `form:"ticket_id" binding:"omitempty,uuid"`
	Channel   string `form:"channel" binding:"omitempty,oneof=widget operator"`
}
