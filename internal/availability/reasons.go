package availability

// SlotType classifies an evaluated slot.
type SlotType string

const (
	SlotOpen    SlotType = "open"
	SlotLimited SlotType = "limited"
	SlotSqueeze SlotType = "squeeze"
	SlotClosed  SlotType = "closed"
)

// Bookable reports whether the slot accepts a booking.
func (t SlotType) Bookable() bool { return t != SlotClosed }

// ReasonCode says why a slot is closed. Callers branch on it.
type ReasonCode string

const (
	ReasonPartySizeOutOfRange ReasonCode = "party_size_out_of_range"
	ReasonPacingExceeded      ReasonCode = "pacing_exceeded"
	ReasonSeatingLimit        ReasonCode = "seating_limit"
	ReasonNoTableAvailable    ReasonCode = "no_table_available"
	ReasonSqueezeLimitReached ReasonCode = "squeeze_limit_reached"

	// Reported only by the diagnostic explainer, before evaluation starts.
	ReasonOutsideSchedule  ReasonCode = "outside_schedule"
	ReasonShiftClosed      ReasonCode = "shift_closed"
	ReasonTicketNotOffered ReasonCode = "ticket_not_offered"
	ReasonSlotNotOffered   ReasonCode = "slot_not_offered"
)

// Rule names used in evaluation traces, in evaluation order.
const (
	RuleSchedule  = "schedule"
	RuleSlot      = "slot"
	RulePartySize = "party_size"
	RulePacing    = "pacing"
	RuleSeating   = "seating_limit"
	RuleTableFit  = "table_fit"
	RuleSqueeze   = "squeeze"
)
