package availability

import (
	"fmt"

	"tablebook/internal/assignment"
	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/internal/schedule"
	"tablebook/internal/tickets"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

// SlotInput is everything needed to evaluate one arrival time. Reservations holds the
// location's capacity-counting reservations of the date, every shift included.
type SlotInput struct {
	Time                 civil.TimeOfDay
	PartySize            int
	Channel              reservations.Channel
	Shift                schedule.EffectiveShift
	Ticket               tickets.Config
	AllowMultiTable      bool
	LowCapacityThreshold int
	Floor                *floorplan.Floor
	Reservations         []reservations.Reservation
}

// SlotResult is the public classification of a slot. ReasonCode is set exactly when the
// slot is closed.
type SlotResult struct {
	Time            civil.TimeOfDay `json:"time"`
	Type            SlotType        `json:"type"`
	ReasonCode      ReasonCode      `json:"reason_code,omitempty"`
	Remaining       int             `json:"remaining"`
	DurationMinutes int             `json:"duration_minutes"`
	TicketID        uuid.UUID       `json:"ticket_id"`
	TicketName      string          `json:"ticket_name"`
}

// RuleCheck records the outcome of one rule.
type RuleCheck struct {
	Rule    string     `json:"rule"`
	Passed  bool       `json:"passed"`
	Skipped bool       `json:"skipped,omitempty"`
	Reason  ReasonCode `json:"reason_code,omitempty"`
	Detail  string     `json:"detail,omitempty"`
}

// Trace holds the intermediate numbers behind a SlotResult.
type Trace struct {
	PacingUnit         tickets.PacingUnit  `json:"pacing_unit,omitempty"`
	PacingBooked       int                 `json:"pacing_booked"`
	PacingLimit        *int                `json:"pacing_limit,omitempty"`
	ConcurrentGuests   int                 `json:"concurrent_guests"`
	ConcurrentBookings int                 `json:"concurrent_bookings"`
	TotalSeats         int                 `json:"total_seats"`
	OccupiedSeats      int                 `json:"occupied_seats"`
	Remaining          int                 `json:"remaining"`
	Assignment         *assignment.Outcome `json:"assignment,omitempty"`
	SqueezeEnd         *civil.TimeOfDay    `json:"squeeze_end,omitempty"`
	SqueezeCount       int                 `json:"squeeze_count"`
	SqueezeAssignment  *assignment.Outcome `json:"squeeze_assignment,omitempty"`
	Checks             []RuleCheck         `json:"checks"`
}

func (t *Trace) pass(rule, detail string) {
	t.Checks = append(t.Checks, RuleCheck{Rule: rule, Passed: true, Detail: detail})
}

func (t *Trace) skip(rule, detail string) {
	t.Checks = append(t.Checks, RuleCheck{Rule: rule, Passed: true, Skipped: true, Detail: detail})
}

func (t *Trace) fail(rule string, reason ReasonCode, detail string) {
	t.Checks = append(t.Checks, RuleCheck{Rule: rule, Reason: reason, Detail: detail})
}

// Evaluate classifies one slot. Rules run in a fixed order and the first failing rule
// closes the slot: party size, pacing, seating limits, then table fit with the squeeze
// fallback. It is deterministic and reads nothing but its input.
func Evaluate(in SlotInput) (SlotResult, Trace) {
	res := SlotResult{
		Time:            in.Time,
		DurationMinutes: in.Ticket.DurationMinutes,
		TicketID:        in.Ticket.TicketID,
		TicketName:      in.Ticket.TicketName,
	}
	var tr Trace
	closed := func(rule string, reason ReasonCode, detail string) (SlotResult, Trace) {
		tr.fail(rule, reason, detail)
		res.Type = SlotClosed
		res.ReasonCode = reason
		res.Remaining = 0
		return res, tr
	}

	cfg := in.Ticket
	if !cfg.AcceptsParty(in.PartySize) {
		return closed(RulePartySize, ReasonPartySizeOutOfRange,
			fmt.Sprintf("party of %d outside [%d,%d]", in.PartySize, cfg.MinPartySize, cfg.MaxPartySize))
	}
	tr.pass(RulePartySize, fmt.Sprintf("party of %d within [%d,%d]", in.PartySize, cfg.MinPartySize, cfg.MaxPartySize))

	sameShift := make([]reservations.Reservation, 0, len(in.Reservations))
	for _, r := range in.Reservations {
		if r.ShiftID == in.Shift.ShiftID && r.Status.CountsTowardCapacity() {
			sameShift = append(sameShift, r)
		}
	}

	// Guest headroom left by the limits, -1 while unbounded.
	headroom := -1
	limitHeadroom := func(limit, used int) {
		if left := limit - used; headroom < 0 || left < headroom {
			headroom = left
		}
	}

	switch {
	case cfg.IgnorePacing:
		tr.skip(RulePacing, "ticket ignores pacing")
	case cfg.PacingLimit == nil:
		tr.skip(RulePacing, "no pacing limit")
	default:
		limit := *cfg.PacingLimit
		windowEnd := in.Time.Add(cfg.ArrivalInterval)
		booked := 0
		for _, r := range sameShift {
			if r.StartTime >= in.Time && r.StartTime < windowEnd {
				booked += pacingAmount(cfg.PacingUnit, r.PartySize)
			}
		}
		tr.PacingUnit = cfg.PacingUnit
		tr.PacingBooked = booked
		tr.PacingLimit = cfg.PacingLimit
		adding := pacingAmount(cfg.PacingUnit, in.PartySize)
		detail := fmt.Sprintf("%d %s booked in [%s,%s), adding %d, limit %d",
			booked, cfg.PacingUnit, in.Time, windowEnd, adding, limit)
		if booked+adding > limit {
			return closed(RulePacing, ReasonPacingExceeded, detail)
		}
		tr.pass(RulePacing, detail)
		if cfg.PacingUnit == tickets.PacingGuests {
			limitHeadroom(limit, booked)
		}
	}

	stayEnd := in.Time.Add(cfg.DurationMinutes)
	for _, r := range sameShift {
		if r.StartTime < stayEnd && in.Time < r.EndTime() {
			tr.ConcurrentGuests += r.PartySize
			tr.ConcurrentBookings++
		}
	}
	switch {
	case cfg.SeatingLimitGuests == nil && cfg.SeatingLimitReservations == nil:
		tr.skip(RuleSeating, "no seating limit")
	case cfg.SeatingLimitGuests != nil && tr.ConcurrentGuests+in.PartySize > *cfg.SeatingLimitGuests:
		return closed(RuleSeating, ReasonSeatingLimit, fmt.Sprintf("%d guests seated, adding %d, limit %d",
			tr.ConcurrentGuests, in.PartySize, *cfg.SeatingLimitGuests))
	case cfg.SeatingLimitReservations != nil && tr.ConcurrentBookings+1 > *cfg.SeatingLimitReservations:
		return closed(RuleSeating, ReasonSeatingLimit, fmt.Sprintf("%d reservations seated, limit %d",
			tr.ConcurrentBookings, *cfg.SeatingLimitReservations))
	default:
		tr.pass(RuleSeating, fmt.Sprintf("%d guests in %d reservations seated", tr.ConcurrentGuests, tr.ConcurrentBookings))
		if cfg.SeatingLimitGuests != nil {
			limitHeadroom(*cfg.SeatingLimitGuests, tr.ConcurrentGuests)
		}
	}

	bookings := assignment.BookingsFrom(in.Reservations)
	tr.TotalSeats, tr.OccupiedSeats = seatUsage(in, bookings)
	remaining := tr.TotalSeats - tr.OccupiedSeats
	if headroom >= 0 && headroom < remaining {
		remaining = headroom
	}
	if remaining < 0 {
		remaining = 0
	}
	tr.Remaining = remaining

	req := assignment.Request{
		Time:            in.Time,
		PartySize:       in.PartySize,
		DurationMinutes: cfg.DurationMinutes,
		BufferMinutes:   cfg.BufferMinutes,
		Channel:         in.Channel,
		AreaAllowed:     cfg.AreaAllowed,
		AllowMultiTable: in.AllowMultiTable,
	}
	out := assignment.Resolve(req, in.Floor, bookings)
	tr.Assignment = &out
	if out.Assigned() {
		tr.pass(RuleTableFit, fmt.Sprintf("%s %s seats the party", out.Unit.Kind, out.Unit.Name))
		res.Type = SlotOpen
		if remaining-in.PartySize < in.LowCapacityThreshold {
			res.Type = SlotLimited
		}
		res.Remaining = remaining
		return res, tr
	}
	tr.fail(RuleTableFit, ReasonNoTableAvailable, out.Reason)

	sq := cfg.Squeeze
	if !sq.Enabled {
		return closed(RuleSqueeze, ReasonNoTableAvailable, "squeeze disabled")
	}
	end := in.Shift.EndTime
	if sq.FixedEndTime != nil {
		end = *sq.FixedEndTime
	}
	tr.SqueezeEnd = &end
	if in.Time.Add(sq.DurationMinutes+sq.GapMinutes) > end {
		return closed(RuleSqueeze, ReasonNoTableAvailable,
			fmt.Sprintf("%d+%d minutes from %s pass %s", sq.DurationMinutes, sq.GapMinutes, in.Time, end))
	}
	req.DurationMinutes = sq.DurationMinutes
	sqOut := assignment.Resolve(req, in.Floor, bookings)
	tr.SqueezeAssignment = &sqOut
	if !sqOut.Assigned() {
		return closed(RuleSqueeze, ReasonNoTableAvailable, "no table free for the squeeze duration: "+sqOut.Reason)
	}
	for _, r := range sameShift {
		if r.IsSqueeze {
			tr.SqueezeCount++
		}
	}
	if sq.LimitPerShift > 0 && tr.SqueezeCount >= sq.LimitPerShift {
		return closed(RuleSqueeze, ReasonSqueezeLimitReached,
			fmt.Sprintf("%d squeeze bookings in shift, limit %d", tr.SqueezeCount, sq.LimitPerShift))
	}
	tr.pass(RuleSqueeze, fmt.Sprintf("%s %s free for %d minutes", sqOut.Unit.Kind, sqOut.Unit.Name, sq.DurationMinutes))
	res.Type = SlotSqueeze
	res.DurationMinutes = sq.DurationMinutes
	res.Remaining = remaining
	return res, tr
}

func pacingAmount(unit tickets.PacingUnit, partySize int) int {
	if unit == tickets.PacingReservations {
		return 1
	}
	return partySize
}

// seatUsage sums the seats of single tables in allowed areas, and of those the ones held
// by a booking that overlaps the slot's stay.
func seatUsage(in SlotInput, bookings []assignment.Booking) (total, occupied int) {
	if in.Floor == nil {
		return 0, 0
	}
	total = in.Floor.Seats(in.Ticket.AreaAllowed)

	busy := make(map[uuid.UUID]bool)
	for _, b := range bookings {
		if !assignment.Overlaps(in.Time, in.Ticket.DurationMinutes, in.Ticket.BufferMinutes, b) {
			continue
		}
		for _, id := range b.TableIDs {
			busy[id] = true
		}
	}
	for _, u := range in.Floor.Units {
		if u.Kind == floorplan.UnitTable && busy[u.ID] && in.Ticket.AreaAllowed(u.AreaID) {
			occupied += u.MaxCapacity
		}
	}
	return total, occupied
}
