package availability

import (
	"fmt"

	"tablebook/internal/reservations"
	"tablebook/internal/schedule"
	"tablebook/internal/tickets"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

type slotRequest struct {
	LocationID uuid.UUID
	Date       civil.Date
	Time       civil.TimeOfDay
	PartySize  int
	TicketID   *uuid.UUID
	Channel    reservations.Channel
}

// explain replays slot generation and evaluation for one time against a snapshot. The
// schedule and slot checks precede the evaluator's own rules in the trace.
func explain(snap *snapshot, q slotRequest) (*Diagnosis, error) {
	d := &Diagnosis{
		LocationID:     q.LocationID,
		Date:           q.Date,
		Time:           q.Time,
		PartySize:      q.PartySize,
		Channel:        q.Channel,
		Timezone:       snap.timezone,
		Now:            snap.now,
		Schedule:       snap.shifts,
		GeneratedSlots: []civil.TimeOfDay{},
	}
	var pre Trace
	closed := func(rule string, reason ReasonCode, detail string) (*Diagnosis, error) {
		pre.fail(rule, reason, detail)
		d.Result = SlotResult{Time: q.Time, Type: SlotClosed, ReasonCode: reason}
		d.Trace = &pre
		return d, nil
	}

	var covering []schedule.EffectiveShift
	for _, eff := range snap.shifts {
		if eff.Contains(q.Time) {
			covering = append(covering, eff)
		}
	}
	if len(covering) == 0 {
		return closed(RuleSchedule, ReasonOutsideSchedule, fmt.Sprintf("no shift covers %s on %s", q.Time, q.Date))
	}

	var (
		eff   schedule.EffectiveShift
		st    *tickets.ShiftTicket
		found bool
	)
	for _, candidate := range covering {
		if !candidate.Status.Bookable() {
			continue
		}
		if offered := snap.ticketsFor(candidate.ShiftID, q.TicketID); len(offered) > 0 {
			eff, st, found = candidate, &offered[0], true
			break
		}
	}
	if !found {
		eff = covering[0]
		for _, candidate := range covering {
			if candidate.Status.Bookable() {
				eff = candidate
				break
			}
		}
		d.EffectiveShift = &eff
		if !eff.Status.Bookable() {
			return closed(RuleSchedule, ReasonShiftClosed, fmt.Sprintf("shift %s is closed on %s %s", eff.Name, q.Date, eff.Label))
		}
		return closed(RuleSchedule, ReasonTicketNotOffered, fmt.Sprintf("shift %s offers no matching ticket", eff.Name))
	}
	d.EffectiveShift = &eff
	pre.pass(RuleSchedule, fmt.Sprintf("shift %s %s-%s (%s)", eff.Name, eff.StartTime, eff.EndTime, eff.Status))

	cfg, err := tickets.Resolve(st, eff.ArrivalInterval, snap.settings)
	if err != nil {
		return nil, err
	}
	d.Ticket = &cfg

	d.GeneratedSlots = GenerateSlots(eff, cfg.ArrivalInterval, q.Date, snap.now, snap.settings.BookingCutoffMinutes)
	for _, t := range d.GeneratedSlots {
		if t == q.Time {
			d.SlotGenerated = true
			break
		}
	}

	result, tr := Evaluate(snap.input(eff, cfg, q.Time, q.PartySize, q.Channel))
	if d.SlotGenerated {
		pre.pass(RuleSlot, fmt.Sprintf("%s is offered every %d minutes", q.Time, cfg.ArrivalInterval))
	} else {
		pre.fail(RuleSlot, ReasonSlotNotOffered, fmt.Sprintf("%s is not an offered arrival time (interval %d, cutoff %d minutes, now %s)",
			q.Time, cfg.ArrivalInterval, snap.settings.BookingCutoffMinutes, snap.now.Format("2006-01-02 15:04")))
		result = SlotResult{
			Time:            q.Time,
			Type:            SlotClosed,
			ReasonCode:      ReasonSlotNotOffered,
			DurationMinutes: cfg.DurationMinutes,
			TicketID:        cfg.TicketID,
			TicketName:      cfg.TicketName,
		}
	}
	tr.Checks = append(pre.Checks, tr.Checks...)
	d.Result = result
	d.Trace = &tr
	return d, nil
}
