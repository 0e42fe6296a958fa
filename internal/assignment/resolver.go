package assignment

import (
	"sort"
	"time"

	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

// Kind is the tag of an assignment outcome.
type Kind string

const (
	KindAssigned    Kind = "assigned"
	KindNoCandidate Kind = "no_candidate"
	KindConflict    Kind = "conflict"
)

// Reasons reported with a no_candidate outcome.
const (
	ReasonNoBookableTable  = "no_bookable_table"
	ReasonPartyDoesNotFit  = "party_does_not_fit"
	ReasonAllTablesBooked  = "all_tables_booked"
	ReasonLostToContention = "lost_to_contention"
)

// Booking is an existing reservation reduced to what table occupancy needs.
type Booking struct {
	ReservationID   uuid.UUID
	TableIDs        []uuid.UUID
	Start           civil.TimeOfDay
	DurationMinutes int
	BufferMinutes   int
}

// BookingsFrom keeps the reservations that hold a table.
func BookingsFrom(list []reservations.Reservation) []Booking {
	out := make([]Booking, 0, len(list))
	for _, r := range list {
		if !r.Status.HoldsTable() || len(r.TableIDs) == 0 {
			continue
		}
		out = append(out, Booking{
			ReservationID:   r.ID,
			TableIDs:        r.TableIDs,
			Start:           r.StartTime,
			DurationMinutes: r.DurationMinutes,
			BufferMinutes:   r.BufferMinutes,
		})
	}
	return out
}

// Request describes the booking a unit is looked for.
type Request struct {
	Time            civil.TimeOfDay
	PartySize       int
	DurationMinutes int
	BufferMinutes   int
	Channel         reservations.Channel
	// AreaAllowed filters areas; nil admits every area.
	AreaAllowed     func(areaID uuid.UUID) bool
	PreferredAreaID *uuid.UUID
	// ReservationID is set when re-assigning; its own booking is ignored.
	ReservationID   *uuid.UUID
	AllowMultiTable bool
}

// Outcome is the tagged result of an assignment.
type Outcome struct {
	Kind     Kind            `json:"kind"`
	Unit     *floorplan.Unit `json:"unit,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Attempts int             `json:"attempts,omitempty"`
}

func (o Outcome) Assigned() bool { return o.Kind == KindAssigned }

// TableID returns the assigned single table, if any.
func (o Outcome) TableID() *uuid.UUID {
	if o.Unit == nil || o.Unit.Kind != floorplan.UnitTable {
		return nil
	}
	id := o.Unit.ID
	return &id
}

// TableGroupID returns the assigned table group, if any.
func (o Outcome) TableGroupID() *uuid.UUID {
	if o.Unit == nil || o.Unit.Kind != floorplan.UnitGroup {
		return nil
	}
	id := o.Unit.ID
	return &id
}

// Overlaps reports whether a booking at start for duration minutes collides with b. The
// two windows must stay apart by the larger of both buffers.
func Overlaps(start civil.TimeOfDay, duration, buffer int, b Booking) bool {
	gap := buffer
	if b.BufferMinutes > gap {
		gap = b.BufferMinutes
	}
	end := start.Add(duration)
	bEnd := b.Start.Add(b.DurationMinutes)
	return start < bEnd.Add(gap) && b.Start < end.Add(gap)
}

// Resolve picks the best free unit for req. It is pure and never fails: when nothing fits
// the outcome is no_candidate with a reason.
func Resolve(req Request, floor *floorplan.Floor, bookings []Booking) Outcome {
	ranked, reason := Candidates(req, floor, bookings)
	if len(ranked) == 0 {
		return Outcome{Kind: KindNoCandidate, Reason: reason}
	}
	u := ranked[0]
	return Outcome{Kind: KindAssigned, Unit: &u}
}

// Candidates returns every free unit that seats the party, best first, or the reason none
// does.
func Candidates(req Request, floor *floorplan.Floor, bookings []Booking) ([]floorplan.Unit, string) {
	if floor == nil {
		return nil, ReasonNoBookableTable
	}
	occupied := occupiedTables(req, bookings)

	var eligible, free []floorplan.Unit
	for _, u := range floor.Units {
		if u.Kind == floorplan.UnitGroup && !req.AllowMultiTable {
			continue
		}
		if req.Channel == reservations.ChannelWidget && !u.IsOnlineBookable {
			continue
		}
		if req.AreaAllowed != nil && !req.AreaAllowed(u.AreaID) {
			continue
		}
		eligible = append(eligible, u)
		if !u.Fits(req.PartySize) || anyOccupied(u.TableIDs, occupied) {
			continue
		}
		free = append(free, u)
	}

	if len(free) == 0 {
		switch {
		case len(eligible) == 0:
			return nil, ReasonNoBookableTable
		case !anyFits(eligible, req.PartySize):
			return nil, ReasonPartyDoesNotFit
		default:
			return nil, ReasonAllTablesBooked
		}
	}

	if req.PreferredAreaID != nil {
		var preferred, rest []floorplan.Unit
		for _, u := range free {
			if u.AreaID == *req.PreferredAreaID {
				preferred = append(preferred, u)
			} else {
				rest = append(rest, u)
			}
		}
		if len(preferred) > 0 {
			free = preferred
		} else {
			free = rest
		}
	}

	sort.SliceStable(free, func(i, j int) bool {
		return less(floor, req.PartySize, free[i], free[j])
	})
	return free, ""
}

func occupiedTables(req Request, bookings []Booking) map[uuid.UUID]bool {
	occupied := make(map[uuid.UUID]bool)
	for _, b := range bookings {
		if req.ReservationID != nil && b.ReservationID == *req.ReservationID {
			continue
		}
		if !Overlaps(req.Time, req.DurationMinutes, req.BufferMinutes, b) {
			continue
		}
		for _, id := range b.TableIDs {
			occupied[id] = true
		}
	}
	return occupied
}

func anyOccupied(ids []uuid.UUID, occupied map[uuid.UUID]bool) bool {
	for _, id := range ids {
		if occupied[id] {
			return true
		}
	}
	return false
}

func anyFits(units []floorplan.Unit, partySize int) bool {
	for _, u := range units {
		if u.Fits(partySize) {
			return true
		}
	}
	return false
}

// less orders single tables before groups, then the tightest fit, then the area's sort
// order, then the area's fill order.
func less(floor *floorplan.Floor, partySize int, a, b floorplan.Unit) bool {
	if a.Kind != b.Kind {
		return a.Kind == floorplan.UnitTable
	}
	if sa, sb := a.MaxCapacity-partySize, b.MaxCapacity-partySize; sa != sb {
		return sa < sb
	}
	areaA, areaB := floor.Areas[a.AreaID], floor.Areas[b.AreaID]
	if a.AreaID != b.AreaID {
		if areaA.SortOrder != areaB.SortOrder {
			return areaA.SortOrder < areaB.SortOrder
		}
		return a.AreaID.String() < b.AreaID.String()
	}

	switch areaA.FillOrder {
	case floorplan.FillRoundRobin:
		if ta, tb := lastAssigned(a), lastAssigned(b); !ta.Equal(tb) {
			return ta.Before(tb)
		}
	case floorplan.FillPriority, floorplan.FillCustom:
		if a.AssignPriority != b.AssignPriority {
			return a.AssignPriority > b.AssignPriority
		}
	}
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.ID.String() < b.ID.String()
}

// lastAssigned treats a never-assigned unit as the least recently used.
func lastAssigned(u floorplan.Unit) time.Time {
	if u.LastAssignedAt == nil {
		return time.Time{}
	}
	return *u.LastAssignedAt
}
