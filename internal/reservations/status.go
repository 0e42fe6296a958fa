package reservations

import (
	"tablebook/internal/shared/errs"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusSeated    Status = "seated"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending, StatusConfirmed, StatusCheckedIn, StatusSeated,
	StatusCompleted, StatusCancelled, StatusNoShow,
}

// IsValid checks if the reservation status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusSeated,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no regular transition leaves the status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CountsTowardCapacity reports whether the reservation uses pacing and seating capacity.
func (s Status) CountsTowardCapacity() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// HoldsTable reports whether the reservation occupies its table for its window.
func (s Status) HoldsTable() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusSeated:
		return true
	}
	return false
}

// FreesTable reports whether moving into s releases the reservation's table.
func (s Status) FreesTable() bool {
	return s == StatusCancelled || s == StatusNoShow
}

// next lists the regular transitions out of each status. The chain
// pending → confirmed → checked_in → seated → completed may skip steps forward;
// cancelled and no_show are reachable from every non-terminal status.
func next(s Status) []Status {
	switch s {
	case StatusPending:
		return []Status{StatusConfirmed, StatusCheckedIn, StatusSeated, StatusCompleted, StatusCancelled, StatusNoShow}
	case StatusConfirmed:
		return []Status{StatusCheckedIn, StatusSeated, StatusCompleted, StatusCancelled, StatusNoShow}
	case StatusCheckedIn:
		return []Status{StatusSeated, StatusCompleted, StatusCancelled, StatusNoShow}
	case StatusSeated:
		return []Status{StatusCompleted, StatusCancelled, StatusNoShow}
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return nil
	}
	return nil
}

// CanTransition reports whether from → to is a regular transition.
func CanTransition(from, to Status) bool {
	for _, s := range next(from) {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a status change. An override permits any change of state but
// must name the acting operator.
func CheckTransition(from, to Status, isOverride bool, actorID string) error {
	if !to.IsValid() {
		return errs.New(errs.CodeInvalidRequest, "unknown status %q", to).WithDetail("new_status", string(to))
	}
	if from == to {
		return errs.New(errs.CodeIllegalTransition, "reservation is already %s", from).
			WithDetail("from", string(from)).
			WithDetail("to", string(to))
	}
	if isOverride {
		if actorID == "" {
			return errs.New(errs.CodeOverrideRequiresActor, "status override requires an actor")
		}
		return nil
	}
	if !CanTransition(from, to) {
		return errs.New(errs.CodeIllegalTransition, "cannot move reservation from %s to %s", from, to).
			WithDetail("from", string(from)).
			WithDetail("to", string(to))
	}
	return nil
}
