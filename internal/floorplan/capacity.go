package floorplan

import (
	"tablebook/internal/shared/errs"
)

// MaxExtraSeats is the largest positive seat correction a group may carry.
const MaxExtraSeats = 6

// GroupCapacity derives the combined capacity of a table group. The effective maximum is
// the sum of member maxima plus extraSeats, and extraSeats must lie in
// [-(sum-1), MaxExtraSeats] so the result is always at least one seat. The minimum is the
// sum of member minima, clamped to [1, max].
func GroupCapacity(members []Table, extraSeats int) (minCap, maxCap int, err error) {
	if len(members) < 2 {
		return 0, 0, errs.New(errs.CodeInvalidConfig, "a table group needs at least two tables, got %d", len(members))
	}

	sumMax, sumMin := 0, 0
	for _, t := range members {
		if t.MaxCapacity < 1 || t.MinCapacity > t.MaxCapacity {
			return 0, 0, errs.New(errs.CodeInvalidConfig, "table %s has an invalid capacity range [%d,%d]",
				t.Name, t.MinCapacity, t.MaxCapacity).WithDetail("table_id", t.ID.String())
		}
		sumMax += t.MaxCapacity
		sumMin += t.MinCapacity
	}

	if extraSeats < -(sumMax-1) || extraSeats > MaxExtraSeats {
		return 0, 0, errs.New(errs.CodeInvalidConfig, "extra seats %d outside [%d,%d]",
			extraSeats, -(sumMax - 1), MaxExtraSeats).WithDetail("field", "extra_seats")
	}

	maxCap = sumMax + extraSeats
	minCap = sumMin
	if minCap < 1 {
		minCap = 1
	}
	if minCap > maxCap {
		minCap = maxCap
	}
	return minCap, maxCap, nil
}

// ValidateTable checks the stored ranges of a single table.
func ValidateTable(t *Table) error {
	switch {
	case t.MaxCapacity < 1:
		return errs.New(errs.CodeInvalidConfig, "table %s needs a positive max capacity", t.Name)
	case t.MinCapacity < 1 || t.MinCapacity > t.MaxCapacity:
		return errs.New(errs.CodeInvalidConfig, "table %s min capacity %d outside [1,%d]", t.Name, t.MinCapacity, t.MaxCapacity)
	case t.AssignPriority < 0 || t.AssignPriority > 100, t.JoinPriority < 0 || t.JoinPriority > 100:
		return errs.New(errs.CodeInvalidConfig, "table %s priorities must lie in [0,100]", t.Name)
	}
	return nil
}
