package reservations

import (
	"testing"

	"tablebook/internal/shared/errs"
)

func TestCheckTransitionRegularMoves(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusConfirmed, StatusSeated, true},
		{StatusCheckedIn, StatusSeated, true},
		{StatusSeated, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusSeated, StatusNoShow, true},
		{StatusConfirmed, StatusPending, false},
		{StatusSeated, StatusCheckedIn, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusNoShow, StatusSeated, false},
		{StatusConfirmed, StatusConfirmed, false},
	}
	for _, tt := range tests {
		err := CheckTransition(tt.from, tt.to, false, "operator-1")
		if tt.ok && err != nil {
			t.Errorf("%s → %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok && !errs.HasCode(err, errs.CodeIllegalTransition) {
			t.Errorf("%s → %s: expected illegal_transition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestCheckTransitionNamesBothStates(t *testing.T) {
	err := CheckTransition(StatusCompleted, StatusPending, false, "")
	details := errs.DetailsOf(err)
	if details["from"] != "completed" || details["to"] != "pending" {
		t.Errorf("expected from/to details, got %v", details)
	}
}

func TestTerminalStatusesOnlyLeaveByOverride(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		for _, to := range AllStatuses {
			if from == to {
				continue
			}
			if CanTransition(from, to) {
				t.Errorf("%s must not move to %s without override", from, to)
			}
			if err := CheckTransition(from, to, true, "manager-7"); err != nil {
				t.Errorf("override %s → %s: %v", from, to, err)
			}
		}
	}
}

func TestCancelAndNoShowReachableFromEveryOpenStatus(t *testing.T) {
	for _, from := range AllStatuses {
		if from.IsTerminal() {
			continue
		}
		for _, to := range []Status{StatusCancelled, StatusNoShow} {
			if !CanTransition(from, to) {
				t.Errorf("%s should reach %s", from, to)
			}
		}
	}
}

func TestRegularTransitionsNeverGoBackwards(t *testing.T) {
	rank := map[Status]int{StatusPending: 0, StatusConfirmed: 1, StatusCheckedIn: 2, StatusSeated: 3, StatusCompleted: 4}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			fr, fromOnChain := rank[from]
			tr, toOnChain := rank[to]
			if fromOnChain && toOnChain && tr <= fr && CanTransition(from, to) {
				t.Errorf("%s → %s moves backwards", from, to)
			}
		}
	}
}

func TestOverrideRequiresActor(t *testing.T) {
	err := CheckTransition(StatusCompleted, StatusSeated, true, "")
	if !errs.HasCode(err, errs.CodeOverrideRequiresActor) {
		t.Fatalf("expected override_requires_actor, got %v", err)
	}
	if err := CheckTransition(StatusSeated, StatusSeated, true, "manager-7"); !errs.HasCode(err, errs.CodeIllegalTransition) {
		t.Errorf("an override must still change the state, got %v", err)
	}
}

func TestCheckTransitionUnknownStatus(t *testing.T) {
	if err := CheckTransition(StatusConfirmed, Status("archived"), false, ""); !errs.HasCode(err, errs.CodeInvalidRequest) {
		t.Errorf("expected invalid_request, got %v", err)
	}
}

func TestStatusOccupancy(t *testing.T) {
	for _, s := range AllStatuses {
		if s.HoldsTable() && s.FreesTable() {
			t.Errorf("%s both holds and frees its table", s)
		}
		if s.FreesTable() && s.CountsTowardCapacity() {
			t.Errorf("%s frees its table but still counts toward capacity", s)
		}
	}
	if StatusCompleted.HoldsTable() {
		t.Error("completed reservations no longer hold their table")
	}
}
