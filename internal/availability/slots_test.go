package availability

import (
	"testing"
	"time"

	"tablebook/internal/schedule"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

func tod(s string) civil.TimeOfDay { return civil.MustParseTimeOfDay(s) }

func window(start, end string) schedule.EffectiveShift {
	return schedule.EffectiveShift{
		ShiftID:   uuid.New(),
		Name:      "Dinner",
		Status:    schedule.StatusActive,
		StartTime: tod(start),
		EndTime:   tod(end),
	}
}

func TestGenerateSlotsHalfOpenWindow(t *testing.T) {
	dinner := window("18:00", "22:00")
	date := civil.MustParseDate("2025-12-24")
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

	slots := GenerateSlots(dinner, 15, date, now, 0)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d: %v", len(slots), slots)
	}
	if slots[0] != tod("18:00") || slots[len(slots)-1] != tod("21:45") {
		t.Errorf("unexpected bounds %s..%s", slots[0], slots[len(slots)-1])
	}
	for _, s := range slots {
		if s == tod("22:00") {
			t.Error("a slot starting at the shift end must be excluded")
		}
	}

	slots = GenerateSlots(dinner, 30, date, now, 0)
	if len(slots) != 8 || slots[len(slots)-1] != tod("21:30") {
		t.Errorf("interval 30: got %v", slots)
	}
}

func TestGenerateSlotsBoundsAndAlignment(t *testing.T) {
	date := civil.MustParseDate("2025-12-24")
	now := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	windows := [][2]string{{"12:00", "15:00"}, {"18:00", "22:00"}, {"17:45", "23:10"}, {"19:00", "24:00"}, {"11:30", "11:45"}}

	for _, w := range windows {
		for _, interval := range []int{15, 30, 60} {
			eff := window(w[0], w[1])
			slots := GenerateSlots(eff, interval, date, now, 0)
			for i, s := range slots {
				if s < eff.StartTime || s >= eff.EndTime {
					t.Errorf("%s-%s/%d: slot %s out of bounds", w[0], w[1], interval, s)
				}
				if (s-eff.StartTime).Minutes()%interval != 0 {
					t.Errorf("%s-%s/%d: slot %s not aligned", w[0], w[1], interval, s)
				}
				if i > 0 && s <= slots[i-1] {
					t.Errorf("%s-%s/%d: slots not ascending at %s", w[0], w[1], interval, s)
				}
			}
			if len(slots) == 0 {
				t.Errorf("%s-%s/%d: expected at least the start slot", w[0], w[1], interval)
			}
		}
	}
}

func TestGenerateSlotsCutoffAppliesToToday(t *testing.T) {
	dinner := window("18:00", "22:00")
	today := civil.MustParseDate("2025-12-24")

	tests := []struct {
		name   string
		now    time.Time
		cutoff int
		first  string
	}{
		{"cutoff pushes past now", time.Date(2025, 12, 24, 19, 10, 0, 0, time.UTC), 30, "19:45"},
		{"exact minute is kept", time.Date(2025, 12, 24, 19, 0, 0, 0, time.UTC), 0, "19:00"},
		{"partial minute rounds up", time.Date(2025, 12, 24, 19, 0, 30, 0, time.UTC), 0, "19:15"},
		{"before the shift", time.Date(2025, 12, 24, 10, 0, 0, 0, time.UTC), 60, "18:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := GenerateSlots(dinner, 15, today, tt.now, tt.cutoff)
			if len(slots) == 0 || slots[0] != tod(tt.first) {
				t.Errorf("expected first slot %s, got %v", tt.first, slots)
			}
		})
	}

	late := time.Date(2025, 12, 24, 21, 50, 0, 0, time.UTC)
	if slots := GenerateSlots(dinner, 15, today, late, 0); len(slots) != 0 {
		t.Errorf("expected no slots after the last start, got %v", slots)
	}
}

func TestGenerateSlotsFutureAndPastDates(t *testing.T) {
	dinner := window("18:00", "22:00")
	now := time.Date(2025, 12, 24, 21, 0, 0, 0, time.UTC)

	if slots := GenerateSlots(dinner, 30, civil.MustParseDate("2025-12-25"), now, 120); len(slots) != 8 {
		t.Errorf("future dates are unrestricted, got %v", slots)
	}
	if slots := GenerateSlots(dinner, 30, civil.MustParseDate("2025-12-23"), now, 0); len(slots) != 0 {
		t.Errorf("past dates offer nothing, got %v", slots)
	}
}

func TestGenerateSlotsClosedShift(t *testing.T) {
	dinner := window("18:00", "22:00")
	dinner.Status = schedule.StatusClosed
	now := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	if slots := GenerateSlots(dinner, 30, civil.MustParseDate("2025-12-24"), now, 0); len(slots) != 0 {
		t.Errorf("closed shift must yield no slots, got %v", slots)
	}
}
