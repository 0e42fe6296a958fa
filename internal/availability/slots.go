package availability

import (
	"time"

	"tablebook/internal/schedule"
	"tablebook/pkg/civil"
)

// GenerateSlots lists the arrival times of a shift on date, stepping by interval from the
// shift start and stopping before its end. now must be in the location's time zone: on
// the current date, times earlier than now plus the cutoff are dropped, and past dates
// yield nothing.
func GenerateSlots(shift schedule.EffectiveShift, interval int, date civil.Date, now time.Time, cutoffMinutes int) []civil.TimeOfDay {
	if !shift.Status.Bookable() || interval <= 0 {
		return nil
	}

	earliest := shift.StartTime
	today := civil.DateOf(now)
	switch {
	case date.Before(today):
		return nil
	case date == today:
		current := civil.FromTime(now)
		if now.Second() > 0 || now.Nanosecond() > 0 {
			current = current.Add(1)
		}
		if limit := current.Add(cutoffMinutes); limit > earliest {
			earliest = limit
		}
	}

	slots := make([]civil.TimeOfDay, 0, (shift.EndTime-shift.StartTime).Minutes()/interval+1)
	for t := shift.StartTime; t < shift.EndTime; t = t.Add(interval) {
		if t >= earliest {
			slots = append(slots, t)
		}
	}
	return slots
}
