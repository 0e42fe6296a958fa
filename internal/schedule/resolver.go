package schedule

import (
	"sort"

	"tablebook/internal/shared/errs"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

// Resolve merges recurring shifts with the exceptions of one date into effective shifts.
//
// A location-wide closed exception closes the whole date and nothing is returned. A
// shift-specific exception takes precedence over a location-wide one. Shifts that are
// inactive or do not run on the date's weekday produce no entry.
func Resolve(date civil.Date, shifts []Shift, exceptions []ShiftException) ([]EffectiveShift, error) {
	var locationWide *ShiftException
	byShift := make(map[uuid.UUID]*ShiftException)
	for i := range exceptions {
		exc := &exceptions[i]
		if exc.Date != date {
			continue
		}
		if !exc.Type.IsValid() {
			return nil, errs.New(errs.CodeInvalidConfig, "shift exception %s has unknown type %q", exc.ID, exc.Type)
		}
		if exc.IsLocationWide() {
			locationWide = exc
		} else {
			byShift[*exc.ShiftID] = exc
		}
	}

	if locationWide != nil && locationWide.Type == ExceptionClosed {
		return []EffectiveShift{}, nil
	}

	weekday := date.ISOWeekday()
	result := make([]EffectiveShift, 0, len(shifts))
	for _, shift := range shifts {
		if !shift.IsActive || !shift.Weekdays.Contains(weekday) {
			continue
		}

		exc := byShift[shift.ID]
		if exc == nil {
			exc = locationWide
		}

		eff, err := apply(date, shift, exc)
		if err != nil {
			return nil, err
		}
		result = append(result, eff)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func apply(date civil.Date, shift Shift, exc *ShiftException) (EffectiveShift, error) {
	eff := EffectiveShift{
		ShiftID:         shift.ID,
		LocationID:      shift.LocationID,
		Name:            shift.Name,
		Date:            date,
		Status:          StatusActive,
		StartTime:       shift.StartTime,
		EndTime:         shift.EndTime,
		ArrivalInterval: shift.ArrivalInterval,
		DisplayOrder:    shift.DisplayOrder,
	}

	if exc != nil {
		id := exc.ID
		eff.ExceptionID = &id
		eff.Label = exc.Label

		switch exc.Type {
		case ExceptionClosed:
			eff.Status = StatusClosed
			return eff, nil
		case ExceptionModified:
			eff.Status = StatusModified
		case ExceptionSpecial:
			eff.Status = StatusSpecial
		}
		if exc.OverrideStart != nil {
			eff.StartTime = *exc.OverrideStart
		}
		if exc.OverrideEnd != nil {
			eff.EndTime = *exc.OverrideEnd
		}
	}

	if !eff.StartTime.Valid() || !eff.EndTime.Valid() || eff.EndTime <= eff.StartTime {
		return EffectiveShift{}, errs.New(errs.CodeInvalidConfig,
			"shift %q on %s has an empty window %s-%s", shift.Name, date, eff.StartTime, eff.EndTime).
			WithDetail("shift_id", shift.ID.String())
	}
	return eff, nil
}
