package reservations

import (
	"time"

	"tablebook/internal/shared/errs"
)

// Bounds of an option extension, in hours.
const (
	DefaultExtraHours = 24
	MinExtraHours     = 1
	MaxExtraHours     = 168
)

// ExtendedExpiry returns the option expiry after adding extraHours to the current expiry,
// or to now when none is set. A zero extraHours means the default.
func ExtendedExpiry(current *time.Time, now time.Time, extraHours int) (time.Time, error) {
	if extraHours == 0 {
		extraHours = DefaultExtraHours
	}
	if extraHours < MinExtraHours || extraHours > MaxExtraHours {
		return time.Time{}, errs.New(errs.CodeInvalidRequest, "extra_hours must be between %d and %d", MinExtraHours, MaxExtraHours).
			WithDetail("extra_hours", extraHours)
	}
	base := now
	if current != nil {
		base = *current
	}
	return base.Add(time.Duration(extraHours) * time.Hour).UTC(), nil
}
