package reservations

import (
	"testing"
	"time"

	"tablebook/internal/shared/errs"
)

func TestExtendedExpiry(t *testing.T) {
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	current := time.Date(2025, 12, 21, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current *time.Time
		hours   int
		want    time.Time
	}{
		{"default from current", &current, 0, current.Add(24 * time.Hour)},
		{"explicit from current", &current, 6, current.Add(6 * time.Hour)},
		{"from now without expiry", nil, 1, now.Add(time.Hour)},
		{"upper bound", nil, 168, now.Add(168 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtendedExpiry(tt.current, now, tt.hours)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtendedExpiryBounds(t *testing.T) {
	now := time.Now()
	for _, hours := range []int{-1, 169, 1000} {
		if _, err := ExtendedExpiry(nil, now, hours); !errs.HasCode(err, errs.CodeInvalidRequest) {
			t.Errorf("%d hours: expected invalid_request, got %v", hours, err)
		}
	}
}

func TestExtendedExpiryNeverDecreases(t *testing.T) {
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(-2 * time.Hour)
	for hours := MinExtraHours; hours <= MaxExtraHours; hours += 7 {
		next, err := ExtendedExpiry(&expiry, now, hours)
		if err != nil {
			t.Fatal(err)
		}
		if !next.After(expiry) {
			t.Fatalf("expiry went from %s to %s", expiry, next)
		}
		expiry = next
	}
}
