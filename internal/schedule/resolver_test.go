package schedule

import (
	"context"
	"testing"

	"tablebook/internal/shared/database/dbtest"
	"tablebook/internal/shared/errs"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

func tod(s string) civil.TimeOfDay { return civil.MustParseTimeOfDay(s) }

func todPtr(s string) *civil.TimeOfDay {
	t := tod(s)
	return &t
}

func newShift(name, start, end string, days WeekdaySet) Shift {
	return Shift{
		ID:              uuid.New(),
		LocationID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:            name,
		StartTime:       tod(start),
		EndTime:         tod(end),
		Weekdays:        days,
		ArrivalInterval: 30,
		IsActive:        true,
	}
}

func TestResolveNoExceptions(t *testing.T) {
	lunch := newShift("Lunch", "12:00", "15:00", AllWeek)
	lunch.DisplayOrder = 1
	dinner := newShift("Dinner", "18:00", "22:00", AllWeek)
	dinner.DisplayOrder = 2

	got, err := Resolve(civil.MustParseDate("2025-12-24"), []Shift{dinner, lunch}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 effective shifts, got %d", len(got))
	}
	if got[0].Name != "Lunch" || got[1].Name != "Dinner" {
		t.Errorf("expected display order Lunch, Dinner; got %s, %s", got[0].Name, got[1].Name)
	}
	for _, eff := range got {
		if eff.Status != StatusActive {
			t.Errorf("%s status = %s, want active", eff.Name, eff.Status)
		}
	}
}

func TestResolveInactiveWeekdayAndShift(t *testing.T) {
	weekdaysOnly := newShift("Lunch", "12:00", "15:00", Weekdays(1, 2, 3, 4, 5))
	disabled := newShift("Brunch", "10:00", "12:00", AllWeek)
	disabled.IsActive = false

	// 2025-12-27 is a Saturday.
	got, err := Resolve(civil.MustParseDate("2025-12-27"), []Shift{weekdaysOnly, disabled}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no schedule, got %+v", got)
	}
}

func TestResolveLocationWideClosedWins(t *testing.T) {
	dinner := newShift("Dinner", "18:00", "22:00", AllWeek)
	date := civil.MustParseDate("2025-12-25")
	exceptions := []ShiftException{
		{ID: uuid.New(), LocationID: dinner.LocationID, Date: date, Type: ExceptionClosed, Label: "Christmas"},
		{ID: uuid.New(), LocationID: dinner.LocationID, ShiftID: &dinner.ID, Date: date, Type: ExceptionSpecial,
			OverrideStart: todPtr("17:00"), OverrideEnd: todPtr("23:00"), Label: "Christmas dinner"},
	}

	got, err := Resolve(date, []Shift{dinner}, exceptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("location-wide closure must yield no shifts, got %+v", got)
	}
}

func TestResolveShiftSpecificOverridesLocationWide(t *testing.T) {
	lunch := newShift("Lunch", "12:00", "15:00", AllWeek)
	dinner := newShift("Dinner", "18:00", "22:00", AllWeek)
	date := civil.MustParseDate("2025-12-31")
	exceptions := []ShiftException{
		{ID: uuid.New(), LocationID: lunch.LocationID, Date: date, Type: ExceptionModified,
			OverrideEnd: todPtr("14:00"), Label: "Short day"},
		{ID: uuid.New(), LocationID: lunch.LocationID, ShiftID: &dinner.ID, Date: date, Type: ExceptionSpecial,
			OverrideStart: todPtr("19:00"), OverrideEnd: todPtr("24:00"), Label: "NYE menu"},
	}

	got, err := Resolve(date, []Shift{lunch, dinner}, exceptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 shifts, got %d", len(got))
	}

	byName := map[string]EffectiveShift{}
	for _, eff := range got {
		byName[eff.Name] = eff
	}

	l := byName["Lunch"]
	if l.Status != StatusModified || l.StartTime != tod("12:00") || l.EndTime != tod("14:00") || l.Label != "Short day" {
		t.Errorf("unexpected lunch: %+v", l)
	}
	d := byName["Dinner"]
	if d.Status != StatusSpecial || d.StartTime != tod("19:00") || d.EndTime != civil.MinutesPerDay || d.Label != "NYE menu" {
		t.Errorf("unexpected dinner: %+v", d)
	}
}

func TestResolveShiftSpecificClosed(t *testing.T) {
	lunch := newShift("Lunch", "12:00", "15:00", AllWeek)
	dinner := newShift("Dinner", "18:00", "22:00", AllWeek)
	date := civil.MustParseDate("2025-11-03")
	exceptions := []ShiftException{
		{ID: uuid.New(), LocationID: lunch.LocationID, ShiftID: &lunch.ID, Date: date, Type: ExceptionClosed, Label: "Private event"},
	}

	got, err := Resolve(date, []Shift{lunch, dinner}, exceptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 shifts, got %d", len(got))
	}
	if got[0].Status != StatusClosed || got[0].Status.Bookable() {
		t.Errorf("lunch should be closed, got %+v", got[0])
	}
	if got[1].Status != StatusActive {
		t.Errorf("dinner should stay active, got %+v", got[1])
	}
}

func TestResolveIgnoresOtherDates(t *testing.T) {
	dinner := newShift("Dinner", "18:00", "22:00", AllWeek)
	exceptions := []ShiftException{
		{ID: uuid.New(), LocationID: dinner.LocationID, Date: civil.MustParseDate("2025-12-25"), Type: ExceptionClosed},
	}
	got, err := Resolve(civil.MustParseDate("2025-12-26"), []Shift{dinner}, exceptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != StatusActive {
		t.Errorf("exception of another date must not apply: %+v", got)
	}
}

func TestResolveEmptyWindowIsConfigError(t *testing.T) {
	dinner := newShift("Dinner", "18:00", "22:00", AllWeek)
	date := civil.MustParseDate("2025-10-01")
	exceptions := []ShiftException{
		{ID: uuid.New(), LocationID: dinner.LocationID, ShiftID: &dinner.ID, Date: date, Type: ExceptionModified,
			OverrideStart: todPtr("23:00")},
	}
	_, err := Resolve(date, []Shift{dinner}, exceptions)
	if !errs.HasCode(err, errs.CodeInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}
}

func TestServiceEffectiveScheduleFromDatabase(t *testing.T) {
	db := dbtest.Open(t, &Shift{}, &ShiftException{})
	repo := NewRepository(db)
	ctx := context.Background()

	dinner := newShift("Dinner", "18:00", "22:00", AllWeek)
	if err := repo.CreateShift(ctx, &dinner); err != nil {
		t.Fatal(err)
	}
	date := civil.MustParseDate("2025-12-25")
	if err := repo.CreateException(ctx, &ShiftException{LocationID: dinner.LocationID, Date: date, Type: ExceptionClosed}); err != nil {
		t.Fatal(err)
	}

	svc := NewService(repo)
	closed, err := svc.EffectiveSchedule(ctx, dinner.LocationID, date)
	if err != nil {
		t.Fatal(err)
	}
	if len(closed) != 0 {
		t.Errorf("expected closed date, got %+v", closed)
	}

	open, err := svc.EffectiveSchedule(ctx, dinner.LocationID, civil.MustParseDate("2025-12-26"))
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].StartTime != tod("18:00") || open[0].EndTime != tod("22:00") {
		t.Errorf("unexpected schedule: %+v", open)
	}
}
