package assignment

import (
	"testing"
	"time"

	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

var locationID = uuid.MustParse("22222222-2222-2222-2222-222222222222")

func tod(s string) civil.TimeOfDay { return civil.MustParseTimeOfDay(s) }

func newArea(name string, fill floorplan.FillOrder, sortOrder int) floorplan.Area {
	return floorplan.Area{ID: uuid.New(), LocationID: locationID, Name: name, FillOrder: fill, SortOrder: sortOrder, IsActive: true}
}

func newTable(a floorplan.Area, name string, maxCap int) floorplan.Table {
	return floorplan.Table{
		ID:               uuid.New(),
		LocationID:       locationID,
		AreaID:           a.ID,
		Name:             name,
		MinCapacity:      1,
		MaxCapacity:      maxCap,
		IsActive:         true,
		IsOnlineBookable: true,
	}
}

func mustFloor(t *testing.T, areas []floorplan.Area, tables []floorplan.Table, groups []floorplan.TableGroup) *floorplan.Floor {
	t.Helper()
	f, err := floorplan.NewFloor(locationID, areas, tables, groups)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func dinnerRequest(at string, party int) Request {
	return Request{
		Time:            tod(at),
		PartySize:       party,
		DurationMinutes: 90,
		BufferMinutes:   15,
		Channel:         reservations.ChannelOperator,
		AllowMultiTable: true,
	}
}

func booking(tableID uuid.UUID, at string) Booking {
	return Booking{ReservationID: uuid.New(), TableIDs: []uuid.UUID{tableID}, Start: tod(at), DurationMinutes: 90, BufferMinutes: 15}
}

func TestResolvePrefersTightestFit(t *testing.T) {
	main := newArea("Main", floorplan.FillFirstAvailable, 0)
	two, four, six := newTable(main, "T2", 2), newTable(main, "T4", 4), newTable(main, "T6", 6)
	floor := mustFloor(t, []floorplan.Area{main}, []floorplan.Table{six, two, four}, nil)

	tests := []struct {
		party int
		want  uuid.UUID
	}{
		{1, two.ID},
		{2, two.ID},
		{3, four.ID},
		{5, six.ID},
	}
	for _, tt := range tests {
		out := Resolve(dinnerRequest("19:00", tt.party), floor, nil)
		if !out.Assigned() || out.Unit.ID != tt.want {
			t.Errorf("party %d: got %+v, want table %s", tt.party, out, tt.want)
		}
		if out.TableID() == nil || out.TableGroupID() != nil {
			t.Errorf("party %d: expected a single table reference", tt.party)
		}
	}
}

func TestResolveExcludesOverlappingBookings(t *testing.T) {
	main := newArea("Main", floorplan.FillFirstAvailable, 0)
	four, six := newTable(main, "T4", 4), newTable(main, "T6", 6)
	floor := mustFloor(t, []floorplan.Area{main}, []floorplan.Table{four, six}, nil)
	existing := []Booking{booking(four.ID, "19:00")}

	tests := []struct {
		at   string
		want uuid.UUID
	}{
		{"17:15", four.ID}, // ends 18:45, buffer reaches 19:00
		{"17:30", six.ID},
		{"19:00", six.ID},
		{"20:30", six.ID}, // existing ends 20:30, buffer until 20:45
		{"20:45", four.ID},
	}
	for _, tt := range tests {
		out := Resolve(dinnerRequest(tt.at, 3), floor, existing)
		if !out.Assigned() || out.Unit.ID != tt.want {
			t.Errorf("%s: got %+v, want %s", tt.at, out.Unit, tt.want)
		}
	}
}

func TestResolveNeverReturnsOverlappingUnit(t *testing.T) {
	main := newArea("Main", floorplan.FillFirstAvailable, 0)
	a, b := newTable(main, "A", 4), newTable(main, "B", 4)
	group := floorplan.TableGroup{ID: uuid.New(), AreaID: main.ID, Name: "A+B", IsActive: true, IsOnlineBookable: true, Tables: []floorplan.Table{a, b}}
	floor := mustFloor(t, []floorplan.Area{main}, []floorplan.Table{a, b}, []floorplan.TableGroup{group})
	existing := []Booking{booking(a.ID, "19:00")}

	for m := tod("16:00"); m < tod("23:00"); m = m.Add(15) {
		for party := 1; party <= 8; party++ {
			req := dinnerRequest(m.String(), party)
			out := Resolve(req, floor, existing)
			if !out.Assigned() {
				continue
			}
			for _, id := range out.Unit.TableIDs {
				if id == a.ID && Overlaps(req.Time, req.DurationMinutes, req.BufferMinutes, existing[0]) {
					t.Fatalf("%s party %d: assigned %s over an existing booking", m, party, out.Unit.Name)
				}
			}
		}
	}
}

func TestResolveIgnoresOwnBookingOnReassignment(t *testing.T) {
	main := newArea("Main", floorplan.FillFirstAvailable, 0)
	four := newTable(main, "T4", 4)
	floor := mustFloor(t, []floorplan.Area{main}, []floorplan.Table{four}, nil)
	own := booking(four.ID, "19:00")

	req := dinnerRequest("19:30", 4)
	if out := Resolve(req, floor, []Booking{own}); out.Assigned() {
		t.Fatalf("expected the table to be taken, got %+v", out)
	}
	req.ReservationID = &own.ReservationID
	if out := Resolve(req, floor, []Booking{own}); !out.Assigned() || out.Unit.ID != four.ID {
		t.Fatalf("re-assignment must ignore its own booking, got %+v", out)
	}
}

func TestResolveWidgetSkipsOfflineTables(t *testing.T) {
	main := newArea("Main", floorplan.FillFirstAvailable, 0)
	offline := newTable(main, "Bar", 2)
	offline.IsOnlineBookable = false
	online := newTable(main, "T4", 4)
	floor := mustFloor(t, []floorplan.Area{main}, []floorplan.Table{offline, online}, nil)

	req := dinnerRequest("19:00", 2)
	if out := Resolve(req, floor, nil); out.Unit.ID != offline.ID {
		t.Errorf("operator should get the tightest table, got %s", out.Unit.Name)
	}
	req.Channel = reservations.ChannelWidget
	if out := Resolve(req, floor, nil); out.Unit.ID != online.ID {
		t.Errorf("widget must not get an offline table, got %s", out.Unit.Name)
	}
}

func TestResolveGroupsOnlyWhenMultiTableAllowed(t *testing.T) {
	main := newArea("Main", floorplan.FillFirstAvailable, 0)
	a, b := newTable(main, "A", 4), newTable(main, "B", 4)
	group := floorplan.TableGroup{ID: uuid.New(), AreaID: main.ID, Name: "A+B", IsActive: true, IsOnlineBookable: true, Tables: []floorplan.Table{a, b}}
	floor := mustFloor(t, []floorplan.Area{main}, []floorplan.Table{a, b}, []floorplan.TableGroup{group})

	req := dinnerRequest("19:00", 4)
	if out := Resolve(req, floor, nil); out.Unit.Kind != floorplan.UnitTable {
		t.Errorf("single tables come before groups, got %+v", out.Unit)
	}

	req = dinnerRequest("19:00", 7)
	out := Resolve(req, floor, nil)
	if !out.Assigned() || out.TableGroupID() == nil || *out.TableGroupID() != group.ID {
		t.Fatalf("expected the group for a party of 7, got %+v", out)
	}

	req.AllowMultiTable = false
	out = Resolve(req, floor, nil)
	if out.Kind != KindNoCandidate || out.Reason != ReasonPartyDoesNotFit {
		t.Errorf("expected party_does_not_fit without multi-table, got %+v", out)
	}
}

func TestResolveFillOrder(t *testing.T) {
	older := time.Date(2025, 12, 1, 19, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	tests := []struct {
		name  string
		fill  floorplan.FillOrder
		setup func(first, second *floorplan.Table)
		want  string
	}{
		{"first available by sort order", floorplan.FillFirstAvailable, func(x, y *floorplan.Table) {
			x.SortOrder, y.SortOrder = 2, 1
		}, "second"},
		{"round robin least recently assigned", floorplan.FillRoundRobin, func(x, y *floorplan.Table) {
			x.LastAssignedAt, y.LastAssignedAt = &newer, &older
		}, "second"},
		{"round robin never assigned first", floorplan.FillRoundRobin, func(x, y *floorplan.Table) {
			x.LastAssignedAt = &older
		}, "second"},
		{"priority highest first", floorplan.FillPriority, func(x, y *floorplan.Table) {
			x.AssignPriority, y.AssignPriority = 80, 10
		}, "first"},
		{"custom ties broken by sort order", floorplan.FillCustom, func(x, y *floorplan.Table) {
			x.AssignPriority, y.AssignPriority = 50, 50
			x.SortOrder, y.SortOrder = 3, 4
		}, "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			area := newArea("Main", tt.fill, 0)
			first, second := newTable(area, "first", 4), newTable(area, "second", 4)
			tt.setup(&first, &second)
			floor := mustFloor(t, []floorplan.Area{area}, []floorplan.Table{first, second}, nil)

			out := Resolve(dinnerRequest("19:00", 4), floor, nil)
			if !out.Assigned() || out.Unit.Name != tt.want {
				t.Errorf("got %+v, want %s", out.Unit, tt.want)
			}
		})
	}
}

func TestResolvePreferredAreaFallsBack(t *testing.T) {
	inside := newArea("Inside", floorplan.FillFirstAvailable, 0)
	terrace := newArea("Terrace", floorplan.FillFirstAvailable, 1)
	in4, ter4 := newTable(inside, "I4", 4), newTable(terrace, "P4", 4)
	floor := mustFloor(t, []floorplan.Area{inside, terrace}, []floorplan.Table{in4, ter4}, nil)

	req := dinnerRequest("19:00", 4)
	if out := Resolve(req, floor, nil); out.Unit.ID != in4.ID {
		t.Errorf("area sort order should pick inside, got %s", out.Unit.Name)
	}

	req.PreferredAreaID = &terrace.ID
	if out := Resolve(req, floor, nil); out.Unit.ID != ter4.ID {
		t.Errorf("preferred area should win, got %s", out.Unit.Name)
	}

	out := Resolve(req, floor, []Booking{booking(ter4.ID, "19:00")})
	if !out.Assigned() || out.Unit.ID != in4.ID {
		t.Errorf("expected fallback to inside, got %+v", out)
	}
}

func TestResolveAllowedAreas(t *testing.T) {
	inside := newArea("Inside", floorplan.FillFirstAvailable, 0)
	terrace := newArea("Terrace", floorplan.FillFirstAvailable, 1)
	in4, ter4 := newTable(inside, "I4", 4), newTable(terrace, "P4", 4)
	floor := mustFloor(t, []floorplan.Area{inside, terrace}, []floorplan.Table{in4, ter4}, nil)

	req := dinnerRequest("19:00", 2)
	req.AreaAllowed = func(id uuid.UUID) bool { return id == terrace.ID }
	if out := Resolve(req, floor, nil); out.Unit.ID != ter4.ID {
		t.Errorf("expected terrace table, got %+v", out.Unit)
	}
}

func TestResolveNoCandidateReasons(t *testing.T) {
	main := newArea("Main", floorplan.FillFirstAvailable, 0)
	four := newTable(main, "T4", 4)
	floor := mustFloor(t, []floorplan.Area{main}, []floorplan.Table{four}, nil)
	empty := mustFloor(t, []floorplan.Area{main}, nil, nil)

	tests := []struct {
		name     string
		floor    *floorplan.Floor
		party    int
		bookings []Booking
		want     string
	}{
		{"no tables", empty, 2, nil, ReasonNoBookableTable},
		{"party too large", floor, 9, nil, ReasonPartyDoesNotFit},
		{"all booked", floor, 2, []Booking{booking(four.ID, "19:00")}, ReasonAllTablesBooked},
	}
	for _, tt := range tests {
		out := Resolve(dinnerRequest("19:00", tt.party), tt.floor, tt.bookings)
		if out.Kind != KindNoCandidate || out.Reason != tt.want || out.Unit != nil {
			t.Errorf("%s: got %+v, want no_candidate/%s", tt.name, out, tt.want)
		}
	}
}

func TestBookingsFromSkipsReleasedReservations(t *testing.T) {
	tableID := uuid.New()
	list := []reservations.Reservation{
		{ID: uuid.New(), Status: reservations.StatusConfirmed, TableIDs: []uuid.UUID{tableID}},
		{ID: uuid.New(), Status: reservations.StatusCancelled, TableIDs: []uuid.UUID{tableID}},
		{ID: uuid.New(), Status: reservations.StatusCompleted, TableIDs: []uuid.UUID{tableID}},
		{ID: uuid.New(), Status: reservations.StatusPending},
	}
	got := BookingsFrom(list)
	if len(got) != 1 || got[0].ReservationID != list[0].ID {
		t.Errorf("expected only the confirmed booking, got %+v", got)
	}
}
