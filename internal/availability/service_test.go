package availability

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"tablebook/internal/assignment"
	"tablebook/internal/audit"
	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/internal/schedule"
	"tablebook/internal/settings"
	"tablebook/internal/shared/constants"
	"tablebook/internal/shared/database/dbtest"
	"tablebook/internal/shared/errs"
	"tablebook/internal/tickets"
	"tablebook/pkg/cache"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memCache is a map-backed cache.Service that counts fetches.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	fetches int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *memCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func (m *memCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	if err := m.Get(ctx, key, dest); err == nil {
		return nil
	}
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
	data, err := fetcher()
	if err != nil {
		return err
	}
	if err := m.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	return m.Get(ctx, key, dest)
}

func (m *memCache) Ping(context.Context) error { return nil }

var serviceDate = civil.MustParseDate("2025-12-24")

type env struct {
	db       *gorm.DB
	cache    *memCache
	svc      Service
	shift    *schedule.Shift
	ticket   *tickets.Ticket
	tables   map[string]*floorplan.Table
	resRepo  reservations.Repository
	schedule schedule.Repository
}

// newEnv seeds one location with a Dinner shift 18:00-22:00, a default Dinner ticket
// offered every 15 minutes with a pacing limit of 20 guests, and the given tables.
func newEnv(t *testing.T, capacities map[string]int) *env {
	t.Helper()
	db := dbtest.Open(t,
		&schedule.Shift{}, &schedule.ShiftException{},
		&tickets.Ticket{}, &tickets.ShiftTicket{},
		&settings.ReservationSettings{},
		&floorplan.Area{}, &floorplan.Table{}, &floorplan.TableGroup{},
		&reservations.Reservation{}, &audit.Entry{},
	)
	ctx := context.Background()

	settingsRepo := settings.NewRepository(db, "UTC")
	locSettings := settings.Defaults(locationID, "UTC")
	if err := settingsRepo.Save(ctx, &locSettings); err != nil {
		t.Fatal(err)
	}

	scheduleRepo := schedule.NewRepository(db)
	shift := &schedule.Shift{
		LocationID:      locationID,
		Name:            "Dinner",
		StartTime:       tod("18:00"),
		EndTime:         tod("22:00"),
		Weekdays:        schedule.AllWeek,
		ArrivalInterval: 30,
		IsActive:        true,
	}
	if err := scheduleRepo.CreateShift(ctx, shift); err != nil {
		t.Fatal(err)
	}

	ticketRepo := tickets.NewRepository(db)
	ticket := &tickets.Ticket{
		LocationID:      locationID,
		Name:            "Dinner",
		DurationMinutes: 90,
		MinPartySize:    1,
		MaxPartySize:    20,
		IsDefault:       true,
		Status:          tickets.StatusActive,
	}
	if err := ticketRepo.CreateTicket(ctx, ticket); err != nil {
		t.Fatal(err)
	}
	if err := ticketRepo.CreateShiftTicket(ctx, &tickets.ShiftTicket{
		ShiftID:         shift.ID,
		TicketID:        ticket.ID,
		IsActive:        true,
		ArrivalInterval: intPtr(15),
		PacingLimit:     intPtr(20),
		PacingUnit:      tickets.PacingGuests,
	}); err != nil {
		t.Fatal(err)
	}

	floorRepo := floorplan.NewRepository(db)
	area := &floorplan.Area{LocationID: locationID, Name: "Main", FillOrder: floorplan.FillFirstAvailable, IsActive: true}
	if err := floorRepo.CreateArea(ctx, area); err != nil {
		t.Fatal(err)
	}
	tables := map[string]*floorplan.Table{}
	for name, c := range capacities {
		tb := &floorplan.Table{LocationID: locationID, AreaID: area.ID, Name: name, MinCapacity: 1, MaxCapacity: c, IsActive: true, IsOnlineBookable: true}
		if err := floorRepo.CreateTable(ctx, tb); err != nil {
			t.Fatal(err)
		}
		tables[name] = tb
	}

	mc := newMemCache()
	resRepo := reservations.NewRepository(db)
	svc := NewService(schedule.NewService(scheduleRepo), ticketRepo, settingsRepo, floorRepo, resRepo, mc, Options{
		Clock: func() time.Time { return time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC) },
	})
	return &env{db: db, cache: mc, svc: svc, shift: shift, ticket: ticket, tables: tables, resRepo: resRepo, schedule: scheduleRepo}
}

func (e *env) book(t *testing.T, at string, party int, table string) *reservations.Reservation {
	t.Helper()
	r := &reservations.Reservation{
		LocationID:      locationID,
		Date:            serviceDate,
		StartTime:       tod(at),
		DurationMinutes: 90,
		PartySize:       party,
		ShiftID:         e.shift.ID,
		TicketID:        e.ticket.ID,
		Channel:         reservations.ChannelOperator,
		Status:          reservations.StatusConfirmed,
	}
	if tb, ok := e.tables[table]; ok {
		r.TableID = &tb.ID
		r.TableIDs = tickets.UUIDList{tb.ID}
	}
	if err := e.resRepo.Create(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	return r
}

func findSlot(resp *AvailabilityResponse, at string) (SlotResult, bool) {
	for _, sa := range resp.Shifts {
		for _, s := range sa.Slots {
			if s.Time == tod(at) {
				return s, true
			}
		}
	}
	return SlotResult{}, false
}

func TestAvailabilityDinnerExamples(t *testing.T) {
	e := newEnv(t, map[string]int{"T4": 4, "Banquet": 20})
	e.book(t, "19:00", 4, "T4")
	ctx := context.Background()

	resp, err := e.svc.Availability(ctx, locationID, AvailabilityRequest{Date: "2025-12-24", PartySize: 18, Channel: "operator"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Shifts) != 1 || resp.Shifts[0].Name != "Dinner" {
		t.Fatalf("expected the Dinner shift, got %+v", resp.Shifts)
	}
	if s, ok := findSlot(resp, "19:00"); !ok || s.Type != SlotClosed || s.ReasonCode != ReasonPacingExceeded {
		t.Errorf("19:00 for 18 guests: expected pacing_exceeded, got %+v", s)
	}
	if s, ok := findSlot(resp, "18:00"); !ok || !s.Type.Bookable() {
		t.Errorf("18:00 for 18 guests should be bookable, got %+v", s)
	}

	resp, err = e.svc.Availability(ctx, locationID, AvailabilityRequest{Date: "2025-12-24", PartySize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := findSlot(resp, "21:45"); !ok {
		t.Error("21:45 should be offered")
	}
	if _, ok := findSlot(resp, "22:00"); ok {
		t.Error("22:00 is the shift end and must not be offered")
	}
	for _, sa := range resp.Shifts {
		for _, s := range sa.Slots {
			if (s.Type == SlotClosed) != (s.ReasonCode != "") {
				t.Errorf("%s: type %s with reason %q", s.Time, s.Type, s.ReasonCode)
			}
		}
	}
}

func TestAvailabilityClosedDate(t *testing.T) {
	e := newEnv(t, map[string]int{"T4": 4})
	ctx := context.Background()
	if err := e.schedule.CreateException(ctx, &schedule.ShiftException{
		LocationID: locationID,
		Date:       civil.MustParseDate("2025-12-25"),
		Type:       schedule.ExceptionClosed,
		Label:      "Christmas",
	}); err != nil {
		t.Fatal(err)
	}

	resp, err := e.svc.Availability(ctx, locationID, AvailabilityRequest{Date: "2025-12-25", PartySize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Shifts) != 0 {
		t.Errorf("a location-wide closure yields no shifts, got %+v", resp.Shifts)
	}
}

func TestAvailabilityIsCachedUntilInvalidated(t *testing.T) {
	e := newEnv(t, map[string]int{"T4": 4})
	ctx := context.Background()
	req := AvailabilityRequest{Date: "2025-12-24", PartySize: 4, Channel: "operator"}

	first, err := e.svc.Availability(ctx, locationID, req)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := findSlot(first, "19:00"); !s.Type.Bookable() {
		t.Fatalf("19:00 should start out bookable, got %+v", s)
	}

	e.book(t, "19:00", 4, "T4")
	cached, err := e.svc.Availability(ctx, locationID, req)
	if err != nil {
		t.Fatal(err)
	}
	if e.cache.fetches != 1 {
		t.Errorf("expected one fetch, got %d", e.cache.fetches)
	}
	if s, _ := findSlot(cached, "19:00"); !s.Type.Bookable() {
		t.Errorf("cached listing changed before invalidation: %+v", s)
	}

	if err := e.cache.DeletePattern(ctx, constants.BuildAvailabilityPattern(locationID.String(), "2025-12-24")); err != nil {
		t.Fatal(err)
	}
	fresh, err := e.svc.Availability(ctx, locationID, req)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := findSlot(fresh, "19:00"); s.ReasonCode != ReasonNoTableAvailable {
		t.Errorf("expected no_table_available after invalidation, got %+v", s)
	}
}

func TestDiagnoseTrace(t *testing.T) {
	e := newEnv(t, map[string]int{"T4": 4, "Banquet": 20})
	e.book(t, "19:00", 4, "T4")
	ctx := context.Background()

	d, err := e.svc.Diagnose(ctx, locationID, DiagnoseRequest{Date: "2025-12-24", Time: "19:00", PartySize: 18, Channel: "operator"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Result.ReasonCode != ReasonPacingExceeded || !d.SlotGenerated || d.Ticket == nil || d.EffectiveShift == nil {
		t.Fatalf("unexpected diagnosis: %+v", d)
	}
	if d.Trace.PacingBooked != 4 || d.Trace.PacingLimit == nil || *d.Trace.PacingLimit != 20 {
		t.Errorf("expected pacing counters 4/20, got %+v", d.Trace)
	}
	wantRules := []string{RuleSchedule, RuleSlot, RulePartySize, RulePacing}
	if len(d.Trace.Checks) != len(wantRules) {
		t.Fatalf("expected %d checks, got %+v", len(wantRules), d.Trace.Checks)
	}
	for i, rule := range wantRules {
		if d.Trace.Checks[i].Rule != rule {
			t.Errorf("check %d: expected %s, got %s", i, rule, d.Trace.Checks[i].Rule)
		}
	}
	if last := d.Trace.Checks[len(d.Trace.Checks)-1]; last.Passed || last.Reason != ReasonPacingExceeded {
		t.Errorf("expected the pacing check to fail, got %+v", last)
	}

	tests := []struct {
		at   string
		want ReasonCode
	}{
		{"22:00", ReasonOutsideSchedule},
		{"12:00", ReasonOutsideSchedule},
		{"19:05", ReasonSlotNotOffered},
	}
	for _, tt := range tests {
		d, err := e.svc.Diagnose(ctx, locationID, DiagnoseRequest{Date: "2025-12-24", Time: tt.at, PartySize: 2})
		if err != nil {
			t.Fatal(err)
		}
		if d.Result.Type != SlotClosed || d.Result.ReasonCode != tt.want {
			t.Errorf("%s: expected %s, got %+v", tt.at, tt.want, d.Result)
		}
	}

	if _, err := e.svc.Diagnose(ctx, locationID, DiagnoseRequest{Date: "2025-12-24", Time: "7pm", PartySize: 2}); !errs.HasCode(err, errs.CodeInvalidTime) {
		t.Errorf("expected invalid_time, got %v", err)
	}
}

func TestDiagnoseClosedShift(t *testing.T) {
	e := newEnv(t, map[string]int{"T4": 4})
	ctx := context.Background()
	if err := e.schedule.CreateException(ctx, &schedule.ShiftException{
		LocationID: locationID,
		ShiftID:    &e.shift.ID,
		Date:       serviceDate,
		Type:       schedule.ExceptionClosed,
		Label:      "Private event",
	}); err != nil {
		t.Fatal(err)
	}

	d, err := e.svc.Diagnose(ctx, locationID, DiagnoseRequest{Date: "2025-12-24", Time: "19:00", PartySize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if d.Result.ReasonCode != ReasonShiftClosed {
		t.Errorf("expected shift_closed, got %+v", d.Result)
	}
}

func TestCheckSlot(t *testing.T) {
	e := newEnv(t, map[string]int{"T4": 4})
	ctx := context.Background()

	decision, err := e.svc.CheckSlot(ctx, reservations.SlotQuery{
		LocationID: locationID,
		Date:       serviceDate,
		Time:       tod("20:00"),
		PartySize:  2,
		TicketID:   e.ticket.ID,
		Channel:    reservations.ChannelOperator,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !decision.Bookable || decision.ShiftID != e.shift.ID || decision.DurationMinutes != 90 || decision.IsSqueeze {
		t.Errorf("unexpected decision: %+v", decision)
	}

	decision, err = e.svc.CheckSlot(ctx, reservations.SlotQuery{
		LocationID: locationID,
		Date:       serviceDate,
		Time:       tod("20:00"),
		PartySize:  2,
		TicketID:   uuid.New(),
		Channel:    reservations.ChannelOperator,
	})
	if err != nil {
		t.Fatal(err)
	}
	if decision.Bookable || decision.ReasonCode != string(ReasonTicketNotOffered) {
		t.Errorf("an unknown ticket is not offered, got %+v", decision)
	}
}

func TestReservationLifecycleReopensSlot(t *testing.T) {
	e := newEnv(t, map[string]int{"T4": 4})
	ctx := context.Background()

	settingsRepo := settings.NewRepository(e.db, "UTC")
	auditRepo := audit.NewRepository(e.db)
	floorRepo := floorplan.NewRepository(e.db)
	committer := assignment.NewCommitter(assignment.NewStore(e.db, floorRepo), assignment.NewLocalLocker(), assignment.CommitterConfig{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		LockTTL:     time.Second,
	})
	assigner := assignment.NewService(committer, assignment.NewStore(e.db, floorRepo), schedule.NewService(e.schedule),
		tickets.NewRepository(e.db), settingsRepo, e.resRepo, auditRepo, e.cache, nil)
	resSvc := reservations.NewService(e.resRepo, auditRepo, settingsRepo, e.svc, assigner, e.cache, nil, reservations.Options{
		Clock: func() time.Time { return time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC) },
	})

	query := AvailabilityRequest{Date: "2025-12-24", PartySize: 4, Channel: "operator"}
	if _, err := e.svc.Availability(ctx, locationID, query); err != nil {
		t.Fatal(err)
	}

	created, err := resSvc.Create(ctx, reservations.CreateReservationRequest{
		LocationID: locationID.String(),
		Date:       "2025-12-24",
		Time:       "19:00",
		PartySize:  4,
		TicketID:   e.ticket.ID.String(),
	}, "operator-1")
	if err != nil {
		t.Fatal(err)
	}
	if created.TableID == nil || *created.TableID != e.tables["T4"].ID {
		t.Fatalf("expected T4 to be assigned, got %+v", created)
	}

	resp, err := e.svc.Availability(ctx, locationID, query)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := findSlot(resp, "19:00"); s.ReasonCode != ReasonNoTableAvailable {
		t.Errorf("the only table is taken at 19:00, got %+v", s)
	}

	_, err = resSvc.Create(ctx, reservations.CreateReservationRequest{
		LocationID: locationID.String(),
		Date:       "2025-12-24",
		Time:       "19:30",
		PartySize:  2,
		TicketID:   e.ticket.ID.String(),
	}, "operator-1")
	if !errs.HasCode(err, errs.CodeSlotUnavailable) {
		t.Errorf("expected slot_unavailable for an overlapping booking, got %v", err)
	}

	if _, err := resSvc.Transition(ctx, created.ID, reservations.TransitionRequest{NewStatus: "cancelled", Reason: "guest called"}, "operator-1"); err != nil {
		t.Fatal(err)
	}
	resp, err = e.svc.Availability(ctx, locationID, query)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := findSlot(resp, "19:00"); !s.Type.Bookable() {
		t.Errorf("cancelling must reopen the slot, got %+v", s)
	}
}
