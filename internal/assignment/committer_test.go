package assignment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/internal/shared/database/dbtest"
	"tablebook/internal/shared/errs"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	store  Store
	area   *floorplan.Area
	tables []*floorplan.Table
}

func newFixture(t *testing.T, capacities ...int) *fixture {
	t.Helper()
	db := dbtest.Open(t, &floorplan.Area{}, &floorplan.Table{}, &floorplan.TableGroup{}, &reservations.Reservation{})
	floors := floorplan.NewRepository(db)
	ctx := context.Background()

	area := &floorplan.Area{LocationID: locationID, Name: "Main", FillOrder: floorplan.FillFirstAvailable, IsActive: true}
	if err := floors.CreateArea(ctx, area); err != nil {
		t.Fatal(err)
	}
	f := &fixture{db: db, store: NewStore(db, floors), area: area}
	for i, c := range capacities {
		tb := &floorplan.Table{LocationID: locationID, AreaID: area.ID, Name: string(rune('A' + i)), MinCapacity: 1, MaxCapacity: c, SortOrder: i, IsActive: true, IsOnlineBookable: true}
		if err := floors.CreateTable(ctx, tb); err != nil {
			t.Fatal(err)
		}
		f.tables = append(f.tables, tb)
	}
	return f
}

var testDate = civil.MustParseDate("2025-12-24")

func newReservation(at string, party int) *reservations.Reservation {
	return &reservations.Reservation{
		ID:              uuid.New(),
		LocationID:      locationID,
		Date:            testDate,
		StartTime:       tod(at),
		DurationMinutes: 90,
		BufferMinutes:   15,
		PartySize:       party,
		ShiftID:         uuid.New(),
		TicketID:        uuid.New(),
		Channel:         reservations.ChannelOperator,
		Status:          reservations.StatusConfirmed,
	}
}

func requestFor(r *reservations.Reservation) Request {
	return Request{
		Time:            r.StartTime,
		PartySize:       r.PartySize,
		DurationMinutes: r.DurationMinutes,
		BufferMinutes:   r.BufferMinutes,
		Channel:         r.Channel,
		AllowMultiTable: true,
	}
}

func TestConcurrentConflictingCommitsExactlyOneWins(t *testing.T) {
	f := newFixture(t, 4)
	committer := NewCommitter(f.store, NewLocalLocker(), CommitterConfig{
		MaxAttempts: 20,
		Backoff:     time.Millisecond,
		LockTTL:     time.Second,
	})

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned int
		failures []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := newReservation("19:00", 2)
			<-start
			out, err := committer.Commit(context.Background(), r, requestFor(r), false, nil)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil && !errs.HasCode(err, errs.CodeSlotUnavailable):
				failures = append(failures, err)
			case err == nil && out.Assigned():
				assigned++
			case err == nil && out.Kind != KindNoCandidate:
				failures = append(failures, errors.New("unexpected outcome "+string(out.Kind)))
			}
		}()
	}
	close(start)
	wg.Wait()

	for _, err := range failures {
		t.Error(err)
	}
	if assigned != 1 {
		t.Fatalf("expected exactly one commit to win, got %d", assigned)
	}

	var stored int64
	if err := f.db.Model(&reservations.Reservation{}).Where("table_id = ?", f.tables[0].ID).Count(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if stored != 1 {
		t.Errorf("expected one stored reservation on the table, got %d", stored)
	}
}

func TestCommitSpreadsNonConflictingBookings(t *testing.T) {
	f := newFixture(t, 4, 4)
	committer := NewCommitter(f.store, NewLocalLocker(), CommitterConfig{MaxAttempts: 3, Backoff: time.Millisecond})
	ctx := context.Background()

	first := newReservation("19:00", 4)
	out, err := committer.Commit(ctx, first, requestFor(first), false, nil)
	if err != nil || !out.Assigned() {
		t.Fatalf("first commit: %+v %v", out, err)
	}
	second := newReservation("19:30", 4)
	out, err = committer.Commit(ctx, second, requestFor(second), false, nil)
	if err != nil || !out.Assigned() {
		t.Fatalf("second commit: %+v %v", out, err)
	}
	if *first.TableID == *second.TableID {
		t.Fatal("overlapping reservations share a table")
	}

	third := newReservation("19:15", 2)
	out, err = committer.Commit(ctx, third, requestFor(third), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != KindNoCandidate || out.Reason != ReasonAllTablesBooked {
		t.Errorf("expected all_tables_booked, got %+v", out)
	}
	if third.IsAssigned() {
		t.Error("unassigned reservation must keep empty table references")
	}
}

func TestStoreCommitRejectsTakenUnit(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	floor, err := f.store.LoadFloor(ctx, locationID)
	if err != nil {
		t.Fatal(err)
	}
	unit := floor.Units[0]

	if err := f.store.Commit(ctx, Write{Reservation: newReservation("19:00", 2), Unit: unit}); err != nil {
		t.Fatal(err)
	}
	err = f.store.Commit(ctx, Write{Reservation: newReservation("20:00", 2), Unit: unit})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	var count int64
	f.db.Model(&reservations.Reservation{}).Count(&count)
	if count != 1 {
		t.Errorf("conflicting commit must not write, found %d reservations", count)
	}

	var table floorplan.Table
	if err := f.db.First(&table, "id = ?", unit.ID).Error; err != nil {
		t.Fatal(err)
	}
	if table.LastAssignedAt == nil {
		t.Error("commit should record the assignment time")
	}
}

type busyLocker struct {
	mu    sync.Mutex
	busy  int
	calls int
}

func (l *busyLocker) Acquire(ctx context.Context, keys []string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.busy < 0 || l.calls <= l.busy {
		return nil, ErrLockBusy
	}
	return func() {}, nil
}

func TestCommitRetriesLockContention(t *testing.T) {
	f := newFixture(t, 4)
	locker := &busyLocker{busy: 2}
	committer := NewCommitter(f.store, locker, CommitterConfig{MaxAttempts: 4, Backoff: time.Millisecond})

	r := newReservation("19:00", 2)
	out, err := committer.Commit(context.Background(), r, requestFor(r), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Assigned() || out.Attempts != 3 {
		t.Errorf("expected success on the third attempt, got %+v", out)
	}
}

func TestCommitExhaustedAttemptsIsSlotUnavailable(t *testing.T) {
	f := newFixture(t, 4)
	committer := NewCommitter(f.store, &busyLocker{busy: -1}, CommitterConfig{MaxAttempts: 3, Backoff: time.Millisecond})

	r := newReservation("19:00", 2)
	out, err := committer.Commit(context.Background(), r, requestFor(r), false, nil)
	if !errs.HasCode(err, errs.CodeSlotUnavailable) {
		t.Fatalf("expected slot_unavailable, got %v", err)
	}
	if out.Kind != KindConflict || out.Attempts != 3 {
		t.Errorf("expected conflict after 3 attempts, got %+v", out)
	}
}

func TestCommitRunsOnWriteInTransaction(t *testing.T) {
	f := newFixture(t, 4)
	committer := NewCommitter(f.store, NewLocalLocker(), CommitterConfig{MaxAttempts: 1})

	r := newReservation("19:00", 2)
	boom := errors.New("audit failed")
	_, err := committer.Commit(context.Background(), r, requestFor(r), false, func(tx *gorm.DB) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected the hook error, got %v", err)
	}

	var count int64
	f.db.Model(&reservations.Reservation{}).Count(&count)
	if count != 0 {
		t.Errorf("a failed hook must roll the reservation back, found %d", count)
	}
	if r.IsAssigned() {
		t.Error("table references must be restored after a failed commit")
	}
}

func TestLocalLockerIsAllOrNothing(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, []string{"b", "a"}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Acquire(ctx, []string{"c", "b"}, time.Second); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}
	other, err := l.Acquire(ctx, []string{"c"}, time.Second)
	if err != nil {
		t.Fatalf("a failed acquire must not keep partial locks: %v", err)
	}
	other()

	release()
	release()
	again, err := l.Acquire(ctx, []string{"a", "b", "c"}, time.Second)
	if err != nil {
		t.Fatalf("released keys should be free: %v", err)
	}
	again()
}
