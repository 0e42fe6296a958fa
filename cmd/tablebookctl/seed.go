package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tablebook/internal/app"
	"tablebook/internal/floorplan"
	"tablebook/internal/schedule"
	"tablebook/internal/settings"
	"tablebook/internal/shared/constants"
	"tablebook/internal/shared/database"
	"tablebook/internal/tickets"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// DemoLocationID is the location the seeder creates
const DemoLocationID = "11111111-1111-1111-1111-111111111111"

type Seeder struct {
	db         *database.DB
	container  *app.Container
	locationID uuid.UUID
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	var (
		location string
		clean    bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo restaurant (two shifts, tickets, floor plan and a holiday closure)",
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := uuid.Parse(location)
			if err != nil {
				return fmt.Errorf("invalid --location: %w", err)
			}

			cfg, db, err := flags.open()
			if err != nil {
				return err
			}
			defer db.Close()

			seeder := &Seeder{db: db, container: app.Build(cfg, db, nil), locationID: locationID}

			if clean {
				fmt.Println("\n🧹 Cleaning database...")
				if err := seeder.CleanDatabase(); err != nil {
					return fmt.Errorf("failed to clean database: %w", err)
				}
				fmt.Println("✅ Database cleaned successfully")
			}

			fmt.Println("\n🌱 Seeding database...")
			if err := seeder.SeedAll(cmd.Context()); err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
			fmt.Printf("\n🎉 Seeding completed! Location %s is ready for testing.\n", locationID)
			return nil
		},
	}
	cmd.Flags().StringVar(&location, "location", DemoLocationID, "location id to seed")
	cmd.Flags().BoolVar(&clean, "clean", true, "empty every table first")
	return cmd
}

// CleanDatabase empties all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"audit_entries",
		"reservations",
		"table_group_members",
		"table_groups",
		"tables",
		"areas",
		"shift_tickets",
		"tickets",
		"shift_exceptions",
		"shifts",
		"reservation_settings",
	}

	return s.db.SQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Emptying table: %s\n", table)
			stmt := fmt.Sprintf("DELETE FROM %s", table)
			if s.db.Driver == "postgres" {
				stmt = fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)
			}
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to empty table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll(ctx context.Context) error {
	if err := s.SeedSettings(ctx); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	shifts, err := s.SeedSchedule(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed schedule: %w", err)
	}

	if err := s.SeedTickets(ctx, shifts); err != nil {
		return fmt.Errorf("failed to seed tickets: %w", err)
	}

	if err := s.SeedFloor(ctx); err != nil {
		return fmt.Errorf("failed to seed floor plan: %w", err)
	}

	// Drop cached listings so the new configuration shows up immediately
	if s.db.Redis != nil {
		pattern := constants.CACHE_KEY_AVAILABILITY + s.locationID.String() + ":*"
		if err := s.container.Cache.DeletePattern(ctx, pattern); err != nil {
			log.Printf("Warning: Failed to clear availability cache: %v", err)
		}
	}
	return nil
}

func (s *Seeder) SeedSettings(ctx context.Context) error {
	fmt.Println("  ⚙️  Seeding reservation settings...")

	rs := settings.Defaults(s.locationID, "Europe/Amsterdam")
	rs.DefaultDuration = 120
	rs.DefaultBuffer = 15
	rs.BookingCutoffMinutes = 60
	rs.SqueezeEnabled = true
	rs.SqueezeDuration = 75
	rs.SqueezeGap = 0
	rs.SqueezeLimitPerShift = 2
	rs.LowCapacityThreshold = 6
	return s.container.Settings.Save(ctx, &rs)
}

func (s *Seeder) SeedSchedule(ctx context.Context) (map[string]*schedule.Shift, error) {
	fmt.Println("  🗓️  Seeding shifts...")

	shiftsData := []struct {
		name       string
		start, end string
		days       schedule.WeekdaySet
		interval   int
		order      int
	}{
		{"Lunch", "12:00", "15:00", schedule.Weekdays(2, 3, 4, 5, 6), 15, 1},
		{"Dinner", "17:30", "22:00", schedule.AllWeek, 15, 2},
	}

	shifts := make(map[string]*schedule.Shift, len(shiftsData))
	for _, d := range shiftsData {
		shift := &schedule.Shift{
			LocationID:      s.locationID,
			Name:            d.name,
			StartTime:       civil.MustParseTimeOfDay(d.start),
			EndTime:         civil.MustParseTimeOfDay(d.end),
			Weekdays:        d.days,
			ArrivalInterval: d.interval,
			DisplayOrder:    d.order,
			IsActive:        true,
		}
		if err := s.container.ScheduleRepo.CreateShift(ctx, shift); err != nil {
			return nil, fmt.Errorf("failed to create shift %s: %w", d.name, err)
		}
		shifts[d.name] = shift
		fmt.Printf("    ✅ Created shift: %s %s-%s\n", shift.Name, shift.StartTime, shift.EndTime)
	}

	fmt.Println("  🎄 Seeding exceptions...")
	year := time.Now().Year()
	christmas := civil.Date{Year: year, Month: 12, Day: 25}
	newYearsEve := civil.Date{Year: year, Month: 12, Day: 31}
	lateEnd := civil.TimeOfDay(civil.MinutesPerDay)
	lateStart := civil.MustParseTimeOfDay("19:00")

	exceptions := []schedule.ShiftException{
		{LocationID: s.locationID, Date: christmas, Type: schedule.ExceptionClosed, Label: "Christmas Day"},
		{LocationID: s.locationID, ShiftID: &shifts["Dinner"].ID, Date: newYearsEve, Type: schedule.ExceptionSpecial,
			OverrideStart: &lateStart, OverrideEnd: &lateEnd, Label: "New Year's Eve menu"},
	}
	for i := range exceptions {
		if err := s.container.ScheduleRepo.CreateException(ctx, &exceptions[i]); err != nil {
			return nil, fmt.Errorf("failed to create exception %s: %w", exceptions[i].Label, err)
		}
		fmt.Printf("    ✅ Created exception: %s (%s)\n", exceptions[i].Label, exceptions[i].Date)
	}

	return shifts, nil
}

func (s *Seeder) SeedTickets(ctx context.Context, shifts map[string]*schedule.Shift) error {
	fmt.Println("  🎟️  Seeding tickets...")

	standard := &tickets.Ticket{
		LocationID:   s.locationID,
		Name:         "Standard",
		MinPartySize: 1,
		MaxPartySize: 12,
		IsDefault:    true,
		Status:       tickets.StatusActive,
	}
	tasting := &tickets.Ticket{
		LocationID:      s.locationID,
		Name:            "Tasting Menu",
		DurationMinutes: 180,
		BufferMinutes:   15,
		MinPartySize:    2,
		MaxPartySize:    6,
		Status:          tickets.StatusActive,
	}
	for _, t := range []*tickets.Ticket{standard, tasting} {
		if err := s.container.Tickets.CreateTicket(ctx, t); err != nil {
			return fmt.Errorf("failed to create ticket %s: %w", t.Name, err)
		}
		fmt.Printf("    ✅ Created ticket: %s\n", t.Name)
	}

	pacing := 24
	seatingGuests := 70
	lunchDuration := 90
	interval := 30
	offers := []tickets.ShiftTicket{
		{ShiftID: shifts["Lunch"].ID, TicketID: standard.ID, IsActive: true, DurationMinutes: &lunchDuration,
			PacingUnit: tickets.PacingGuests},
		{ShiftID: shifts["Dinner"].ID, TicketID: standard.ID, IsActive: true, PacingLimit: &pacing,
			PacingUnit: tickets.PacingGuests, SeatingLimitGuests: &seatingGuests},
		{ShiftID: shifts["Dinner"].ID, TicketID: tasting.ID, IsActive: true, ArrivalInterval: &interval,
			PacingUnit: tickets.PacingReservations},
	}
	for i := range offers {
		if err := s.container.Tickets.CreateShiftTicket(ctx, &offers[i]); err != nil {
			return fmt.Errorf("failed to offer ticket: %w", err)
		}
	}
	fmt.Printf("    ✅ Offered %d shift tickets\n", len(offers))
	return nil
}

func (s *Seeder) SeedFloor(ctx context.Context) error {
	fmt.Println("  🪑 Seeding floor plan...")

	mainRoom := &floorplan.Area{LocationID: s.locationID, Name: "Main Room", FillOrder: floorplan.FillPriority, SortOrder: 1, IsActive: true}
	terrace := &floorplan.Area{LocationID: s.locationID, Name: "Terrace", FillOrder: floorplan.FillFirstAvailable, SortOrder: 2, IsActive: true}
	for _, a := range []*floorplan.Area{mainRoom, terrace} {
		if err := s.container.Floors.CreateArea(ctx, a); err != nil {
			return fmt.Errorf("failed to create area %s: %w", a.Name, err)
		}
	}

	tablesData := []struct {
		area     *floorplan.Area
		name     string
		min, max int
		joinable bool
		online   bool
		priority int
	}{
		{mainRoom, "M1", 1, 2, true, true, 80},
		{mainRoom, "M2", 1, 2, true, true, 80},
		{mainRoom, "M3", 2, 4, true, true, 60},
		{mainRoom, "M4", 2, 4, true, true, 60},
		{mainRoom, "M5", 4, 6, false, true, 40},
		{mainRoom, "M6", 6, 10, false, false, 20},
		{terrace, "T1", 1, 2, false, true, 50},
		{terrace, "T2", 2, 4, false, true, 50},
		{terrace, "T3", 2, 4, false, true, 50},
	}

	byName := make(map[string]uuid.UUID, len(tablesData))
	for i, d := range tablesData {
		table := &floorplan.Table{
			LocationID:       s.locationID,
			AreaID:           d.area.ID,
			Name:             d.name,
			MinCapacity:      d.min,
			MaxCapacity:      d.max,
			IsActive:         true,
			IsOnlineBookable: d.online,
			IsJoinable:       d.joinable,
			AssignPriority:   d.priority,
			SortOrder:        i,
		}
		if err := s.container.Floors.CreateTable(ctx, table); err != nil {
			return fmt.Errorf("failed to create table %s: %w", d.name, err)
		}
		byName[d.name] = table.ID
	}
	fmt.Printf("    ✅ Created %d tables in 2 areas\n", len(tablesData))

	group := &floorplan.TableGroup{
		LocationID:       s.locationID,
		AreaID:           mainRoom.ID,
		Name:             "M3+M4",
		ExtraSeats:       1,
		IsActive:         true,
		IsOnlineBookable: true,
		AssignPriority:   30,
	}
	if err := s.container.Floors.CreateGroup(ctx, group, []uuid.UUID{byName["M3"], byName["M4"]}); err != nil {
		return fmt.Errorf("failed to create table group: %w", err)
	}
	fmt.Printf("    ✅ Created table group: %s\n", group.Name)
	return nil
}
