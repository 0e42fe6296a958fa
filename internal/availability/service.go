package availability

import (
	"context"
	"sort"
	"time"

	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/internal/schedule"
	"tablebook/internal/settings"
	"tablebook/internal/shared/constants"
	"tablebook/internal/shared/errs"
	"tablebook/internal/tickets"
	"tablebook/pkg/cache"
	"tablebook/pkg/civil"
	"tablebook/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service interface defines the contract for availability queries
type Service interface {
	Availability(ctx context.Context, locationID uuid.UUID, req AvailabilityRequest) (*AvailabilityResponse, error)
	Diagnose(ctx context.Context, locationID uuid.UUID, req DiagnoseRequest) (*Diagnosis, error)
	// CheckSlot evaluates one explicit slot before a reservation is written.
	CheckSlot(ctx context.Context, q reservations.SlotQuery) (reservations.SlotDecision, error)
}

// Options carries the service's tunables.
type Options struct {
	CacheTTL time.Duration
	Clock    func() time.Time
}

type service struct {
	schedule     schedule.Service
	tickets      tickets.Repository
	settings     settings.Repository
	floors       floorplan.Repository
	reservations reservations.Repository
	cache        cache.Service
	log          *logger.Logger
	opts         Options
}

// NewService creates a new availability service instance
func NewService(
	scheduleService schedule.Service,
	ticketRepo tickets.Repository,
	settingsRepo settings.Repository,
	floorRepo floorplan.Repository,
	reservationRepo reservations.Repository,
	cacheService cache.Service,
	opts Options,
) Service {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = constants.TTL_AVAILABILITY
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	return &service{
		schedule:     scheduleService,
		tickets:      ticketRepo,
		settings:     settingsRepo,
		floors:       floorRepo,
		reservations: reservationRepo,
		cache:        cacheService,
		log:          logger.GetDefault(),
		opts:         opts,
	}
}

// snapshot is one location's state for one date, loaded once and shared by every slot.
type snapshot struct {
	settings     *settings.ReservationSettings
	timezone     string
	now          time.Time
	shifts       []schedule.EffectiveShift
	shiftTickets []tickets.ShiftTicket
	floor        *floorplan.Floor
	reservations []reservations.Reservation
}

// ticketsFor lists the shift's offered tickets, default tickets first, narrowed to
// ticketID when one is given.
func (s *snapshot) ticketsFor(shiftID uuid.UUID, ticketID *uuid.UUID) []tickets.ShiftTicket {
	var out []tickets.ShiftTicket
	for _, st := range s.shiftTickets {
		if st.ShiftID != shiftID {
			continue
		}
		if ticketID != nil && st.TicketID != *ticketID {
			continue
		}
		out = append(out, st)
	}
	return out
}

func (s *snapshot) input(eff schedule.EffectiveShift, cfg tickets.Config, t civil.TimeOfDay, partySize int, channel reservations.Channel) SlotInput {
	return SlotInput{
		Time:                 t,
		PartySize:            partySize,
		Channel:              channel,
		Shift:                eff,
		Ticket:               cfg,
		AllowMultiTable:      s.settings.AllowMultiTable,
		LowCapacityThreshold: s.settings.LowCapacityThreshold,
		Floor:                s.floor,
		Reservations:         s.reservations,
	}
}

func (s *service) load(ctx context.Context, locationID uuid.UUID, date civil.Date) (*snapshot, error) {
	locSettings, err := s.settings.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	tz, err := locSettings.Location()
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidConfig, err, "location %s has an invalid timezone", locationID)
	}
	shifts, err := s.schedule.EffectiveSchedule(ctx, locationID, date)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		settings: locSettings,
		timezone: tz.String(),
		now:      s.opts.Clock().In(tz),
		shifts:   shifts,
	}

	var shiftIDs []uuid.UUID
	for _, eff := range shifts {
		if eff.Status.Bookable() {
			shiftIDs = append(shiftIDs, eff.ShiftID)
		}
	}
	if len(shiftIDs) == 0 {
		return snap, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.shiftTickets, err = s.tickets.ActiveForShifts(gctx, shiftIDs)
		return err
	})
	g.Go(func() error {
		var err error
		snap.floor, err = s.floors.LoadFloor(gctx, locationID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.reservations, err = s.reservations.ListForDate(gctx, locationID, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(snap.shiftTickets, func(i, j int) bool {
		a, b := snap.shiftTickets[i], snap.shiftTickets[j]
		if a.Ticket.IsDefault != b.Ticket.IsDefault {
			return a.Ticket.IsDefault
		}
		return a.Ticket.Name < b.Ticket.Name
	})
	return snap, nil
}

// Availability lists every slot of every shift on the date. Results are cached per
// location, date, party, ticket and channel until a reservation of that date changes.
func (s *service) Availability(ctx context.Context, locationID uuid.UUID, req AvailabilityRequest) (*AvailabilityResponse, error) {
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidTime, err, "invalid date")
	}
	ticketID, err := parseOptionalID(req.TicketID, "ticket_id")
	if err != nil {
		return nil, err
	}
	channel, err := parseChannel(req.Channel)
	if err != nil {
		return nil, err
	}
	if req.PartySize < 1 {
		return nil, errs.New(errs.CodeInvalidRequest, "party_size must be at least 1")
	}

	cacheKey := constants.BuildAvailabilityKey(locationID.String(), date.String(), req.PartySize, req.TicketID, string(channel))
	var resp AvailabilityResponse
	err = s.cache.GetOrSet(ctx, cacheKey, s.opts.CacheTTL, func() (interface{}, error) {
		return s.computeAvailability(ctx, locationID, date, req.PartySize, ticketID, channel)
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) computeAvailability(ctx context.Context, locationID uuid.UUID, date civil.Date, partySize int, ticketID *uuid.UUID, channel reservations.Channel) (*AvailabilityResponse, error) {
	started := time.Now()
	snap, err := s.load(ctx, locationID, date)
	if err != nil {
		return nil, err
	}

	resp := &AvailabilityResponse{
		LocationID: locationID,
		Date:       date,
		PartySize:  partySize,
		Channel:    channel,
		Timezone:   snap.timezone,
		Shifts:     make([]ShiftAvailability, len(snap.shifts)),
	}

	// Shifts are independent; each goroutine writes only its own index.
	var g errgroup.Group
	for i, eff := range snap.shifts {
		i, eff := i, eff
		g.Go(func() error {
			sa := ShiftAvailability{
				ShiftID:   eff.ShiftID,
				Name:      eff.Name,
				Status:    eff.Status,
				StartTime: eff.StartTime,
				EndTime:   eff.EndTime,
				Label:     eff.Label,
				Slots:     []SlotResult{},
			}
			if eff.Status.Bookable() {
				for _, st := range snap.ticketsFor(eff.ShiftID, ticketID) {
					cfg, err := tickets.Resolve(&st, eff.ArrivalInterval, snap.settings)
					if err != nil {
						return err
					}
					for _, t := range GenerateSlots(eff, cfg.ArrivalInterval, date, snap.now, snap.settings.BookingCutoffMinutes) {
						result, _ := Evaluate(snap.input(eff, cfg, t, partySize, channel))
						sa.Slots = append(sa.Slots, result)
					}
				}
				sort.SliceStable(sa.Slots, func(a, b int) bool { return sa.Slots[a].Time < sa.Slots[b].Time })
			}
			resp.Shifts[i] = sa
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, sa := range resp.Shifts {
		total += len(sa.Slots)
	}
	s.log.LogAvailabilityComputed(ctx, locationID.String(), date.String(), partySize, total, time.Since(started))
	return resp, nil
}

// Diagnose explains a single slot. Nothing is cached.
func (s *service) Diagnose(ctx context.Context, locationID uuid.UUID, req DiagnoseRequest) (*Diagnosis, error) {
	q := slotRequest{LocationID: locationID, PartySize: req.PartySize}
	var err error
	if q.Date, err = civil.ParseDate(req.Date); err != nil {
		return nil, errs.Wrap(errs.CodeInvalidTime, err, "invalid date")
	}
	if q.Time, err = civil.ParseTimeOfDay(req.Time); err != nil {
		return nil, errs.Wrap(errs.CodeInvalidTime, err, "invalid time")
	}
	if q.TicketID, err = parseOptionalID(req.TicketID, "ticket_id"); err != nil {
		return nil, err
	}
	if q.Channel, err = parseChannel(req.Channel); err != nil {
		return nil, err
	}
	if q.PartySize < 1 {
		return nil, errs.New(errs.CodeInvalidRequest, "party_size must be at least 1")
	}

	snap, err := s.load(ctx, locationID, q.Date)
	if err != nil {
		return nil, err
	}
	return explain(snap, q)
}

func (s *service) CheckSlot(ctx context.Context, q reservations.SlotQuery) (reservations.SlotDecision, error) {
	ticketID := q.TicketID
	snap, err := s.load(ctx, q.LocationID, q.Date)
	if err != nil {
		return reservations.SlotDecision{}, err
	}
	d, err := explain(snap, slotRequest{
		LocationID: q.LocationID,
		Date:       q.Date,
		Time:       q.Time,
		PartySize:  q.PartySize,
		TicketID:   &ticketID,
		Channel:    q.Channel,
	})
	if err != nil {
		return reservations.SlotDecision{}, err
	}

	decision := reservations.SlotDecision{
		Bookable:        d.Result.Type.Bookable(),
		ReasonCode:      string(d.Result.ReasonCode),
		TicketID:        ticketID,
		DurationMinutes: d.Result.DurationMinutes,
		IsSqueeze:       d.Result.Type == SlotSqueeze,
	}
	if d.EffectiveShift != nil {
		decision.ShiftID = d.EffectiveShift.ShiftID
	}
	if d.Ticket != nil {
		decision.BufferMinutes = d.Ticket.BufferMinutes
	}
	return decision, nil
}

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidRequest, err, "invalid %s", field)
	}
	return &id, nil
}

// parseChannel defaults to the widget, the public caller of availability.
func parseChannel(raw string) (reservations.Channel, error) {
	if raw == "" {
		return reservations.ChannelWidget, nil
	}
	ch := reservations.Channel(raw)
	if !ch.IsValid() {
		return "", errs.New(errs.CodeInvalidRequest, "unknown channel %q", raw)
	}
	return ch, nil
}
