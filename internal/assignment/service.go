package assignment

import (
	"context"
	"log/slog"

	"tablebook/internal/audit"
	"tablebook/internal/notifications"
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
	"gorm.io/gorm"
)

// Service interface defines the contract for table assignment
type Service interface {
	// Assign previews an assignment, or commits one when a reservation id is given.
	Assign(ctx context.Context, req AssignTableRequest, actorID string) (*AssignTableResponse, error)
	// AssignNew commits a table for a reservation that is not stored yet.
	AssignNew(ctx context.Context, r *reservations.Reservation, preferredAreaID *uuid.UUID, onWrite func(tx *gorm.DB) error) (reservations.AssignResult, error)
}

type service struct {
	committer    *Committer
	store        Store
	schedule     schedule.Service
	tickets      tickets.Repository
	settings     settings.Repository
	reservations reservations.Repository
	audit        audit.Repository
	cache        cache.Service
	publisher    notifications.Publisher
	log          *logger.Logger
}

func NewService(
	committer *Committer,
	store Store,
	scheduleService schedule.Service,
	ticketRepo tickets.Repository,
	settingsRepo settings.Repository,
	reservationRepo reservations.Repository,
	auditRepo audit.Repository,
	cacheService cache.Service,
	publisher notifications.Publisher,
) Service {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &service{
		committer:    committer,
		store:        store,
		schedule:     scheduleService,
		tickets:      ticketRepo,
		settings:     settingsRepo,
		reservations: reservationRepo,
		audit:        auditRepo,
		cache:        cacheService,
		publisher:    publisher,
		log:          logger.GetDefault(),
	}
}

func (s *service) Assign(ctx context.Context, req AssignTableRequest, actorID string) (*AssignTableResponse, error) {
	in, err := parseAssignRequest(req)
	if err != nil {
		return nil, err
	}
	locSettings, err := s.settings.Get(ctx, in.locationID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.ticketConfig(ctx, in.locationID, in.shiftID, in.ticketID, locSettings)
	if err != nil {
		return nil, err
	}

	duration := in.duration
	if duration == 0 {
		duration = cfg.DurationMinutes
	}
	request := Request{
		Time:            in.time,
		PartySize:       in.partySize,
		DurationMinutes: duration,
		BufferMinutes:   cfg.BufferMinutes,
		Channel:         in.channel,
		AreaAllowed:     cfg.AreaAllowed,
		PreferredAreaID: in.preferredAreaID,
		AllowMultiTable: locSettings.AllowMultiTable,
	}

	if in.reservationID == nil {
		floor, err := s.store.LoadFloor(ctx, in.locationID)
		if err != nil {
			return nil, err
		}
		bookings, err := s.store.Bookings(ctx, in.locationID, in.date)
		if err != nil {
			return nil, err
		}
		return newAssignTableResponse(ModeDryRun, Resolve(request, floor, bookings)), nil
	}

	return s.reassign(ctx, *in.reservationID, in.locationID, request, actorID)
}

// reassign commits a new table for a stored reservation. The stored date, time, party and
// duration win over the request.
func (s *service) reassign(ctx context.Context, id, locationID uuid.UUID, request Request, actorID string) (*AssignTableResponse, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.LocationID != locationID {
		return nil, errs.New(errs.CodeInvalidRequest, "reservation %s belongs to another location", id)
	}
	if !r.Status.HoldsTable() {
		return nil, errs.New(errs.CodeInvalidRequest, "reservation is %s and holds no table", r.Status).
			WithDetail("status", string(r.Status))
	}

	request.Time = r.StartTime
	request.PartySize = r.PartySize
	request.DurationMinutes = r.DurationMinutes
	request.BufferMinutes = r.BufferMinutes
	request.Channel = r.Channel
	request.ReservationID = &r.ID

	previous := r.TableIDs
	out, err := s.committer.Commit(ctx, r, request, true, func(tx *gorm.DB) error {
		return s.audit.WithTx(tx).Record(ctx, &audit.Entry{
			EntityType: audit.EntityReservation,
			EntityID:   r.ID,
			ActorID:    actorID,
			Action:     audit.ActionTableAssigned,
			Metadata: audit.JSONMap{
				"previous_table_ids": previous,
				"table_ids":          r.TableIDs,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if out.Assigned() {
		s.invalidateAvailability(ctx, r)
		e := notifications.NewEvent(notifications.EventTableAssigned, r.LocationID, r.ID)
		e.Date = r.Date.String()
		e.StartTime = r.StartTime.String()
		e.PartySize = r.PartySize
		e.ShiftID = r.ShiftID
		e.TicketID = r.TicketID
		e.TableIDs = r.TableIDs
		e.ActorID = actorID
		notifications.PublishAll(ctx, s.publisher, e)
	}
	return newAssignTableResponse(ModeCommit, out), nil
}

func (s *service) AssignNew(ctx context.Context, r *reservations.Reservation, preferredAreaID *uuid.UUID, onWrite func(tx *gorm.DB) error) (reservations.AssignResult, error) {
	locSettings, err := s.settings.Get(ctx, r.LocationID)
	if err != nil {
		return reservations.AssignResult{}, err
	}
	cfg, err := s.ticketConfig(ctx, r.LocationID, r.ShiftID, r.TicketID, locSettings)
	if err != nil {
		return reservations.AssignResult{}, err
	}

	out, err := s.committer.Commit(ctx, r, Request{
		Time:            r.StartTime,
		PartySize:       r.PartySize,
		DurationMinutes: r.DurationMinutes,
		BufferMinutes:   r.BufferMinutes,
		Channel:         r.Channel,
		AreaAllowed:     cfg.AreaAllowed,
		PreferredAreaID: preferredAreaID,
		AllowMultiTable: locSettings.AllowMultiTable,
	}, false, onWrite)
	if err != nil {
		return reservations.AssignResult{}, err
	}
	return reservations.AssignResult{Assigned: out.Assigned(), ReasonCode: out.Reason}, nil
}

func (s *service) ticketConfig(ctx context.Context, locationID, shiftID, ticketID uuid.UUID, locSettings *settings.ReservationSettings) (tickets.Config, error) {
	shift, err := s.schedule.GetShift(ctx, shiftID)
	if err != nil {
		return tickets.Config{}, err
	}
	if shift.LocationID != locationID {
		return tickets.Config{}, errs.New(errs.CodeInvalidRequest, "shift %s belongs to another location", shiftID)
	}
	st, err := s.tickets.GetForShift(ctx, shiftID, ticketID)
	if err != nil {
		return tickets.Config{}, err
	}
	return tickets.Resolve(st, shift.ArrivalInterval, locSettings)
}

func (s *service) invalidateAvailability(ctx context.Context, r *reservations.Reservation) {
	pattern := constants.BuildAvailabilityPattern(r.LocationID.String(), r.Date.String())
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.log.WithError(err).WarnContext(ctx, "failed to invalidate availability cache", slog.String("pattern", pattern))
	}
}

type assignInput struct {
	locationID      uuid.UUID
	date            civil.Date
	time            civil.TimeOfDay
	partySize       int
	duration        int
	shiftID         uuid.UUID
	ticketID        uuid.UUID
	reservationID   *uuid.UUID
	preferredAreaID *uuid.UUID
	channel         reservations.Channel
}

func parseAssignRequest(req AssignTableRequest) (assignInput, error) {
	var in assignInput
	var err error

	if in.locationID, err = uuid.Parse(req.LocationID); err != nil {
		return in, errs.Wrap(errs.CodeInvalidRequest, err, "invalid location_id")
	}
	if in.shiftID, err = uuid.Parse(req.ShiftID); err != nil {
		return in, errs.Wrap(errs.CodeInvalidRequest, err, "invalid shift_id")
	}
	if in.ticketID, err = uuid.Parse(req.TicketID); err != nil {
		return in, errs.Wrap(errs.CodeInvalidRequest, err, "invalid ticket_id")
	}
	if in.date, err = civil.ParseDate(req.Date); err != nil {
		return in, errs.Wrap(errs.CodeInvalidTime, err, "invalid date")
	}
	if in.time, err = civil.ParseTimeOfDay(req.Time); err != nil {
		return in, errs.Wrap(errs.CodeInvalidTime, err, "invalid time")
	}
	if req.PartySize < 1 {
		return in, errs.New(errs.CodeInvalidRequest, "party_size must be at least 1")
	}
	in.partySize = req.PartySize
	in.duration = req.DurationMinutes

	in.channel = reservations.ChannelOperator
	if req.Channel != "" {
		in.channel = reservations.Channel(req.Channel)
	}
	if !in.channel.IsValid() {
		return in, errs.New(errs.CodeInvalidRequest, "unknown channel %q", req.Channel)
	}

	if in.reservationID, err = parseOptionalID(req.ReservationID, "reservation_id"); err != nil {
		return in, err
	}
	if in.preferredAreaID, err = parseOptionalID(req.PreferredAreaID, "preferred_area_id"); err != nil {
		return in, err
	}
	return in, nil
}

func parseOptionalID(s *string, field string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidRequest, err, "invalid %s", field)
	}
	return &id, nil
}
