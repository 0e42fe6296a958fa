package reservations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tablebook/internal/audit"
	"tablebook/internal/notifications"
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

// SlotChecker evaluates one explicit slot (implemented by the availability service;
// declared here to avoid circular dependency)
type SlotChecker interface {
	CheckSlot(ctx context.Context, q SlotQuery) (SlotDecision, error)
}

// AssignResult reports whether a table was committed for a new reservation.
type AssignResult struct {
	Assigned   bool
	ReasonCode string
}

// TableAssigner commits a table together with a new reservation (implemented by the
// assignment service). onWrite runs inside the committing transaction.
type TableAssigner interface {
	AssignNew(ctx context.Context, r *Reservation, preferredAreaID *uuid.UUID, onWrite func(tx *gorm.DB) error) (AssignResult, error)
}

// Service interface defines the contract for reservation lifecycle logic
type Service interface {
	Create(ctx context.Context, req CreateReservationRequest, actorID string) (*Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)
	Transition(ctx context.Context, id uuid.UUID, req TransitionRequest, actorID string) (*TransitionResponse, error)
	ExtendOption(ctx context.Context, id uuid.UUID, extraHours int, actorID string) (*ExtendOptionResponse, error)
	AuditTrail(ctx context.Context, id uuid.UUID) ([]audit.Entry, error)
	// ExpireOptions cancels up to limit pending reservations whose option has lapsed and
	// returns how many were cancelled.
	ExpireOptions(ctx context.Context, limit int) (int, error)
}

// Options carries the service's tunables.
type Options struct {
	DefaultOptionHours int
	Clock              func() time.Time
}

type service struct {
	repo      Repository
	audit     audit.Repository
	settings  settings.Repository
	slots     SlotChecker
	assigner  TableAssigner
	cache     cache.Service
	publisher notifications.Publisher
	log       *logger.Logger
	opts      Options
}

// NewService creates a new reservation service instance
func NewService(
	repo Repository,
	auditRepo audit.Repository,
	settingsRepo settings.Repository,
	slots SlotChecker,
	assigner TableAssigner,
	cacheService cache.Service,
	publisher notifications.Publisher,
	opts Options,
) Service {
	if opts.DefaultOptionHours == 0 {
		opts.DefaultOptionHours = DefaultExtraHours
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &service{
		repo:      repo,
		audit:     auditRepo,
		settings:  settingsRepo,
		slots:     slots,
		assigner:  assigner,
		cache:     cacheService,
		publisher: publisher,
		log:       logger.GetDefault(),
		opts:      opts,
	}
}

// Create validates the slot, then writes the reservation. With auto-assign on, the table
// is committed in the same transaction as the reservation row.
func (s *service) Create(ctx context.Context, req CreateReservationRequest, actorID string) (*Reservation, error) {
	q, preferredAreaID, err := parseCreateRequest(req)
	if err != nil {
		return nil, err
	}

	decision, err := s.slots.CheckSlot(ctx, q)
	if err != nil {
		return nil, err
	}
	if !decision.Bookable {
		return nil, errs.New(errs.CodeSlotUnavailable, "%s is not bookable for a party of %d", q.Time, q.PartySize).
			WithDetail("reason_code", decision.ReasonCode)
	}

	locSettings, err := s.settings.Get(ctx, q.LocationID)
	if err != nil {
		return nil, err
	}

	now := s.opts.Clock()
	res := &Reservation{
		ID:              uuid.New(),
		LocationID:      q.LocationID,
		Date:            q.Date,
		StartTime:       q.Time,
		DurationMinutes: decision.DurationMinutes,
		BufferMinutes:   decision.BufferMinutes,
		PartySize:       q.PartySize,
		ShiftID:         decision.ShiftID,
		TicketID:        decision.TicketID,
		Channel:         q.Channel,
		Status:          StatusConfirmed,
		IsSqueeze:       decision.IsSqueeze,
		GuestName:       req.GuestName,
		Notes:           req.Notes,
	}
	if req.IsOption {
		expiry := now.Add(time.Duration(s.opts.DefaultOptionHours) * time.Hour).UTC()
		res.Status = StatusPending
		res.OptionExpiresAt = &expiry
	}

	recordCreated := func(tx *gorm.DB) error {
		return s.audit.WithTx(tx).Record(ctx, &audit.Entry{
			EntityType: audit.EntityReservation,
			EntityID:   res.ID,
			ActorID:    actorID,
			Action:     audit.ActionCreated,
			ToStatus:   string(res.Status),
			Metadata: audit.JSONMap{
				"party_size": res.PartySize,
				"start_time": res.StartTime.String(),
				"channel":    string(res.Channel),
				"table_ids":  res.TableIDs,
				"is_squeeze": res.IsSqueeze,
			},
		})
	}

	if locSettings.AutoAssign {
		result, err := s.assigner.AssignNew(ctx, res, preferredAreaID, recordCreated)
		if err != nil {
			return nil, err
		}
		if !result.Assigned {
			return nil, errs.New(errs.CodeNoTableAvailable, "no table available for a party of %d at %s", q.PartySize, q.Time).
				WithDetail("reason_code", result.ReasonCode)
		}
	} else {
		err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, res); err != nil {
				return err
			}
			return recordCreated(tx)
		})
		if err != nil {
			return nil, err
		}
	}

	s.log.LogReservationCreated(ctx, res.ID.String(), res.LocationID.String(), string(res.Status), res.PartySize)
	s.invalidateAvailability(ctx, res)

	events := []*notifications.Event{newEvent(notifications.EventReservationCreated, res, actorID)}
	if res.IsAssigned() {
		events = append(events, newEvent(notifications.EventTableAssigned, res, actorID))
	}
	notifications.PublishAll(ctx, s.publisher, events...)
	return res, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.repo.GetByID(ctx, id)
}

// Transition moves a reservation to a new status under a row lock and audits the change.
func (s *service) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest, actorID string) (*TransitionResponse, error) {
	return s.transition(ctx, id, req, actorID, nil)
}

// errSkipTransition aborts a guarded transition without reporting an error.
var errSkipTransition = errors.New("transition skipped")

// transition moves one reservation under a row lock. A non-nil guard sees the locked row
// and may veto the move by returning false, in which case nil is returned.
func (s *service) transition(ctx context.Context, id uuid.UUID, req TransitionRequest, actorID string, guard func(r *Reservation, now time.Time) bool) (*TransitionResponse, error) {
	to := Status(req.NewStatus)
	var res *Reservation
	var from Status

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		r, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if guard != nil && !guard(r, s.opts.Clock().UTC()) {
			return errSkipTransition
		}
		if err := CheckTransition(r.Status, to, req.IsOverride, actorID); err != nil {
			return err
		}

		from = r.Status
		now := s.opts.Clock().UTC()
		updates := map[string]interface{}{"status": to}
		if to == StatusCancelled {
			updates["cancelled_at"] = now
			r.CancelledAt = &now
		}
		if from == StatusPending && r.OptionExpiresAt != nil {
			updates["option_expires_at"] = nil
			r.OptionExpiresAt = nil
		}
		// A reservation brought back from a released status no longer owns its old table;
		// another booking may hold it now. It returns unassigned.
		var metadata audit.JSONMap
		if !from.HoldsTable() && to.HoldsTable() && (r.IsAssigned() || len(r.TableIDs) > 0) {
			updates["table_id"] = nil
			updates["table_group_id"] = nil
			updates["table_ids"] = tickets.UUIDList(nil)
			metadata = audit.JSONMap{"released_table_ids": r.TableIDs}
			r.TableID, r.TableGroupID, r.TableIDs = nil, nil, nil
		}
		if err := repo.UpdateFields(ctx, r.ID, updates); err != nil {
			return err
		}

		action := audit.ActionStatusChange
		if req.IsOverride {
			action = audit.ActionStatusOverride
		}
		if err := s.audit.WithTx(tx).Record(ctx, &audit.Entry{
			EntityType: audit.EntityReservation,
			EntityID:   r.ID,
			ActorID:    actorID,
			Action:     action,
			FromStatus: string(from),
			ToStatus:   string(to),
			IsOverride: req.IsOverride,
			Reason:     req.Reason,
			Metadata:   metadata,
		}); err != nil {
			return err
		}

		r.Status = to
		res = r
		return nil
	})
	if errors.Is(err, errSkipTransition) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.LogStatusTransition(ctx, res.ID.String(), string(from), string(to), actorID, req.IsOverride)
	s.invalidateAvailability(ctx, res)

	changed := newEvent(notifications.EventStatusChanged, res, actorID)
	changed.FromStatus = string(from)
	changed.ToStatus = string(to)
	events := []*notifications.Event{changed}
	if to.FreesTable() && from.HoldsTable() {
		events = append(events, newEvent(notifications.EventSlotFreed, res, actorID))
	}
	notifications.PublishAll(ctx, s.publisher, events...)

	return &TransitionResponse{ReservationID: res.ID, FromStatus: from, Status: to, IsOverride: req.IsOverride}, nil
}

// ExtendOption pushes the expiry of a pending reservation forward.
func (s *service) ExtendOption(ctx context.Context, id uuid.UUID, extraHours int, actorID string) (*ExtendOptionResponse, error) {
	var res *Reservation
	var expiry time.Time

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		r, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusPending {
			return errs.New(errs.CodeNotOption, "reservation is %s, only pending options can be extended", r.Status).
				WithDetail("status", string(r.Status))
		}

		previous := r.OptionExpiresAt
		expiry, err = ExtendedExpiry(previous, s.opts.Clock(), extraHours)
		if err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, r.ID, map[string]interface{}{"option_expires_at": expiry}); err != nil {
			return err
		}

		metadata := audit.JSONMap{"extra_hours": extraHours, "option_expires_at": expiry.Format(time.RFC3339)}
		if previous != nil {
			metadata["previous_expires_at"] = previous.UTC().Format(time.RFC3339)
		}
		if err := s.audit.WithTx(tx).Record(ctx, &audit.Entry{
			EntityType: audit.EntityReservation,
			EntityID:   r.ID,
			ActorID:    actorID,
			Action:     audit.ActionOptionExtended,
			FromStatus: string(r.Status),
			ToStatus:   string(r.Status),
			Metadata:   metadata,
		}); err != nil {
			return err
		}

		r.OptionExpiresAt = &expiry
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifications.PublishAll(ctx, s.publisher, newEvent(notifications.EventOptionExtended, res, actorID))
	return &ExtendOptionResponse{ReservationID: res.ID, OptionExpiresAt: expiry}, nil
}

// OptionExpiryActor is recorded as the actor of cancellations made by the expiry sweep.
const OptionExpiryActor = "system:option-expiry"

func (s *service) ExpireOptions(ctx context.Context, limit int) (int, error) {
	now := s.opts.Clock().UTC()
	ids, err := s.repo.ListExpiredOptions(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	req := TransitionRequest{NewStatus: string(StatusCancelled), Reason: "option expired"}
	stillExpired := func(r *Reservation, now time.Time) bool {
		return r.Status == StatusPending && r.OptionExpiresAt != nil && !r.OptionExpiresAt.After(now)
	}

	expired := 0
	for _, id := range ids {
		resp, err := s.transition(ctx, id, req, OptionExpiryActor, stillExpired)
		if err != nil {
			s.log.ErrorWithContext(ctx, "failed to expire option", err, map[string]interface{}{"reservation_id": id.String()})
			continue
		}
		if resp != nil {
			expired++
		}
	}
	return expired, nil
}

func (s *service) AuditTrail(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.ListForEntity(ctx, audit.EntityReservation, id)
}

func (s *service) invalidateAvailability(ctx context.Context, r *Reservation) {
	pattern := constants.BuildAvailabilityPattern(r.LocationID.String(), r.Date.String())
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.log.WithError(err).WarnContext(ctx, "failed to invalidate availability cache", slog.String("pattern", pattern))
	}
}

func newEvent(eventType notifications.EventType, r *Reservation, actorID string) *notifications.Event {
	e := notifications.NewEvent(eventType, r.LocationID, r.ID)
	e.Date = r.Date.String()
	e.StartTime = r.StartTime.String()
	e.PartySize = r.PartySize
	e.ShiftID = r.ShiftID
	e.TicketID = r.TicketID
	e.TableIDs = r.TableIDs
	e.OptionExpiresAt = r.OptionExpiresAt
	e.ActorID = actorID
	return e
}

func parseCreateRequest(req CreateReservationRequest) (SlotQuery, *uuid.UUID, error) {
	var q SlotQuery
	var err error

	if q.LocationID, err = uuid.Parse(req.LocationID); err != nil {
		return q, nil, errs.Wrap(errs.CodeInvalidRequest, err, "invalid location_id")
	}
	if q.TicketID, err = uuid.Parse(req.TicketID); err != nil {
		return q, nil, errs.Wrap(errs.CodeInvalidRequest, err, "invalid ticket_id")
	}
	if q.Date, err = civil.ParseDate(req.Date); err != nil {
		return q, nil, errs.Wrap(errs.CodeInvalidTime, err, "invalid date")
	}
	if q.Time, err = civil.ParseTimeOfDay(req.Time); err != nil {
		return q, nil, errs.Wrap(errs.CodeInvalidTime, err, "invalid time")
	}
	if req.PartySize < 1 {
		return q, nil, errs.New(errs.CodeInvalidRequest, "party_size must be at least 1")
	}
	q.PartySize = req.PartySize

	q.Channel = ChannelOperator
	if req.Channel != "" {
		q.Channel = Channel(req.Channel)
	}
	if !q.Channel.IsValid() {
		return q, nil, errs.New(errs.CodeInvalidRequest, "unknown channel %q", req.Channel)
	}

	var preferred *uuid.UUID
	if req.PreferredAreaID != nil && *req.PreferredAreaID != "" {
		id, err := uuid.Parse(*req.PreferredAreaID)
		if err != nil {
			return q, nil, errs.Wrap(errs.CodeInvalidRequest, err, "invalid preferred_area_id")
		}
		preferred = &id
	}
	return q, preferred, nil
}
