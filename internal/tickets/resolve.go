package tickets

import (
	"tablebook/internal/settings"
	"tablebook/internal/shared/errs"
	"tablebook/pkg/civil"

	"github.com/google/uuid"
)

// SqueezeConfig is the resolved squeeze configuration of a shift ticket.
type SqueezeConfig struct {
	Enabled         bool             `json:"enabled"`
	DurationMinutes int              `json:"duration_minutes"`
	GapMinutes      int              `json:"gap_minutes"`
	FixedEndTime    *civil.TimeOfDay `json:"fixed_end_time,omitempty"`
	// LimitPerShift of 0 means no limit.
	LimitPerShift int `json:"limit_per_shift"`
}

// Config is a ticket as offered on one shift, with every override applied.
type Config struct {
	TicketID        uuid.UUID  `json:"ticket_id"`
	ShiftTicketID   uuid.UUID  `json:"shift_ticket_id"`
	ShiftID         uuid.UUID  `json:"shift_id"`
	TicketName      string     `json:"ticket_name"`
	PolicyID        *uuid.UUID `json:"policy_id,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	BufferMinutes   int        `json:"buffer_minutes"`
	MinPartySize    int        `json:"min_party_size"`
	MaxPartySize    int        `json:"max_party_size"`
	ArrivalInterval int        `json:"arrival_interval"`

	PacingLimit              *int        `json:"pacing_limit,omitempty"`
	PacingUnit               PacingUnit  `json:"pacing_unit"`
	SeatingLimitGuests       *int        `json:"seating_limit_guests,omitempty"`
	SeatingLimitReservations *int        `json:"seating_limit_reservations,omitempty"`
	IgnorePacing             bool        `json:"ignore_pacing"`
	AllowedAreaIDs           []uuid.UUID `json:"allowed_area_ids,omitempty"`

	Squeeze         SqueezeConfig `json:"squeeze"`
	WaitlistEnabled bool          `json:"waitlist_enabled"`
}

// AcceptsParty reports whether partySize lies within the resolved party range.
func (c *Config) AcceptsParty(partySize int) bool {
	return partySize >= c.MinPartySize && partySize <= c.MaxPartySize
}

// AreaAllowed reports whether the ticket may be seated in the area. An empty allow list
// admits every area.
func (c *Config) AreaAllowed(areaID uuid.UUID) bool {
	if len(c.AllowedAreaIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedAreaIDs {
		if id == areaID {
			return true
		}
	}
	return false
}

// Resolve merges a shift ticket's overrides over its ticket and the location settings.
// Missing or inconsistent configuration is reported as invalid_config, never defaulted.
func Resolve(st *ShiftTicket, shiftArrivalInterval int, s *settings.ReservationSettings) (Config, error) {
	if st == nil {
		return Config{}, errs.New(errs.CodeInvalidConfig, "ticket is not offered on this shift")
	}
	if st.Ticket == nil {
		return Config{}, errs.New(errs.CodeInvalidConfig, "shift ticket %s has no ticket loaded", st.ID).
			WithDetail("shift_ticket_id", st.ID.String())
	}
	if err := Validate(st.Ticket); err != nil {
		return Config{}, err
	}
	if err := Validate(st); err != nil {
		return Config{}, err
	}
	t := st.Ticket

	cfg := Config{
		TicketID:                 t.ID,
		ShiftTicketID:            st.ID,
		ShiftID:                  st.ShiftID,
		TicketName:               t.Name,
		PolicyID:                 t.PolicyID,
		DurationMinutes:          pick(st.DurationMinutes, t.DurationMinutes),
		BufferMinutes:            pick(st.BufferMinutes, t.BufferMinutes),
		MinPartySize:             pick(st.MinPartySize, t.MinPartySize),
		MaxPartySize:             pick(st.MaxPartySize, t.MaxPartySize),
		ArrivalInterval:          pick(st.ArrivalInterval, shiftArrivalInterval),
		PacingLimit:              st.PacingLimit,
		PacingUnit:               st.PacingUnit,
		SeatingLimitGuests:       st.SeatingLimitGuests,
		SeatingLimitReservations: st.SeatingLimitReservations,
		IgnorePacing:             st.IgnorePacing,
		AllowedAreaIDs:           []uuid.UUID(st.AllowedAreaIDs),
		WaitlistEnabled:          st.WaitlistEnabled,
	}
	if cfg.PacingUnit == "" {
		cfg.PacingUnit = PacingGuests
	}

	if s != nil {
		if cfg.DurationMinutes == 0 {
			cfg.DurationMinutes = s.DefaultDuration
		}
		if st.BufferMinutes == nil && t.BufferMinutes == 0 {
			cfg.BufferMinutes = s.DefaultBuffer
		}
		cfg.Squeeze = SqueezeConfig{
			Enabled:         s.SqueezeEnabled,
			DurationMinutes: s.SqueezeDuration,
			GapMinutes:      s.SqueezeGap,
			LimitPerShift:   s.SqueezeLimitPerShift,
		}
	}
	if st.SqueezeEnabled != nil {
		cfg.Squeeze.Enabled = *st.SqueezeEnabled
	}
	cfg.Squeeze.DurationMinutes = pick(st.SqueezeDurationMinutes, cfg.Squeeze.DurationMinutes)
	cfg.Squeeze.GapMinutes = pick(st.SqueezeGapMinutes, cfg.Squeeze.GapMinutes)
	cfg.Squeeze.LimitPerShift = pick(st.SqueezeLimitPerShift, cfg.Squeeze.LimitPerShift)
	cfg.Squeeze.FixedEndTime = st.SqueezeFixedEndTime

	if cfg.DurationMinutes <= 0 {
		return Config{}, configErr(st, "duration_minutes", "ticket %q has no duration and no default is set", t.Name)
	}
	if cfg.MinPartySize < 1 || cfg.MaxPartySize < cfg.MinPartySize {
		return Config{}, configErr(st, "party_size", "party range [%d,%d] is invalid", cfg.MinPartySize, cfg.MaxPartySize)
	}
	switch cfg.ArrivalInterval {
	case 15, 30, 60:
	default:
		return Config{}, configErr(st, "arrival_interval", "arrival interval %d is not one of 15, 30, 60", cfg.ArrivalInterval)
	}
	if cfg.Squeeze.Enabled {
		if cfg.Squeeze.DurationMinutes <= 0 || cfg.Squeeze.DurationMinutes >= cfg.DurationMinutes {
			return Config{}, configErr(st, "squeeze_duration_minutes",
				"squeeze duration %d must be positive and shorter than %d", cfg.Squeeze.DurationMinutes, cfg.DurationMinutes)
		}
		if cfg.Squeeze.FixedEndTime != nil && !cfg.Squeeze.FixedEndTime.Valid() {
			return Config{}, configErr(st, "squeeze_fixed_end_time", "squeeze fixed end time is out of range")
		}
	}
	return cfg, nil
}

func pick(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}

func configErr(st *ShiftTicket, field, format string, args ...interface{}) error {
	return errs.New(errs.CodeInvalidConfig, format, args...).
		WithDetail("shift_ticket_id", st.ID.String()).
		WithDetail("field", field)
}
