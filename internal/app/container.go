// Package app builds the engine's services from shared connections. The HTTP router and the
// support CLI both wire through it.
package app

import (
	"tablebook/internal/assignment"
	"tablebook/internal/audit"
	"tablebook/internal/availability"
	"tablebook/internal/floorplan"
	"tablebook/internal/notifications"
	"tablebook/internal/reservations"
	"tablebook/internal/schedule"
	"tablebook/internal/settings"
	"tablebook/internal/shared/config"
	"tablebook/internal/shared/database"
	"tablebook/internal/tickets"
	"tablebook/pkg/cache"
)

// Container holds the repositories and services of one process
type Container struct {
	Schedule     schedule.Service
	ScheduleRepo schedule.Repository
	Tickets      tickets.Repository
	Settings     settings.Repository
	Floors       floorplan.Repository
	Reservations reservations.Repository
	Audit        audit.Repository
	Cache        cache.Service

	Availability       availability.Service
	Assignment         assignment.Service
	ReservationService reservations.Service
}

// Build wires every service. A nil publisher drops domain events.
func Build(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Container {
	gdb := db.GetSQL()
	redisClient := db.GetRedisClient()

	c := &Container{
		ScheduleRepo: schedule.NewRepository(gdb),
		Tickets:      tickets.NewRepository(gdb),
		Settings:     settings.NewRepository(gdb, cfg.Engine.DefaultTimezone),
		Floors:       floorplan.NewRepository(gdb),
		Reservations: reservations.NewRepository(gdb),
		Audit:        audit.NewRepository(gdb),
		Cache:        cache.NewService(redisClient),
	}
	c.Schedule = schedule.NewService(c.ScheduleRepo)

	c.Availability = availability.NewService(c.Schedule, c.Tickets, c.Settings, c.Floors, c.Reservations, c.Cache,
		availability.Options{CacheTTL: cfg.Engine.AvailabilityCacheTTL})

	// Redis locks serialise commits across instances; a single process can lock in memory
	var locker assignment.Locker
	if redisClient != nil {
		locker = assignment.NewRedisLocker(redisClient)
	} else {
		locker = assignment.NewLocalLocker()
	}
	store := assignment.NewStore(gdb, c.Floors)
	committer := assignment.NewCommitter(store, locker, assignment.CommitterConfig{
		MaxAttempts: cfg.Engine.CommitMaxAttempts,
		Backoff:     cfg.Engine.CommitBackoff,
		LockTTL:     cfg.Engine.LockTTL,
	})
	c.Assignment = assignment.NewService(committer, store, c.Schedule, c.Tickets, c.Settings, c.Reservations,
		c.Audit, c.Cache, publisher)

	c.ReservationService = reservations.NewService(c.Reservations, c.Audit, c.Settings, c.Availability,
		c.Assignment, c.Cache, publisher, reservations.Options{DefaultOptionHours: cfg.Engine.DefaultOptionHours})

	return c
}
