package database

import (
	"tablebook/internal/audit"
	"tablebook/internal/floorplan"
	"tablebook/internal/reservations"
	"tablebook/internal/schedule"
	"tablebook/internal/settings"
	"tablebook/internal/tickets"

	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&settings.ReservationSettings{},
		&schedule.Shift{},
		&schedule.ShiftException{},
		&tickets.Ticket{},
		&tickets.ShiftTicket{},
		&floorplan.Area{},
		&floorplan.Table{},
		&floorplan.TableGroup{},
		&reservations.Reservation{},
		&audit.Entry{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
