package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the Postgres-only partial indexes the schedule and the committer rely on
func MigrateConstraints(db *gorm.DB) error {
	// At most one location-wide exception per date
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_shift_exceptions_location_date
		ON shift_exceptions (location_id, date)
		WHERE shift_id IS NULL;
	`).Error
	if err != nil {
		return err
	}

	// At most one exception per shift per date
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_shift_exceptions_shift_date
		ON shift_exceptions (shift_id, date)
		WHERE shift_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	// Overlap checks only look at reservations that still hold a table
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservations_active_location_date
		ON reservations (location_id, date, start_time)
		WHERE status NOT IN ('completed', 'cancelled', 'no_show');
	`).Error
	if err != nil {
		return err
	}

	return nil
}
