package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsurePinIndexes adds the lookup indexes the routing hot path depends on.
// Postgres only; SQLite test databases rely on the gorm tag indexes.
func EnsurePinIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_offer_geo_carrier_active", `
			CREATE INDEX IF NOT EXISTS idx_offer_geo_carrier_active
			ON offer(geo, carrier)
			WHERE active;
		`},
		{"idx_publisher_offer_publisher_active", `
			CREATE INDEX IF NOT EXISTS idx_publisher_offer_publisher_active
			ON publisher_offer(publisher_id)
			WHERE active;
		`},
		{"idx_pin_session_status_created", `
			CREATE INDEX IF NOT EXISTS idx_pin_session_status_created
			ON pin_session(status, created_at DESC);
		`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
