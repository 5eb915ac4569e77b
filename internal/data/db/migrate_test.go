package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestAutoMigrateAllOnSQLite(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"offer", "publisher_offer", "pin_session", "advertiser_metric", "daily_hit", "conversion"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	if err := EnsurePinIndexes(gdb); err != nil {
		t.Fatalf("EnsurePinIndexes on sqlite should be a no-op: %v", err)
	}
}

func TestPostgresConfigDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "pin"}
	if got := cfg.dsn(); got != "postgres://u:p@db:5432/pin?sslmode=disable" {
		t.Fatalf("dsn=%q", got)
	}
	cfg.DSN = "postgres://override"
	if got := cfg.dsn(); got != "postgres://override" {
		t.Fatalf("dsn override=%q", got)
	}
}
