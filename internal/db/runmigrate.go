package db

import (
	"os"

	"github.com/rs/zerolog/log"
)

// RunMigrations is a lightweight entry point you can invoke from tests or a small main.
// It respects the MIGRATIONS env var just like ConnectAndMigrate.
func RunMigrations() error {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil
	}
	if v := os.Getenv("MIGRATIONS"); v == "" {
		log.Info().Msg("MIGRATIONS no definido; se omiten las migraciones sql (AutoMigrate al arrancar)")
		return nil
	}
	log.Info().Msg("ejecutando migraciones sql explícitas")
	return runSQLMigrations(dsn)
}
