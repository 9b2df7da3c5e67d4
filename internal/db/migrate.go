package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quimifarma/pedidos-app/internal/models"
)

// ConnectAndMigrate opens the database and brings the schema up to date.
// With an empty DATABASE_DSN it falls back to a local sqlite file, which is
// the development default; postgres is expected in production.
func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	if dsn == "" {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "pedidos.db"
		}
		log.Info().Str("ruta", path).Msg("DATABASE_DSN vacío, usando sqlite local")
		db, err = gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("abrir sqlite: %w", err)
		}
	} else {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			log.Warn().Err(err).Int("intento", i+1).Msg("reintentando conexión a la base de datos")
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
	}

	// Basic connectivity test
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if dsn != "" {
		// Masked DSN once for diagnostics (before migrations for visibility)
		masked := dsn
		if strings.Contains(masked, "password=") {
			re := regexp.MustCompile(`(password=)([^\s]+)`)
			masked = re.ReplaceAllString(masked, `${1}***`)
		}
		log.Info().Str("dsn", masked).Msg("conexión a la base de datos establecida")
	}

	// If MIGRATIONS=1 (or true) we run sql migrations via golang-migrate; otherwise keep AutoMigrate fallback (dev convenience)
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); dsn != "" && (v == "1" || v == "true" || v == "yes") {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		modelsToMigrate := []interface{}{
			&models.Usuario{}, &models.EstadoSesion{},
		}
		for _, m := range modelsToMigrate {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"usuarios", "estado_sesions"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	// Seeding only when explicitly requested (e.g. development) via DB_SEED=1|true
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

// seed creates a development login when none exists. Safe to call twice.
func seed(db *gorm.DB) {
	const email = "dev@quimifarma.local"
	var existing models.Usuario
	if err := db.Where("email = ?", email).First(&existing).Error; err != gorm.ErrRecordNotFound {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("devpassword"), bcrypt.DefaultCost)
	if err != nil {
		log.Warn().Err(err).Msg("seed: no se pudo generar el hash")
		return
	}
	u := models.Usuario{
		Email:       email,
		Password:    string(hash),
		RIF:         "J-00000000-0",
		Descripcion: "Usuario de desarrollo",
	}
	if err := db.Create(&u).Error; err != nil {
		log.Warn().Err(err).Msg("seed: no se pudo crear el usuario de desarrollo")
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	// golang-migrate wants the URL form; convert key=value DSNs first
	m, err := migrate.New("file://migrations", ToURLDSN(dsn))
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
