package config

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string

	// APIBaseURL is the upstream distributor API (inventario, convenios,
	// clientes, pedidos).
	APIBaseURL string

	// EnforceStockLimit caps cart quantities at the available existencia.
	// Historically off: the distributor accepts over-stock orders and
	// reconciles at dispatch.
	EnforceStockLimit bool
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN") // empty => sqlite dev file
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.APIBaseURL = getEnv("API_BASE_URL", "http://localhost:8000")
	cfg.EnforceStockLimit = ParseBool("ENFORCE_STOCK_LIMIT", false)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Warn().Str("var", key).Str("valor", v).Msg("booleano inválido en el entorno")
			return def
		}
		return b
	}
	return def
}
