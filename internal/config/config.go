// internal/config/config.go
//
// Environment-driven configuration for the woodoku environment service.
// Responsibilities:
//   - Read settings from the process environment (main loads .env first).
//   - Apply development defaults for anything unset.
//   - Translate the default environment strategy names into env.Config.

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/woodoku-env/internal/env"
)

// Config holds every tunable read at startup.
type Config struct {
	Port          string
	DBPath        string
	LogLevel      string
	SessionSecret string
	SessionTTL    time.Duration
	DailySalt     string
	ShapesFile    string
	ClientOrigin  string
	Env           env.Config // defaults for sessions that do not pick strategies
}

// Load reads the environment. Malformed numbers fall back to defaults.
func Load() Config {
	ttlHours := 24
	if v := getEnv("SESSION_TTL_HOURS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttlHours = n
		} else {
			log.Warn().Str("SESSION_TTL_HOURS", v).Msg("ignoring invalid value")
		}
	}

	def := env.DefaultConfig()
	return Config{
		Port:          getEnv("PORT", "5175"),
		DBPath:        getEnv("DB_PATH", "./data/woodoku.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SessionSecret: getEnv("SESSION_SECRET", "dev_secret_change_me"),
		SessionTTL:    time.Duration(ttlHours) * time.Hour,
		DailySalt:     getEnv("DAILY_SALT", "local_dev_salt"),
		ShapesFile:    getEnv("SHAPES_FILE", ""),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Env: env.Config{
			ActionCodec: getEnv("ENV_ACTION_CODEC", def.ActionCodec),
			StateCodec:  getEnv("ENV_STATE_CODEC", def.StateCodec),
			Policy:      getEnv("ENV_COMMIT_POLICY", def.Policy),
		},
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
