package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr          string `env:"MMM_ADDR" envDefault:":8080"`
	DatabasePath  string `env:"MMM_DATABASE_PATH" envDefault:"mmm.db"`
	MigrationsURL string `env:"MMM_MIGRATIONS_URL" envDefault:"file://migrations"`

	// Shared secret for the admin session login
	AdminSecret string `env:"MMM_ADMIN_SECRET" envDefault:"dev-key-not-for-production"`

	// Tournament year the server operates on; zero means the current year
	Year int `env:"MMM_YEAR"`

	OddsAPIKey        string        `env:"MMM_ODDS_API_KEY"`
	EnableLiveScores  bool          `env:"MMM_ENABLE_LIVE_SCORES" envDefault:"true"`
	EnableLiveSpreads bool          `env:"MMM_ENABLE_LIVE_SPREADS" envDefault:"true"`
	RefreshInterval   time.Duration `env:"MMM_REFRESH_INTERVAL" envDefault:"5m"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Year == 0 {
		cfg.Year = time.Now().UTC().Year()
	}
	return cfg, nil
}
