package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config regroupe la configuration lue depuis l'environnement (.env compris).
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Environment    string   `env:"ENVIRONMENT" envDefault:"development"`
	DatabaseDriver string   `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	JWTSecret  string `env:"JWT_SECRET"`
	CronSecret string `env:"CRON_SECRET"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromEmail    string `env:"FROM_EMAIL" envDefault:"noreply@budgetfamille.com"`

	NotificationLocale string        `env:"NOTIFICATION_LOCALE" envDefault:"fr"`
	InvitationTTL      time.Duration `env:"INVITATION_TTL" envDefault:"72h"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`

	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load parse l'environnement dans une Config et vérifie les champs obligatoires.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the API cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.InvitationTTL <= 0 {
		return fmt.Errorf("INVITATION_TTL must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// Origins retourne les origines CORS autorisées, frontend inclus.
func (c Config) Origins() []string {
	origins := []string{c.FrontendURL}
	for _, origin := range c.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == c.FrontendURL {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
