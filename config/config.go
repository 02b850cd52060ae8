package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/ErlanBelekov/boss-notifier/internal/command"
	"github.com/ErlanBelekov/boss-notifier/internal/domain"
)

type Config struct {
	Env         string `env:"ENV"          envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT"         envDefault:"3000"  validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"  validate:"oneof=debug info warn error"`

	LineChannelSecret      string `env:"LINE_CHANNEL_SECRET"       validate:"required"`
	LineChannelAccessToken string `env:"LINE_CHANNEL_ACCESS_TOKEN" validate:"required"`
	NotifyTarget           string `env:"NOTIFY_TARGET" envDefault:"user" validate:"oneof=user group both"`
	LineUserID             string `env:"LINE_USER_ID"  validate:"required_if=NotifyTarget user,required_if=NotifyTarget both"`
	LineGroupID            string `env:"LINE_GROUP_ID" validate:"required_if=NotifyTarget group,required_if=NotifyTarget both"`

	StoreBackend          string `env:"STORE_BACKEND"     envDefault:"sheets" validate:"oneof=sheets postgres"`
	GoogleSheetID         string `env:"GOOGLE_SHEET_ID"   validate:"required_if=StoreBackend sheets"`
	GoogleSheetName       string `env:"GOOGLE_SHEET_NAME" envDefault:"Sheet1"`
	GoogleCredentialsJSON string `env:"GOOGLE_CREDENTIALS_JSON"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
	DatabaseURL           string `env:"DATABASE_URL" validate:"required_if=StoreBackend postgres"`

	LeadTimeMinutes int      `env:"LEAD_TIME_MINUTES" envDefault:"30"`
	Timezone        string   `env:"TIMEZONE"          envDefault:"Asia/Bangkok"`
	RefreshCron     string   `env:"REFRESH_CRON"`
	ReminderPhrases []string `env:"REMINDER_PHRASES"  envSeparator:","`

	ResendAPIKey string   `env:"RESEND_API_KEY"`
	ResendFrom   string   `env:"RESEND_FROM"   validate:"omitempty,email"`
	NotifyEmails []string `env:"NOTIFY_EMAILS" envSeparator:"," validate:"dive,email"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore is Load for tools that only talk to the entity store; bot
// credentials are not required.
func LoadStore() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err := validator.New().StructPartial(cfg,
		"Env", "LogLevel", "StoreBackend", "GoogleSheetID", "DatabaseURL",
	)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) check() error {
	if c.StoreBackend == "sheets" && c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
		return fmt.Errorf("invalid config: GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE is required for the sheets backend")
	}
	if c.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			return fmt.Errorf("invalid config: REFRESH_CRON: %w", err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: TIMEZONE: %w", err)
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LeadTime falls back to the default when unset or non-positive.
func (c *Config) LeadTime() time.Duration {
	if c.LeadTimeMinutes <= 0 {
		return domain.DefaultLeadTime
	}
	return time.Duration(c.LeadTimeMinutes) * time.Minute
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CredentialsJSON returns the service account key, inline value first.
func (c *Config) CredentialsJSON() ([]byte, error) {
	if c.GoogleCredentialsJSON != "" {
		return []byte(c.GoogleCredentialsJSON), nil
	}
	b, err := os.ReadFile(c.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials file: %v", domain.ErrStoreUnavailable, err)
	}
	return b, nil
}

func (c *Config) Grammar() command.Grammar {
	g := command.DefaultGrammar()
	var phrases []string
	for _, p := range c.ReminderPhrases {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	if len(phrases) > 0 {
		g.ReminderPhrases = phrases
	}
	return g
}
