package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultPGHost           = "127.0.0.1"
	DefaultPGPort           = 5432
	DefaultPGUser           = "postgres"
	DefaultPGDatabase       = "cinebot"
	DefaultPGSSLMode        = "disable"
	DefaultPollTimeout      = 30
	DefaultRefreshSpec      = "@every 10m"
	DefaultDeleteAfter      = "600s"
	DefaultAckDeleteAfter   = "20s"
	DefaultBroadcastIdle    = "5m"
	DefaultMatchCacheSize   = 512
	DefaultMatchCacheTTL    = "2m"
	DefaultHighThreshold    = 95
	DefaultLowThreshold     = 80
	DefaultBroadThreshold   = 60
	DefaultSuggestionsLimit = 5
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Matcher   MatcherConfig   `toml:"matcher"`
	Delivery  DeliveryConfig  `toml:"delivery"`
	Gate      GateConfig      `toml:"gate"`
	Broadcast BroadcastConfig `toml:"broadcast"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `toml:"format" validate:"omitempty,oneof=text json"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type TelegramConfig struct {
	BotToken    string  `toml:"bot_token" validate:"required"`
	PollTimeout int     `toml:"poll_timeout" validate:"gte=0,lte=60"`
	AdminIDs    []int64 `toml:"admin_ids" validate:"min=1,dive,gt=0"`
	// UpdatesChannelURL is advertised in every poster and file caption.
	UpdatesChannelURL string `toml:"updates_channel_url" validate:"omitempty,url"`
	// UpdatesChannelID receives copies of admin posts in broadcast mode.
	UpdatesChannelID int64 `toml:"updates_channel_id"`
}

type PostgresConfig struct {
	Host     string `toml:"host" validate:"required"`
	Port     int    `toml:"port" validate:"gt=0,lte=65535"`
	User     string `toml:"user" validate:"required"`
	Password string `toml:"password"`
	Database string `toml:"database" validate:"required"`
	SSLMode  string `toml:"sslmode"`
}

// DSN renders the connection string understood by pgx.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// MigrateURL renders the URL understood by the golang-migrate pgx/v5 driver.
func (c PostgresConfig) MigrateURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type CatalogConfig struct {
	// RefreshSpec is a robfig/cron spec; empty disables periodic reloads.
	RefreshSpec string `toml:"refresh_spec"`
}

type MatcherConfig struct {
	HighThreshold    float64 `toml:"high_threshold" validate:"gtefield=LowThreshold,lte=100"`
	LowThreshold     float64 `toml:"low_threshold" validate:"gtefield=BroadThreshold"`
	BroadThreshold   float64 `toml:"broad_threshold" validate:"gte=0"`
	SuggestionsLimit int     `toml:"suggestions_limit" validate:"gt=0"`
	CacheSize        int     `toml:"cache_size" validate:"gte=0"`
	CacheTTL         string  `toml:"cache_ttl"`
}

type DeliveryConfig struct {
	DeleteAfter    string `toml:"delete_after"`
	AckDeleteAfter string `toml:"ack_delete_after"`
}

type GateConfig struct {
	// ChatID is the community whose members may receive files. Zero disables the gate.
	ChatID    int64  `toml:"chat_id"`
	InviteURL string `toml:"invite_url" validate:"omitempty,url"`
}

type BroadcastConfig struct {
	IdleTimeout string `toml:"idle_timeout"`
}

// DeleteAfterDuration returns the lifetime of delivered posters and files.
func (c DeliveryConfig) DeleteAfterDuration() time.Duration {
	return parseDurationOr(c.DeleteAfter, 600*time.Second)
}

// AckDeleteAfterDuration returns the lifetime of upload-flow acknowledgements.
func (c DeliveryConfig) AckDeleteAfterDuration() time.Duration {
	return parseDurationOr(c.AckDeleteAfter, 20*time.Second)
}

// CacheTTLDuration returns how long a match outcome stays cached.
func (c MatcherConfig) CacheTTLDuration() time.Duration {
	return parseDurationOr(c.CacheTTL, 2*time.Minute)
}

// IdleTimeoutDuration returns the broadcast-mode inactivity limit.
func (c BroadcastConfig) IdleTimeoutDuration() time.Duration {
	return parseDurationOr(c.IdleTimeout, 5*time.Minute)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks struct constraints and duration syntax.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	durations := map[string]string{
		"delivery.delete_after":     c.Delivery.DeleteAfter,
		"delivery.ack_delete_after": c.Delivery.AckDeleteAfter,
		"matcher.cache_ttl":         c.Matcher.CacheTTL,
		"broadcast.idle_timeout":    c.Broadcast.IdleTimeout,
	}
	for name, raw := range durations {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	return nil
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Telegram: TelegramConfig{
			PollTimeout: DefaultPollTimeout,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Catalog: CatalogConfig{
			RefreshSpec: DefaultRefreshSpec,
		},
		Matcher: MatcherConfig{
			HighThreshold:    DefaultHighThreshold,
			LowThreshold:     DefaultLowThreshold,
			BroadThreshold:   DefaultBroadThreshold,
			SuggestionsLimit: DefaultSuggestionsLimit,
			CacheSize:        DefaultMatchCacheSize,
			CacheTTL:         DefaultMatchCacheTTL,
		},
		Delivery: DeliveryConfig{
			DeleteAfter:    DefaultDeleteAfter,
			AckDeleteAfter: DefaultAckDeleteAfter,
		},
		Broadcast: BroadcastConfig{
			IdleTimeout: DefaultBroadcastIdle,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
