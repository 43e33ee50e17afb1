package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultPGDatabase, cfg.Postgres.Database)
	assert.Equal(t, float64(DefaultHighThreshold), cfg.Matcher.HighThreshold)
	assert.Equal(t, 600*time.Second, cfg.Delivery.DeleteAfterDuration())
	assert.Equal(t, 20*time.Second, cfg.Delivery.AckDeleteAfterDuration())
	assert.Equal(t, 5*time.Minute, cfg.Broadcast.IdleTimeoutDuration())
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[telegram]
bot_token = "123:abc"
admin_ids = [42, 43]
updates_channel_url = "https://t.me/updates"

[delivery]
delete_after = "20s"

[gate]
chat_id = -100123
invite_url = "https://t.me/+invite"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{42, 43}, cfg.Telegram.AdminIDs)
	assert.Equal(t, int64(-100123), cfg.Gate.ChatID)
	assert.Equal(t, 20*time.Second, cfg.Delivery.DeleteAfterDuration())
	// untouched sections keep their defaults
	assert.Equal(t, DefaultPGHost, cfg.Postgres.Host)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[telegram\nbot_token="), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
		require.NoError(t, err)
		cfg.Telegram.BotToken = "token"
		cfg.Telegram.AdminIDs = []int64{1}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults with token", mutate: func(*Config) {}, ok: true},
		{name: "missing token", mutate: func(c *Config) { c.Telegram.BotToken = "" }},
		{name: "no admins", mutate: func(c *Config) { c.Telegram.AdminIDs = nil }},
		{name: "high below low", mutate: func(c *Config) { c.Matcher.HighThreshold = 70 }},
		{name: "bad duration", mutate: func(c *Config) { c.Delivery.DeleteAfter = "ten minutes" }},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestPostgresURLs(t *testing.T) {
	t.Parallel()

	pg := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/d?sslmode=disable", pg.DSN())
	assert.Equal(t, "pgx5://u:p@db:5433/d?sslmode=disable", pg.MigrateURL())
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2*time.Minute, MatcherConfig{CacheTTL: "-1s"}.CacheTTLDuration())
	assert.Equal(t, 600*time.Second, DeliveryConfig{DeleteAfter: "nope"}.DeleteAfterDuration())
}
