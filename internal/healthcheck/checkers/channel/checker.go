package channelchecker

import (
	"context"
	"log/slog"
	"time"

	"github.com/memohai/cinebot/internal/healthcheck"
)

const (
	checkTypeChannelConnection = "channel.connection"
	probeTimeout               = 5 * time.Second
)

// Prober verifies that the chat platform accepts the bot's credentials.
type Prober interface {
	Probe(ctx context.Context) error
}

// Checker evaluates the chat transport connection.
type Checker struct {
	logger  *slog.Logger
	prober  Prober
	channel string
}

// NewChecker creates a channel health checker for the named platform.
func NewChecker(log *slog.Logger, channelType string, prober Prober) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger:  log.With(slog.String("checker", "healthcheck_channel")),
		prober:  prober,
		channel: channelType,
	}
}

// ListChecks probes the transport once.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	item := healthcheck.CheckResult{
		ID:       checkTypeChannelConnection + "." + c.channel,
		Type:     checkTypeChannelConnection,
		Subtitle: c.channel,
		Status:   healthcheck.StatusError,
		Metadata: map[string]any{"channel_type": c.channel},
	}
	if c.prober == nil {
		item.Status = healthcheck.StatusWarn
		item.Summary = "Channel checker service is not available."
		item.Detail = "prober is nil"
		return []healthcheck.CheckResult{item}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := c.prober.Probe(ctx); err != nil {
		c.logger.Warn("channel probe failed", slog.String("channel_type", c.channel), slog.Any("error", err))
		item.Summary = "Channel " + c.channel + " connection failed."
		item.Detail = err.Error()
		return []healthcheck.CheckResult{item}
	}
	item.Status = healthcheck.StatusOK
	item.Summary = "Channel " + c.channel + " is connected."
	return []healthcheck.CheckResult{item}
}
