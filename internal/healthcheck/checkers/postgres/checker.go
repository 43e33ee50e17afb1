package pgchecker

import (
	"context"
	"log/slog"
	"time"

	"github.com/memohai/cinebot/internal/healthcheck"
)

const (
	checkTypePostgres = "store.postgres"
	pingTimeout       = 3 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker evaluates reachability of the catalog database.
type Checker struct {
	logger *slog.Logger
	db     Pinger
}

func NewChecker(log *slog.Logger, db Pinger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{logger: log.With(slog.String("checker", "healthcheck_postgres")), db: db}
}

func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	item := healthcheck.CheckResult{ID: checkTypePostgres, Type: checkTypePostgres}
	if c.db == nil {
		item.Status = healthcheck.StatusWarn
		item.Summary = "Database is not configured."
		return []healthcheck.CheckResult{item}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	start := time.Now()
	if err := c.db.Ping(ctx); err != nil {
		c.logger.Warn("postgres ping failed", slog.Any("error", err))
		item.Status = healthcheck.StatusError
		item.Summary = "Database is unreachable."
		item.Detail = err.Error()
		return []healthcheck.CheckResult{item}
	}
	item.Status = healthcheck.StatusOK
	item.Summary = "Database is reachable."
	item.Metadata = map[string]any{"latency_ms": time.Since(start).Milliseconds()}
	return []healthcheck.CheckResult{item}
}
