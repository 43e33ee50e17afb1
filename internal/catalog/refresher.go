package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher reloads the snapshot on a cron schedule so edits made directly
// in the store become visible.
type Refresher struct {
	cron    *cron.Cron
	service *Service
	logger  *slog.Logger
	timeout time.Duration
}

// NewRefresher parses spec (standard cron or @every descriptors). An empty
// spec yields a Refresher whose Start and Stop are no-ops.
func NewRefresher(log *slog.Logger, service *Service, spec string) (*Refresher, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Refresher{
		service: service,
		logger:  log.With(slog.String("component", "catalog_refresher")),
		timeout: 30 * time.Second,
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return r, nil
	}
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("catalog refresh spec %q: %w", spec, err)
	}
	return r, nil
}

// Start begins scheduling.
func (r *Refresher) Start() {
	if r.cron == nil {
		r.logger.Info("periodic refresh disabled")
		return
	}
	r.cron.Start()
}

// Stop halts scheduling and waits for a running reload to finish or ctx to end.
func (r *Refresher) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	done := r.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.service.Reload(ctx); err != nil {
		r.logger.Warn("scheduled reload failed", slog.Any("error", err))
	}
}
