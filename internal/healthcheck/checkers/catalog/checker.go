package catalogchecker

import (
	"context"
	"fmt"
	"time"

	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/healthcheck"
)

const checkTypeSnapshot = "catalog.snapshot"

// SnapshotSource exposes the current catalog snapshot.
type SnapshotSource interface {
	Snapshot() *catalog.Snapshot
}

// Checker reports whether the in-memory catalog was loaded recently.
type Checker struct {
	source SnapshotSource
	maxAge time.Duration
	now    func() time.Time
}

// NewChecker warns once the snapshot is older than maxAge. A zero maxAge
// only requires that a snapshot was loaded.
func NewChecker(source SnapshotSource, maxAge time.Duration) *Checker {
	return &Checker{source: source, maxAge: maxAge, now: time.Now}
}

func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	item := healthcheck.CheckResult{ID: checkTypeSnapshot, Type: checkTypeSnapshot, Status: healthcheck.StatusWarn}
	if c.source == nil {
		item.Summary = "Catalog is not available."
		return []healthcheck.CheckResult{item}
	}
	snap := c.source.Snapshot()
	if snap.Generation() == 0 {
		item.Summary = "Catalog has not been loaded yet."
		return []healthcheck.CheckResult{item}
	}
	age := c.now().Sub(snap.LoadedAt())
	item.Metadata = map[string]any{
		"generation":  snap.Generation(),
		"entries":     snap.Len(),
		"age_seconds": int64(age.Seconds()),
	}
	if c.maxAge > 0 && age > c.maxAge {
		item.Summary = fmt.Sprintf("Catalog snapshot is %s old.", age.Truncate(time.Second))
		return []healthcheck.CheckResult{item}
	}
	item.Status = healthcheck.StatusOK
	item.Summary = fmt.Sprintf("Catalog holds %d entries.", snap.Len())
	return []healthcheck.CheckResult{item}
}
