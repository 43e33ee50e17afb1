package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebot_catalog_reloads_total",
		Help: "Catalog snapshot reloads by result.",
	}, []string{"result"})
	entriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cinebot_catalog_entries",
		Help: "Distinct titles in the current catalog snapshot.",
	})
)

// Service owns the catalog snapshot. Every mutation writes to the store
// first and then swaps in a freshly loaded snapshot.
type Service struct {
	store    Store
	logger   *slog.Logger
	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
	gen      uint64
	now      func() time.Time
}

// NewService creates a Service with an empty snapshot; call Reload to populate it.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:  store,
		logger: log.With(slog.String("service", "catalog")),
		now:    time.Now,
	}
	s.current.Store(NewSnapshot(0, nil, time.Time{}))
	return s
}

// Snapshot returns the current immutable snapshot.
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reload rebuilds the snapshot from the store. On failure the previous
// snapshot stays in place.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	records, err := s.store.SelectAll(ctx)
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("catalog reload failed", slog.Any("error", err))
		return s.current.Load(), fmt.Errorf("reload catalog: %w", err)
	}
	s.gen++
	snap := NewSnapshot(s.gen, records, s.now())
	s.current.Store(snap)
	reloadsTotal.WithLabelValues("ok").Inc()
	entriesGauge.Set(float64(snap.Len()))
	s.logger.Info("catalog reloaded", slog.Int("entries", snap.Len()), slog.Uint64("generation", snap.Generation()))
	return snap, nil
}

// Add stores a new entry under the normalized form of title.
func (s *Service) Add(ctx context.Context, title, posterRef string, files map[Variant]string) (Entry, error) {
	key := Normalize(title)
	if key == "" {
		return Entry{}, ErrEmptyKey
	}
	rec, err := s.store.Insert(ctx, Record{Title: key, PosterRef: posterRef, Files: files})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("catalog entry added", slog.String("key", key), slog.String("id", rec.ID))
	s.reloadAfterMutation(ctx)
	return Entry{Key: key, PosterRef: rec.PosterRef, Variants: rec.Files, UploadedAt: rec.UploadedAt}, nil
}

// Rename changes the key of an existing entry. It returns both normalized keys.
func (s *Service) Rename(ctx context.Context, oldTitle, newTitle string) (string, string, error) {
	oldKey, newKey := Normalize(oldTitle), Normalize(newTitle)
	if oldKey == "" || newKey == "" {
		return oldKey, newKey, ErrEmptyKey
	}
	if _, err := s.store.UpdateTitle(ctx, oldKey, newKey); err != nil {
		return oldKey, newKey, err
	}
	s.logger.Info("catalog entry renamed", slog.String("from", oldKey), slog.String("to", newKey))
	s.reloadAfterMutation(ctx)
	return oldKey, newKey, nil
}

// Delete removes the entry for title and returns its normalized key.
func (s *Service) Delete(ctx context.Context, title string) (string, error) {
	key := Normalize(title)
	if key == "" {
		return key, ErrEmptyKey
	}
	if _, err := s.store.Delete(ctx, key); err != nil {
		return key, err
	}
	s.logger.Info("catalog entry deleted", slog.String("key", key))
	s.reloadAfterMutation(ctx)
	return key, nil
}

// Page lists titles alphabetically. page starts at 1.
func (s *Service) Page(ctx context.Context, page, perPage int) (titles []string, totalPages int, err error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, 0, err
	}
	titles, err = s.store.ListTitles(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	return titles, (stats.Total + perPage - 1) / perPage, nil
}

// Stats reports store-level figures.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// A failed reload after a successful write leaves the old snapshot; the
// periodic refresher catches up.
func (s *Service) reloadAfterMutation(ctx context.Context) {
	if _, err := s.Reload(ctx); err != nil {
		s.logger.Warn("snapshot left stale after mutation", slog.Any("error", err))
	}
}
