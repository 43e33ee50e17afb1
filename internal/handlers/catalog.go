package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/cinebot/internal/catalog"
)

// CatalogReader is the read side of catalog.Service.
type CatalogReader interface {
	Snapshot() *catalog.Snapshot
	Stats(ctx context.Context) (catalog.Stats, error)
}

type CatalogHandler struct {
	logger  *slog.Logger
	catalog CatalogReader
}

type catalogStatsResponse struct {
	Total        int        `json:"total"`
	Cached       int        `json:"cached"`
	Generation   uint64     `json:"generation"`
	LoadedAt     *time.Time `json:"loaded_at,omitempty"`
	LastTitle    string     `json:"last_title,omitempty"`
	LastUploadAt *time.Time `json:"last_upload_at,omitempty"`
}

func NewCatalogHandler(log *slog.Logger, reader CatalogReader) *CatalogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogHandler{logger: log.With(slog.String("handler", "catalog")), catalog: reader}
}

func (h *CatalogHandler) Register(e *echo.Echo) {
	e.GET("/catalog/stats", h.Stats)
}

func (h *CatalogHandler) Stats(c echo.Context) error {
	stats, err := h.catalog.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("load catalog stats failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "catalog store unavailable")
	}
	snap := h.catalog.Snapshot()
	resp := catalogStatsResponse{
		Total:      stats.Total,
		Cached:     snap.Len(),
		Generation: snap.Generation(),
		LastTitle:  stats.LastTitle,
	}
	if loaded := snap.LoadedAt(); !loaded.IsZero() {
		resp.LoadedAt = &loaded
	}
	if !stats.LastUpload.IsZero() {
		resp.LastUploadAt = &stats.LastUpload
	}
	return c.JSON(http.StatusOK, resp)
}
