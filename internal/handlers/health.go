package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/cinebot/internal/healthcheck"
)

// HealthHandler serves the detailed dependency report.
type HealthHandler struct {
	logger *slog.Logger
	suite  *healthcheck.Suite
}

func NewHealthHandler(log *slog.Logger, suite *healthcheck.Suite) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{logger: log.With(slog.String("handler", "health")), suite: suite}
}

func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
}

// Health answers 503 when any check reports an error.
func (h *HealthHandler) Health(c echo.Context) error {
	report := h.suite.Run(c.Request().Context())
	code := http.StatusOK
	if report.Status == healthcheck.StatusError {
		code = http.StatusServiceUnavailable
		h.logger.Warn("health check failed", slog.Int("checks", len(report.Checks)))
	}
	return c.JSON(code, report)
}
