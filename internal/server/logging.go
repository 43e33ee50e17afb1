package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4/middleware"

	"github.com/memohai/cinebot/internal/logger"
)

func logRequest(ctx context.Context, v middleware.RequestLoggerValues) {
	attrs := []slog.Attr{
		slog.String("method", v.Method),
		slog.String("uri", v.URI),
		slog.Int("status", v.Status),
		slog.Duration("latency", v.Latency),
	}
	if v.Error != nil {
		attrs = append(attrs, slog.Any("error", v.Error))
		logger.L.LogAttrs(ctx, slog.LevelWarn, "http request", attrs...)
		return
	}
	logger.L.LogAttrs(ctx, slog.LevelDebug, "http request", attrs...)
}
