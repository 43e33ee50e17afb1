package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/cinebot/internal/bot"
	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/channel"
	"github.com/memohai/cinebot/internal/channel/adapters/telegram"
	"github.com/memohai/cinebot/internal/config"
	"github.com/memohai/cinebot/internal/db"
	"github.com/memohai/cinebot/internal/ephemeral"
	"github.com/memohai/cinebot/internal/gate"
	"github.com/memohai/cinebot/internal/handlers"
	"github.com/memohai/cinebot/internal/handoff"
	"github.com/memohai/cinebot/internal/healthcheck"
	catalogchecker "github.com/memohai/cinebot/internal/healthcheck/checkers/catalog"
	channelchecker "github.com/memohai/cinebot/internal/healthcheck/checkers/channel"
	pgchecker "github.com/memohai/cinebot/internal/healthcheck/checkers/postgres"
	"github.com/memohai/cinebot/internal/logger"
	"github.com/memohai/cinebot/internal/match"
	"github.com/memohai/cinebot/internal/server"
	"github.com/memohai/cinebot/internal/session"
	"github.com/memohai/cinebot/internal/version"
)

const (
	dispatcherQueueSize   = 64
	catalogSnapshotMaxAge = time.Hour
)

func runServe(cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			provideLogger,
			provideDBConn,
			provideCatalogStore,
			catalog.NewService,
			provideRefresher,
			provideTelegram,
			provideGate,
			provideMatcher,
			provideMatchCache,
			ephemeral.NewScheduler,
			provideReaper,
			session.NewUploads,
			handoff.NewPendingStore,
			provideBot,
			provideDispatcher,
			provideHealthSuite,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewHealthHandler),
			provideServerHandler(handlers.NewMetricsHandler),
			provideServerHandler(provideCatalogHandler),
			provideServer,
		),
		fx.Invoke(
			startCatalog,
			startBot,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	app.Run()
	return app.Err()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres.MigrateURL(), db.Up, log); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	conn, err := db.Open(context.Background(), cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideCatalogStore(conn *pgxpool.Pool) catalog.Store { return catalog.NewPostgresStore(conn) }

func provideRefresher(log *slog.Logger, service *catalog.Service, cfg config.Config) (*catalog.Refresher, error) {
	return catalog.NewRefresher(log, service, cfg.Catalog.RefreshSpec)
}

func provideTelegram(log *slog.Logger, cfg config.Config) (*telegram.Adapter, error) {
	return telegram.New(log, cfg.Telegram.BotToken, cfg.Telegram.PollTimeout)
}

func provideGate(log *slog.Logger, adapter *telegram.Adapter, cfg config.Config) *gate.Gate {
	return gate.New(log, adapter, cfg.Gate.ChatID)
}

func provideMatcher(cfg config.Config) *match.Matcher {
	return match.NewMatcher(match.LevenshteinScorer{}, match.Thresholds{
		High:             cfg.Matcher.HighThreshold,
		Low:              cfg.Matcher.LowThreshold,
		Broad:            cfg.Matcher.BroadThreshold,
		SuggestionsLimit: cfg.Matcher.SuggestionsLimit,
	})
}

func provideMatchCache(cfg config.Config) *match.Cache {
	return match.NewCache(cfg.Matcher.CacheSize, cfg.Matcher.CacheTTLDuration())
}

func provideReaper(log *slog.Logger, scheduler *ephemeral.Scheduler, adapter *telegram.Adapter) *ephemeral.Reaper {
	return ephemeral.NewReaper(log, scheduler, adapter)
}

type botParams struct {
	fx.In
	Logger     *slog.Logger
	Config     config.Config
	Adapter    *telegram.Adapter
	Catalog    *catalog.Service
	Matcher    *match.Matcher
	Cache      *match.Cache
	Gate       *gate.Gate
	Scheduler  *ephemeral.Scheduler
	Reaper     *ephemeral.Reaper
	Uploads    *session.Uploads
	Pending    *handoff.PendingStore
	Shutdowner fx.Shutdowner
}

func provideBot(p botParams) *bot.Bot {
	return bot.New(bot.Deps{
		Logger:    p.Logger,
		Transport: p.Adapter,
		Catalog:   p.Catalog,
		Matcher:   p.Matcher,
		Cache:     p.Cache,
		Gate:      p.Gate,
		Scheduler: p.Scheduler,
		Reaper:    p.Reaper,
		Uploads:   p.Uploads,
		Pending:   p.Pending,
		Admins:    bot.NewAdminSet(p.Config.Telegram.AdminIDs),
		Restart: func() {
			if err := p.Shutdowner.Shutdown(); err != nil {
				p.Logger.Error("shutdown failed", slog.Any("error", err))
			}
		},
		Settings: bot.Settings{
			DeleteAfter:       p.Config.Delivery.DeleteAfterDuration(),
			AckDeleteAfter:    p.Config.Delivery.AckDeleteAfterDuration(),
			BroadcastIdle:     p.Config.Broadcast.IdleTimeoutDuration(),
			UpdatesChannelURL: p.Config.Telegram.UpdatesChannelURL,
			UpdatesChannelID:  p.Config.Telegram.UpdatesChannelID,
			InviteURL:         p.Config.Gate.InviteURL,
		},
	})
}

func provideDispatcher(log *slog.Logger, b *bot.Bot) *channel.Dispatcher {
	return channel.NewDispatcher(log, b.Handle, dispatcherQueueSize)
}

func provideHealthSuite(log *slog.Logger, conn *pgxpool.Pool, adapter *telegram.Adapter, service *catalog.Service, cfg config.Config) *healthcheck.Suite {
	maxAge := catalogSnapshotMaxAge
	if cfg.Catalog.RefreshSpec == "" {
		maxAge = 0
	}
	return healthcheck.NewSuite(
		pgchecker.NewChecker(log, conn),
		channelchecker.NewChecker(log, "telegram", adapter),
		catalogchecker.NewChecker(service, maxAge),
	)
}

func provideCatalogHandler(log *slog.Logger, service *catalog.Service) *handlers.CatalogHandler {
	return handlers.NewCatalogHandler(log, service)
}

type serverParams struct {
	fx.In
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(p serverParams) *server.Server {
	return server.NewServer(p.Config.Server.Addr, p.ServerHandlers...)
}

func startCatalog(lc fx.Lifecycle, log *slog.Logger, service *catalog.Service, refresher *catalog.Refresher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// An empty snapshot is served until the next refresh succeeds.
			if _, err := service.Reload(ctx); err != nil {
				log.Warn("initial catalog load failed", slog.Any("error", err))
			}
			refresher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			refresher.Stop(ctx)
			return nil
		},
	})
}

func startBot(lc fx.Lifecycle, log *slog.Logger, adapter *telegram.Adapter, dispatcher *channel.Dispatcher, scheduler *ephemeral.Scheduler, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				if err := adapter.Receive(ctx, dispatcher.Dispatch); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("telegram receive failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			dispatcher.Close(stopCtx)
			scheduler.Stop()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting cinebot", slog.String("version", version.GetInfo()), slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
