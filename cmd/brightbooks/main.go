package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brightbooks-hq/brightbooks/internal/app"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/groups"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/journal"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/periods"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/reports"
	"github.com/brightbooks-hq/brightbooks/internal/observability"
	"github.com/brightbooks-hq/brightbooks/internal/platform/cache"
	"github.com/brightbooks-hq/brightbooks/internal/platform/db"
	"github.com/brightbooks-hq/brightbooks/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis backs the report cache only; the server still serves without it.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL, logger)

	accountsRepo := accounts.NewRepository(pool)
	groupsRepo := groups.NewRepository(pool)
	periodsRepo := periods.NewRepository(pool)
	journalRepo := journal.NewRepository(pool)
	reportsRepo := reports.NewRepository(pool)

	groupsService := groups.NewService(groupsRepo, accountsRepo, auditLogger)
	accountsService := accounts.NewService(accountsRepo, groupsService, auditLogger)
	periodsService := periods.NewService(periodsRepo, auditLogger)
	journalService := journal.NewService(journalRepo, auditLogger, metrics, reportCache)
	reportsService := reports.NewService(reportsRepo, accountsRepo, reportCache)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		GroupsHandler:   groups.NewHandler(logger, groupsService),
		AccountsHandler: accounts.NewHandler(logger, accountsService),
		PeriodsHandler:  periods.NewHandler(logger, periodsService),
		JournalHandler:  journal.NewHandler(logger, journalService),
		ReportsHandler:  reports.NewHandler(logger, reportsService),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
