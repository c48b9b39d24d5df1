package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/piggy/internal/config"
	"github.com/MrJamesThe3rd/piggy/internal/export"
	piggyHttp "github.com/MrJamesThe3rd/piggy/internal/http"
	"github.com/MrJamesThe3rd/piggy/internal/http/api"
	exportHandler "github.com/MrJamesThe3rd/piggy/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/piggy/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/piggy/internal/http/matching"
	overviewHandler "github.com/MrJamesThe3rd/piggy/internal/http/overview"
	planHandler "github.com/MrJamesThe3rd/piggy/internal/http/plan"
	storageHandler "github.com/MrJamesThe3rd/piggy/internal/http/storage"
	"github.com/MrJamesThe3rd/piggy/internal/importer"
	"github.com/MrJamesThe3rd/piggy/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/piggy/internal/matching/store"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
	planStore "github.com/MrJamesThe3rd/piggy/internal/plan/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	var (
		planService     = plan.NewService(planStore.New(cfg.Storage.DataDir))
		matchingService = matching.NewService(matchingStore.New(cfg.AliasesPath()))
		importService   = importer.NewService()
		exportService   = export.NewService(planService)
		autosave        = api.NewAutosave(planService, cfg.Storage.Autosave)
	)

	loaded, errs := planService.LoadAll(context.Background())
	for _, msg := range errs {
		slog.Warn("failed to load plan", "error", msg)
	}

	if n := planService.UpdateOverdueStatus(plan.Today()); n > 0 {
		slog.Info("marked installments overdue", "count", n)
	}

	slog.Info("loaded plans", "count", loaded, "dir", cfg.Storage.DataDir)

	var (
		planH     = planHandler.NewHandler(planService, autosave)
		overviewH = overviewHandler.NewHandler(planService, cfg.Overview.UpcomingDays, cfg.Overview.Periods)
		importH   = importHandler.NewHandler(importService, planService, matchingService, autosave)
		matchingH = matchingHandler.NewHandler(matchingService)
		exportH   = exportHandler.NewHandler(exportService)
		storageH  = storageHandler.NewHandler(planService)
	)

	router := piggyHttp.New(piggyHttp.Options{
		AllowedOrigins: cfg.API.AllowedOrigins,
		JWTSecret:      cfg.API.JWTSecret,
		Timeout:        cfg.Server.Timeout,
	}, planH, overviewH, importH, matchingH, exportH, storageH)

	if cfg.API.JWTSecret == "" {
		slog.Warn("API_JWT_SECRET is not set, the API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "port", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}

	if planService.HasUnsavedChanges() {
		saved, errs := planService.SaveAll(shutdownCtx)
		for _, msg := range errs {
			slog.Error("failed to save plan", "error", msg)
		}

		slog.Info("saved plans", "count", saved)
	}
}
