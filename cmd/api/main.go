package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-rollup-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-rollup-go/internal/repository/postgresql"
	rollupService "github.com/cmlabs-hris/hris-rollup-go/internal/service/rollup"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-rollup"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	names, err := rollupService.NewNameCollator(cfg.Rollup.Locale)
	if err != nil {
		return fmt.Errorf("rollup locale: %w", err)
	}

	summaryRepo := postgresql.NewEmployeeSummaryRepository(db)
	hub := sse.NewHub()

	rollupSvc := rollupService.NewRollupService(summaryRepo, hub, names, rollupService.Options{
		SnapshotTTL:        cfg.Rollup.SnapshotTTL,
		MaxLimit:           cfg.Rollup.LeaderboardLimit,
		RefreshConcurrency: cfg.Rollup.RefreshConcurrency,
	})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.StreamExpiration)

	rollupHandler := appHTTP.NewRollupHandler(rollupSvc, JWTService)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.App.AllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, rollupHandler)

	scheduler := cron.NewScheduler(ctx)
	cron.NewRollupJobs(rollupSvc, cfg.Rollup.RefreshInterval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// SSE streams end when the signal context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
