package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/activity-tracker-go/internal/api"
	"github.com/jengzang/activity-tracker-go/internal/config"
	"github.com/jengzang/activity-tracker-go/internal/database"
	"github.com/jengzang/activity-tracker-go/internal/handler"
	"github.com/jengzang/activity-tracker-go/internal/location"
	"github.com/jengzang/activity-tracker-go/internal/notify"
	"github.com/jengzang/activity-tracker-go/internal/repository"
	"github.com/jengzang/activity-tracker-go/internal/service"
	"github.com/jengzang/activity-tracker-go/internal/stream"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracking HTTP server",
	Long:  `Start the HTTP API that drives the tracking session and serves the activity history.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting activity tracker")

	db, err := database.Open(database.Config{Path: cfg.Database.Path}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database")
		}
	}()

	repo := repository.NewActivityRepository(db)

	source := location.NewPushSource(location.Config{
		Buffer:            cfg.Location.Buffer,
		ForegroundGranted: cfg.Location.ForegroundGranted,
		BackgroundGranted: cfg.Location.BackgroundGranted,
	}, logger)

	broker := tracking.NewBroker()
	machine := tracking.NewMachine(repo, source, tracking.Options{
		MinDistanceMeters: cfg.Tracking.MinDistanceMeters,
		PersistTimeout:    cfg.Tracking.PersistTimeout,
		Broker:            broker,
	}, logger)
	coordinator := tracking.NewCoordinator(machine, source, tracking.SubscribeConfig{
		Accuracy:          cfg.Location.Accuracy,
		MinIntervalMs:     cfg.Location.MinIntervalMs,
		MinDistanceMeters: cfg.Location.MinDistanceMeters,
	}, logger)
	defer coordinator.Close()

	activities, err := service.NewActivityService(repo, coordinator, cfg.Cache.Size, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, relay will retry on publish")
		}
		go stream.NewRelay(client, broker, cfg.Redis.ChannelPrefix, logger).Run(ctx)
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.SetupRouter(cfg, api.Handlers{
		Tracking:   handler.NewTrackingHandler(coordinator, broker, source, notify.NewDispatcher(coordinator, logger)),
		Activities: handler.NewActivityHandler(activities),
	}, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Port).Msg("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, gracefully stopping...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error stopping HTTP server")
	}

	// finalize a session left running
	if coordinator.IsTracking() {
		summary, err := coordinator.Stop(shutdownCtx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to finalize running session")
		} else if summary != nil {
			logger.Info().
				Int64("session_id", summary.SessionID).
				Float64("distance_km", summary.DistanceKm).
				Msg("Running session finalized on shutdown")
		}
	}

	logger.Info().Msg("Activity tracker stopped")
	return nil
}
