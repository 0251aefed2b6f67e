package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medagenda/api/internal/cache"
	"github.com/medagenda/api/internal/config"
	v1 "github.com/medagenda/api/internal/handler/v1"
	"github.com/medagenda/api/internal/notification"
	"github.com/medagenda/api/internal/repository/postgres"
	"github.com/medagenda/api/internal/schedule"
	"github.com/medagenda/api/internal/service"
	"github.com/medagenda/api/pkg/auth"
	"github.com/medagenda/api/pkg/database"
	"github.com/medagenda/api/pkg/logger"
	"github.com/medagenda/api/pkg/metrics"
	"github.com/medagenda/api/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	mx := metrics.NewCollector(cfg.App.Name)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	if sqlDB, err := db.DB(); err == nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					mx.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
				}
			}
		}()
	}

	grid, err := schedule.NewGrid(cfg.Schedule.StartHour, cfg.Schedule.EndHour)
	if err != nil {
		return err
	}

	var availCache service.AvailabilityCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewAvailabilityCache(cfg.Redis, log)
		if err != nil {
			// Cache is an optimization; boot without it rather than fail.
			log.Warn("redis unavailable, running without availability cache", zap.Error(err))
		} else {
			defer func() { _ = rc.Close() }()
			availCache = rc
		}
	}

	dispatcher := notification.NewDispatcher(cfg.Kafka, mx, log)
	defer dispatcher.Shutdown()

	apptRepo := postgres.NewAppointmentRepository(db)
	blockedRepo := postgres.NewBlockedTimeRepository(db)
	typeRepo := postgres.NewConsultationTypeRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	tx := postgres.NewTransactor(db)

	bookings := service.NewBookingService(
		tx, apptRepo, blockedRepo, availCache, dispatcher, mx, log,
		cfg.Booking.OpenTypeFallback,
	)
	availability := service.NewAvailabilityService(
		grid, apptRepo, blockedRepo, availCache, mx, log,
		cfg.Booking.CancelledBlocksSlot,
	)
	blockedTimes := service.NewBlockedTimeService(blockedRepo, apptRepo, availCache, log)
	consultationTypes := service.NewConsultationTypeService(typeRepo, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:           cfg,
		Logger:           log,
		Metrics:          mx,
		Verifier:         auth.NewVerifier(cfg.JWT),
		DB:               db,
		Appointments:     v1.NewAppointmentHandler(bookings, availability),
		BlockedTimes:     v1.NewBlockedTimeHandler(blockedTimes),
		ConsultationType: v1.NewConsultationTypeHandler(consultationTypes),
		Doctors:          v1.NewDoctorHandler(doctorRepo, consultationTypes),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
