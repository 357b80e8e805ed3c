package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicdesk/platform/internal/api/router"
	"github.com/clinicdesk/platform/internal/app/bootstrap"
	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/booking"
	"github.com/clinicdesk/platform/internal/calendar"
	"github.com/clinicdesk/platform/internal/clients"
	appconfig "github.com/clinicdesk/platform/internal/config"
	"github.com/clinicdesk/platform/internal/observability/metrics"
	"github.com/clinicdesk/platform/internal/reminders"
	"github.com/clinicdesk/platform/internal/scheduling"
	"github.com/clinicdesk/platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinicdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"conflict_scope", cfg.ConflictScope,
	)

	ctx := context.Background()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	pool := bootstrap.BuildPgxPool(ctx, cfg, logger)
	stores := bootstrap.BuildStores(cfg, pool, redisClient, logger)

	// In-memory mode reloads the last archive and keeps snapshotting in the
	// background until shutdown.
	snapCtx, stopSnapshots := context.WithCancel(ctx)
	snapshotDone := make(chan struct{})
	if stores.Snapshot != nil {
		if err := stores.Snapshot.Restore(ctx); err != nil {
			logger.Error("failed to restore snapshot", "error", err)
			os.Exit(1)
		}
		go func() {
			defer close(snapshotDone)
			stores.Snapshot.Run(snapCtx)
		}()
	} else {
		close(snapshotDone)
	}

	roster := appointments.Roster(cfg.Doctors)
	hours := scheduling.BusinessHours{Open: cfg.ClinicOpen, Close: cfg.ClinicClose}
	calc := scheduling.NewCalculator(hours, cfg.SlotMinutes, cfg.ConflictScope, stores.Appointments)
	locks := scheduling.NewDayLocks(cfg.ConflictScope)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	coordinator := booking.NewCoordinator(stores.Clients, stores.Appointments, calc, locks, roster, bookingMetrics, logger.Component("booking"))

	reminderBuilder, err := reminders.NewBuilder(stores.Appointments, stores.Clients, cfg.DefaultCountryCode, cfg.ReminderTemplate)
	if err != nil {
		logger.Error("invalid reminder template", "error", err)
		os.Exit(1)
	}

	r := router.New(&router.Config{
		Logger: logger,
		ClientsHandler: clients.NewHandler(stores.Clients, stores.Appointments, logger).
			WithCascadeObserver(bookingMetrics),
		AppointmentsHandler:  appointments.NewHandler(stores.Appointments, coordinator, roster, logger),
		BookingHandler:       booking.NewHandler(coordinator, cfg.RequestTimeout, logger),
		AvailabilityHandler:  scheduling.NewHandler(calc, logger),
		CalendarHandler:      calendar.NewHandler(stores.Appointments, stores.Clients, nil, logger),
		ReminderHandler:      reminders.NewHandler(reminderBuilder, logger),
		MetricsHandler:       promhttp.Handler(),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		BookingRatePerSecond: 5,
		BookingBurst:         10,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Stop the snapshot loop; it takes a final snapshot before exiting.
	stopSnapshots()
	<-snapshotDone

	if pool != nil {
		pool.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("server stopped")
}
