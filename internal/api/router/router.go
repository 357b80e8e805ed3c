// Package router assembles the HTTP surface from the feature handlers.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/booking"
	"github.com/clinicdesk/platform/internal/calendar"
	"github.com/clinicdesk/platform/internal/clients"
	httpmiddleware "github.com/clinicdesk/platform/internal/http/middleware"
	"github.com/clinicdesk/platform/internal/reminders"
	"github.com/clinicdesk/platform/internal/scheduling"
	"github.com/clinicdesk/platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	ClientsHandler      *clients.Handler
	AppointmentsHandler *appointments.Handler
	BookingHandler      *booking.Handler
	AvailabilityHandler *scheduling.Handler
	CalendarHandler     *calendar.Handler
	ReminderHandler     *reminders.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// BookingRatePerSecond throttles the public booking endpoint; zero
	// disables the limiter.
	BookingRatePerSecond float64
	BookingBurst         int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ClientsHandler != nil {
		r.Route("/clients", func(sub chi.Router) {
			sub.Post("/", cfg.ClientsHandler.Create)
			sub.Get("/", cfg.ClientsHandler.List)
			sub.Get("/{id}", cfg.ClientsHandler.Get)
			sub.Put("/{id}", cfg.ClientsHandler.Update)
			sub.Delete("/{id}", cfg.ClientsHandler.Delete)
			if cfg.AppointmentsHandler != nil {
				sub.Get("/{id}/appointments", cfg.AppointmentsHandler.ByClient)
			}
		})
	}
	if cfg.AppointmentsHandler != nil {
		r.Route("/appointments", func(sub chi.Router) {
			sub.Post("/", cfg.AppointmentsHandler.Create)
			sub.Get("/", cfg.AppointmentsHandler.List)
			sub.Get("/{id}", cfg.AppointmentsHandler.Get)
			sub.Put("/{id}", cfg.AppointmentsHandler.Update)
			sub.Delete("/{id}", cfg.AppointmentsHandler.Delete)
			if cfg.ReminderHandler != nil {
				sub.Get("/{id}/reminder", cfg.ReminderHandler.Get)
			}
		})
		r.Get("/doctors", cfg.AppointmentsHandler.Doctors)
		r.Get("/treatments", cfg.AppointmentsHandler.ListTreatments)
	}
	if cfg.BookingHandler != nil {
		book := http.HandlerFunc(cfg.BookingHandler.BookForNewClient)
		if cfg.BookingRatePerSecond > 0 {
			limited := httpmiddleware.RateLimit(cfg.BookingRatePerSecond, cfg.BookingBurst)(book)
			r.Method(http.MethodPost, "/bookings", limited)
		} else {
			r.Post("/bookings", book)
		}
	}
	if cfg.AvailabilityHandler != nil {
		r.Get("/availability", cfg.AvailabilityHandler.Availability)
	}
	if cfg.CalendarHandler != nil {
		r.Mount("/calendar", cfg.CalendarHandler.Routes())
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
