package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
	"github.com/clinicdesk/platform/internal/scheduling"
	"github.com/clinicdesk/platform/pkg/logging"
)

// Handler exposes the walk-in booking transaction over HTTP.
type Handler struct {
	coordinator *Coordinator
	timeout     time.Duration
	logger      *logging.Logger
}

// NewHandler creates a booking handler. A timed-out attempt is reported
// failed-and-not-committed.
func NewHandler(coordinator *Coordinator, timeout time.Duration, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{coordinator: coordinator, timeout: timeout, logger: logger}
}

// BookForNewClient handles POST /bookings.
func (h *Handler) BookForNewClient(w http.ResponseWriter, r *http.Request) {
	var req BookForNewClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.coordinator.BookForNewClient(ctx, &req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("booking failed", "error", err)
		}
		var partial *PartialFailureError
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error":     "appointment creation failed after client was created",
				"client_id": partial.ClientID,
			})
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// statusFor maps the error taxonomy onto HTTP statuses:
// validation 400, conflict 409, not found 404, partial failure 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, scheduling.ErrOutsideHours),
		errors.Is(err, appointments.ErrMissingDate),
		errors.Is(err, appointments.ErrMissingClient),
		errors.Is(err, appointments.ErrUnknownTreatment),
		errors.Is(err, appointments.ErrUnknownDoctor),
		errors.Is(err, clients.ErrMissingName),
		errors.Is(err, clients.ErrMissingContact):
		return http.StatusBadRequest
	case errors.Is(err, clients.ErrClientNotFound),
		errors.Is(err, appointments.ErrAppointmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
