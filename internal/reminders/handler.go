package reminders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
	"github.com/clinicdesk/platform/pkg/logging"
)

// Handler serves reminder payloads to the dispatcher.
type Handler struct {
	builder *Builder
	logger  *logging.Logger
}

func NewHandler(builder *Builder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{builder: builder, logger: logger}
}

// Get handles GET /appointments/{id}/reminder.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payload, err := h.builder.Build(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointments.ErrAppointmentNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, clients.ErrClientNotFound):
		http.Error(w, "client not found", http.StatusNotFound)
	case errors.Is(err, ErrNoPhone):
		http.Error(w, ErrNoPhone.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("reminder build failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
