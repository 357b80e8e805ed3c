package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/platform/internal/clients"
	"github.com/clinicdesk/platform/pkg/logging"
)

// Scheduler guards appointment writes with the slot-availability check and
// the per-day lock. The booking coordinator implements it; the handler never
// bypasses it to mutate rows directly.
type Scheduler interface {
	Schedule(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
	Reschedule(ctx context.Context, appt *Appointment) (*Appointment, error)
}

// Handler handles HTTP requests for appointments.
type Handler struct {
	repo      Repository
	scheduler Scheduler
	roster    Roster
	logger    *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(repo Repository, scheduler Scheduler, roster Roster, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, scheduler: scheduler, roster: roster, logger: logger}
}

// Routes returns a chi router with appointment CRUD routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// Create handles POST /appointments for existing clients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.scheduler.Schedule(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("appointment created", "id", appt.ID, "client_id", appt.ClientID, "date", appt.Date)
	writeJSON(w, http.StatusCreated, appt)
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update handles PUT /appointments/{id}. The moved appointment goes through
// the scheduler so the target slot is checked with this appointment excluded.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	current, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if req.Date != nil {
		current.Date = *req.Date
	}
	if req.Treatment != nil {
		treatment, err := ParseTreatment(*req.Treatment)
		if err != nil {
			h.writeError(w, err)
			return
		}
		current.Treatment = treatment
	}
	if req.Doctor != nil {
		doctor, err := h.roster.Parse(*req.Doctor)
		if err != nil {
			h.writeError(w, err)
			return
		}
		current.Doctor = doctor
	}
	if req.Notes != nil {
		current.Notes = *req.Notes
	}

	updated, err := h.scheduler.Reschedule(r.Context(), current)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /appointments/{id}; deleting an unknown id is a no-op.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Error("failed to delete appointment", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAppointmentsResponse is the response for listing appointments.
type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.All(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListAppointmentsResponse{Appointments: list, Count: len(list)})
}

// ByClient handles GET /clients/{id}/appointments, most recent first.
func (h *Handler) ByClient(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ByClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("failed to list client appointments", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListAppointmentsResponse{Appointments: list, Count: len(list)})
}

// DoctorsResponse lists the bookable roster for UI dropdowns.
type DoctorsResponse struct {
	Doctors []string `json:"doctors"`
}

// Doctors handles GET /doctors.
func (h *Handler) Doctors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DoctorsResponse{Doctors: h.roster})
}

// TreatmentsResponse lists the valid treatments.
type TreatmentsResponse struct {
	Treatments []Treatment `json:"treatments"`
}

// ListTreatments handles GET /treatments.
func (h *Handler) ListTreatments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TreatmentsResponse{Treatments: Treatments()})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, clients.ErrClientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrOutsideHours),
		errors.Is(err, ErrMissingClient),
		errors.Is(err, ErrMissingDate),
		errors.Is(err, ErrUnknownTreatment),
		errors.Is(err, ErrUnknownDoctor):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("appointment request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
