package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/platform/pkg/logging"
)

// AppointmentCanceler removes all appointments belonging to a client.
// The appointments package implements it; deleting a client cascades
// through this hook so no orphaned appointment survives.
type AppointmentCanceler interface {
	DeleteByClient(ctx context.Context, clientID string) (int, error)
}

// CascadeObserver records how many appointments a client deletion removed.
type CascadeObserver interface {
	ObserveCascade(count int)
}

// Handler handles HTTP requests for client records.
type Handler struct {
	repo     Repository
	canceler AppointmentCanceler
	observer CascadeObserver
	logger   *logging.Logger
}

// NewHandler creates a new clients handler.
func NewHandler(repo Repository, canceler AppointmentCanceler, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, canceler: canceler, logger: logger}
}

// WithCascadeObserver attaches a metrics sink for cascade deletions.
func (h *Handler) WithCascadeObserver(o CascadeObserver) *Handler {
	h.observer = o
	return h
}

// Routes returns a chi router with client CRUD routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// Create handles POST /clients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	client, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create client", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("client created", "id", client.ID)
	writeJSON(w, http.StatusCreated, client)
}

// Get handles GET /clients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	client, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get client", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// Update handles PUT /clients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	client, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update client", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// Delete handles DELETE /clients/{id}. The client's appointments are removed
// first so a crash between the two steps cannot leave an orphaned appointment.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.canceler != nil {
		removed, err := h.canceler.DeleteByClient(r.Context(), id)
		if err != nil {
			h.logger.Error("failed to cascade appointments", "client_id", id, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if removed > 0 {
			h.logger.Info("cascade deleted appointments", "client_id", id, "count", removed)
			if h.observer != nil {
				h.observer.ObserveCascade(removed)
			}
		}
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete client", "client_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListClientsResponse is the response for listing clients.
type ListClientsResponse struct {
	Clients []*Client `json:"clients"`
	Count   int       `json:"count"`
}

// List handles GET /clients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list clients", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListClientsResponse{Clients: list, Count: len(list)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
