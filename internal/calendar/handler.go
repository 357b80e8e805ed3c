package calendar

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
	"github.com/clinicdesk/platform/pkg/logging"
)

// Handler serves the day/week/month calendar views. It reads an immutable
// snapshot from the appointment store and a client directory for display
// names; it never mutates state.
type Handler struct {
	appts   appointments.Repository
	clients clients.Repository
	now     func() time.Time
	logger  *logging.Logger
}

// NewHandler creates a calendar handler. now is injectable for tests; nil
// means time.Now.
func NewHandler(appts appointments.Repository, clientRepo clients.Repository, now func() time.Time, logger *logging.Logger) *Handler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{appts: appts, clients: clientRepo, now: now, logger: logger}
}

// Routes returns a chi router with the calendar read endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/day", h.DayView)
	r.Get("/week", h.WeekView)
	r.Get("/month", h.MonthView)
	return r
}

// DayViewResponse is the hour-grouped day view.
type DayViewResponse struct {
	Date        string            `json:"date"`
	Hours       []HourGroup       `json:"hours"`
	ClientNames map[string]string `json:"client_names"`
}

// DayView handles GET /calendar/day?date=YYYY-MM-DD[&doctor=][&status=].
func (h *Handler) DayView(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	appts, err := h.appts.OnDay(r.Context(), day)
	if err != nil {
		h.fail(w, "load appointments", err)
		return
	}
	appts = h.applyFilters(r, appts)

	names, err := h.clientNames(r)
	if err != nil {
		h.fail(w, "load clients", err)
		return
	}

	writeJSON(w, DayViewResponse{
		Date:        day.Format("2006-01-02"),
		Hours:       GroupByHour(appts),
		ClientNames: names,
	})
}

// WeekViewResponse is the day-grouped week view.
type WeekViewResponse struct {
	Start       string            `json:"start"`
	Days        []DayGroup        `json:"days"`
	ClientNames map[string]string `json:"client_names"`
}

// WeekView handles GET /calendar/week?start=YYYY-MM-DD[&doctor=][&status=].
func (h *Handler) WeekView(w http.ResponseWriter, r *http.Request) {
	start, ok := h.parseDate(w, r.URL.Query().Get("start"))
	if !ok {
		return
	}

	all, err := h.appts.All(r.Context())
	if err != nil {
		h.fail(w, "load appointments", err)
		return
	}
	all = h.applyFilters(r, all)

	names, err := h.clientNames(r)
	if err != nil {
		h.fail(w, "load clients", err)
		return
	}

	writeJSON(w, WeekViewResponse{
		Start:       start.Format("2006-01-02"),
		Days:        GroupByDay(all, start, start.AddDate(0, 0, 6)),
		ClientNames: names,
	})
}

// MonthViewResponse is the 6x7 month grid.
type MonthViewResponse struct {
	Month       string            `json:"month"`
	Weeks       [][]DayCell       `json:"weeks"`
	ClientNames map[string]string `json:"client_names"`
}

// MonthView handles GET /calendar/month?month=YYYY-MM[&doctor=][&status=].
func (h *Handler) MonthView(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("month")
	month, err := time.Parse("2006-01", raw)
	if err != nil {
		http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	all, err := h.appts.All(r.Context())
	if err != nil {
		h.fail(w, "load appointments", err)
		return
	}
	all = h.applyFilters(r, all)

	names, err := h.clientNames(r)
	if err != nil {
		h.fail(w, "load clients", err)
		return
	}

	writeJSON(w, MonthViewResponse{
		Month:       raw,
		Weeks:       MonthGrid(month.Year(), month.Month(), all),
		ClientNames: names,
	})
}

// applyFilters applies the orthogonal doctor/status predicates before grouping.
func (h *Handler) applyFilters(r *http.Request, appts []*appointments.Appointment) []*appointments.Appointment {
	var preds []Predicate
	if doctor := r.URL.Query().Get("doctor"); doctor != "" {
		preds = append(preds, ByDoctor(doctor))
	}
	switch r.URL.Query().Get("status") {
	case "upcoming":
		preds = append(preds, Upcoming(h.now()))
	case "completed":
		preds = append(preds, Completed(h.now()))
	}
	return Filter(appts, preds...)
}

func (h *Handler) clientNames(r *http.Request) (map[string]string, error) {
	list, err := h.clients.List(r.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(list))
	for _, c := range list {
		names[c.ID] = c.GivenName + " " + c.FamilyName
	}
	return names, nil
}

func (h *Handler) parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return day, true
}

func (h *Handler) fail(w http.ResponseWriter, what string, err error) {
	h.logger.Error("calendar view failed", "step", what, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
