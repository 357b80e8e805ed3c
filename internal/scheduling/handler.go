package scheduling

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/clinicdesk/platform/pkg/logging"
)

// Handler serves the availability query surface.
type Handler struct {
	calc   *Calculator
	logger *logging.Logger
}

func NewHandler(calc *Calculator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{calc: calc, logger: logger}
}

// AvailabilityResponse lists the day's slots, occupied ones included.
type AvailabilityResponse struct {
	Date  string     `json:"date"`
	Slots []TimeSlot `json:"slots"`
}

// Availability handles GET /availability?date=YYYY-MM-DD[&duration=30][&doctor=].
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	day, err := time.Parse("2006-01-02", qs.Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	q := SlotQuery{Doctor: qs.Get("doctor")}
	if raw := qs.Get("duration"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			http.Error(w, "duration must be a positive number of minutes", http.StatusBadRequest)
			return
		}
		q.DurationMinutes = minutes
	}

	slots, err := h.calc.AvailableSlots(r.Context(), day, q)
	if err != nil {
		h.logger.Error("slot enumeration failed", "date", qs.Get("date"), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(AvailabilityResponse{
		Date:  day.Format("2006-01-02"),
		Slots: slots,
	})
}
