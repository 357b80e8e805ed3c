package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling engine.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	slotCheckLatency prometheus.Histogram
	cascadeDeletes   prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		slotCheckLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "booking",
			Name:      "slot_check_latency_seconds",
			Help:      "Latency of slot availability checks",
			Buckets:   prometheus.DefBuckets,
		}),
		cascadeDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "clients",
			Name:      "cascade_deleted_appointments_total",
			Help:      "Appointments removed by client cascade deletes",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotCheckLatency, m.cascadeDeletes)
	return m
}

// ObserveBooking records a booking attempt outcome
// (confirmed, conflict, validation_error, partial_failure, error).
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSlotCheck records the latency of one availability check.
func (m *BookingMetrics) ObserveSlotCheck(seconds float64) {
	if m == nil {
		return
	}
	m.slotCheckLatency.Observe(seconds)
}

// ObserveCascade records appointments removed when a client was deleted.
func (m *BookingMetrics) ObserveCascade(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.cascadeDeletes.Add(float64(count))
}
