// Package booking runs the walk-in transaction that creates a client and
// their first appointment as one unit, plus the slot-guarded scheduling
// paths used by appointment CRUD.
package booking

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
	"github.com/clinicdesk/platform/internal/observability/metrics"
	"github.com/clinicdesk/platform/internal/scheduling"
	"github.com/clinicdesk/platform/pkg/logging"
)

var bookingTracer = otel.Tracer("clinicdesk.internal.booking")

// rollbackTimeout bounds compensating writes. They run detached from the
// request context: a booking that dies to a request timeout must still be
// rolled back, or the half-written state stays visible.
const rollbackTimeout = 5 * time.Second

// AppointmentDraft is the appointment half of a walk-in booking.
type AppointmentDraft struct {
	Date      time.Time `json:"date"`
	Treatment string    `json:"treatment"`
	Doctor    string    `json:"doctor"`
	Notes     string    `json:"notes"`
}

// BookForNewClientRequest creates a client and their first appointment as one
// logical unit.
type BookForNewClientRequest struct {
	Client      clients.CreateClientRequest `json:"client"`
	Appointment AppointmentDraft            `json:"appointment"`
}

// Result carries both generated ids back to the caller.
type Result struct {
	ClientID      string                    `json:"client_id"`
	AppointmentID string                    `json:"appointment_id"`
	Appointment   *appointments.Appointment `json:"appointment"`
}

// Coordinator runs the booking transaction and the guarded scheduling paths
// for existing clients. The slot check and the insert it authorizes always
// execute under the day lock, so two concurrent requests for the same slot
// cannot both succeed.
type Coordinator struct {
	clients clients.Repository
	appts   appointments.Repository
	calc    *scheduling.Calculator
	locks   *scheduling.DayLocks
	roster  appointments.Roster
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewCoordinator constructs the booking coordinator.
func NewCoordinator(
	clientRepo clients.Repository,
	apptRepo appointments.Repository,
	calc *scheduling.Calculator,
	locks *scheduling.DayLocks,
	roster appointments.Roster,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
) *Coordinator {
	if clientRepo == nil || apptRepo == nil || calc == nil || locks == nil {
		panic("booking: repositories, calculator and locks required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{
		clients: clientRepo,
		appts:   apptRepo,
		calc:    calc,
		locks:   locks,
		roster:  roster,
		metrics: m,
		logger:  logger,
	}
}

// BookForNewClient validates the slot, creates the client, then the
// appointment. If the appointment insert fails the just-created client is
// rolled back; only when that rollback also fails does the caller see a
// PartialFailureError naming the orphaned client.
func (c *Coordinator) BookForNewClient(ctx context.Context, req *BookForNewClientRequest) (*Result, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.new_client")
	defer span.End()

	treatment, doctor, err := c.validateDraft(&req.Appointment)
	if err != nil {
		c.metrics.ObserveBooking("validation_error")
		return nil, err
	}
	if err := req.Client.Validate(); err != nil {
		c.metrics.ObserveBooking("validation_error")
		return nil, err
	}

	unlock := c.locks.Lock(req.Appointment.Date, doctor)
	defer unlock()

	if err := c.checkSlot(ctx, req.Appointment.Date, scheduling.SlotQuery{Doctor: doctor}); err != nil {
		c.metrics.ObserveBooking("conflict")
		return nil, err
	}

	client, err := c.clients.Create(ctx, &req.Client)
	if err != nil {
		c.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("booking: create client: %w", err)
	}
	span.SetAttributes(attribute.String("clinicdesk.client_id", client.ID))

	appt, err := c.appts.Add(ctx, &appointments.Appointment{
		ClientID:  client.ID,
		Date:      req.Appointment.Date,
		Treatment: treatment,
		Doctor:    doctor,
		Notes:     req.Appointment.Notes,
	})
	if err != nil {
		span.RecordError(err)
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer rbCancel()
		if rbErr := c.clients.Delete(rbCtx, client.ID); rbErr != nil {
			c.metrics.ObserveBooking("partial_failure")
			c.logger.Error("booking rollback failed, client orphaned",
				"client_id", client.ID, "insert_error", err, "rollback_error", rbErr)
			return nil, &PartialFailureError{ClientID: client.ID, Err: err}
		}
		c.metrics.ObserveBooking("error")
		c.logger.Warn("booking rolled back after appointment insert failure",
			"client_id", client.ID, "error", err)
		return nil, fmt.Errorf("booking: create appointment: %w", err)
	}

	c.metrics.ObserveBooking("confirmed")
	c.logger.Info("walk-in booking confirmed",
		"client_id", client.ID, "appointment_id", appt.ID, "date", appt.Date)
	return &Result{ClientID: client.ID, AppointmentID: appt.ID, Appointment: appt}, nil
}

// Schedule books an appointment for an existing client under the same
// day-lock discipline as the walk-in path.
func (c *Coordinator) Schedule(ctx context.Context, req *appointments.CreateAppointmentRequest) (*appointments.Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.schedule")
	defer span.End()

	treatment, doctor, err := req.Validate(c.roster)
	if err != nil {
		c.metrics.ObserveBooking("validation_error")
		return nil, err
	}
	if _, err := c.clients.GetByID(ctx, req.ClientID); err != nil {
		c.metrics.ObserveBooking("validation_error")
		return nil, err
	}

	unlock := c.locks.Lock(req.Date, doctor)
	defer unlock()

	if err := c.checkSlot(ctx, req.Date, scheduling.SlotQuery{Doctor: doctor}); err != nil {
		c.metrics.ObserveBooking("conflict")
		return nil, err
	}

	appt, err := c.appts.Add(ctx, &appointments.Appointment{
		ClientID:  req.ClientID,
		Date:      req.Date,
		Treatment: treatment,
		Doctor:    doctor,
		Notes:     req.Notes,
	})
	if err != nil {
		c.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("booking: create appointment: %w", err)
	}

	// A concurrent client delete can land between the existence check and the
	// insert; the client's cascade ran before this appointment was visible, so
	// re-verify and undo rather than leave an appointment with no owner. The
	// postgres path is already covered by the foreign key.
	if _, lookupErr := c.clients.GetByID(ctx, req.ClientID); lookupErr != nil {
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer rbCancel()
		if delErr := c.appts.Delete(rbCtx, appt.ID); delErr != nil {
			c.logger.Error("undo of orphaned appointment failed",
				"appointment_id", appt.ID, "client_id", req.ClientID, "error", delErr)
		}
		c.metrics.ObserveBooking("validation_error")
		return nil, lookupErr
	}

	c.metrics.ObserveBooking("confirmed")
	return appt, nil
}

// Reschedule moves or edits an existing appointment. The appointment's own
// slot does not count against it when checking the target.
func (c *Coordinator) Reschedule(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.reschedule")
	defer span.End()

	unlock := c.locks.Lock(appt.Date, appt.Doctor)
	defer unlock()

	if err := c.checkSlot(ctx, appt.Date, scheduling.SlotQuery{Doctor: appt.Doctor, ExcludeID: appt.ID}); err != nil {
		c.metrics.ObserveBooking("conflict")
		return nil, err
	}

	updated, err := c.appts.Update(ctx, appt)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveBooking("confirmed")
	return updated, nil
}

func (c *Coordinator) validateDraft(draft *AppointmentDraft) (appointments.Treatment, string, error) {
	if draft.Date.IsZero() {
		return "", "", appointments.ErrMissingDate
	}
	treatment, err := appointments.ParseTreatment(draft.Treatment)
	if err != nil {
		return "", "", err
	}
	doctor, err := c.roster.Parse(draft.Doctor)
	if err != nil {
		return "", "", err
	}
	return treatment, doctor, nil
}

func (c *Coordinator) checkSlot(ctx context.Context, start time.Time, q scheduling.SlotQuery) error {
	began := time.Now()
	err := c.calc.CheckBookable(ctx, start, q)
	c.metrics.ObserveSlotCheck(time.Since(began).Seconds())
	return err
}
