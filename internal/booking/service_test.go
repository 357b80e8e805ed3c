package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
	"github.com/clinicdesk/platform/internal/config"
	"github.com/clinicdesk/platform/internal/observability/metrics"
	"github.com/clinicdesk/platform/internal/scheduling"
	"github.com/clinicdesk/platform/pkg/logging"
)

var testRoster = appointments.Roster{"Dr. Amara Osei", "Dr. Felix Brandt"}

type fixture struct {
	clients     clients.Repository
	appts       appointments.Repository
	coordinator *Coordinator
}

func newFixture(t *testing.T, clientRepo clients.Repository, apptRepo appointments.Repository) *fixture {
	t.Helper()
	calc := scheduling.NewCalculator(
		scheduling.BusinessHours{Open: "09:00", Close: "18:00"}, 30, config.ScopeClinic, apptRepo)
	coordinator := NewCoordinator(
		clientRepo, apptRepo, calc,
		scheduling.NewDayLocks(config.ScopeClinic),
		testRoster,
		metrics.NewBookingMetrics(prometheus.NewRegistry()),
		logging.Default(),
	)
	return &fixture{clients: clientRepo, appts: apptRepo, coordinator: coordinator}
}

func validRequest(at time.Time) *BookForNewClientRequest {
	return &BookForNewClientRequest{
		Client: clients.CreateClientRequest{
			GivenName:  "Noor",
			FamilyName: "Haddad",
			Phone:      "+15550001111",
		},
		Appointment: AppointmentDraft{
			Date:      at,
			Treatment: "botox",
			Doctor:    "Dr. Amara Osei",
			Notes:     "walk-in",
		},
	}
}

func slotAt(hh, mm int) time.Time {
	return time.Date(2026, 9, 1, hh, mm, 0, 0, time.UTC)
}

func TestBookForNewClientSuccess(t *testing.T) {
	f := newFixture(t, clients.NewInMemoryRepository(), appointments.NewInMemoryRepository())

	result, err := f.coordinator.BookForNewClient(context.Background(), validRequest(slotAt(10, 0)))
	require.NoError(t, err)
	require.NotEmpty(t, result.ClientID)
	require.NotEmpty(t, result.AppointmentID)

	// Both aggregates are retrievable and linked.
	client, err := f.clients.GetByID(context.Background(), result.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Haddad", client.FamilyName)

	appt, err := f.appts.GetByID(context.Background(), result.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, result.ClientID, appt.ClientID)
	assert.Equal(t, appointments.TreatmentBotox, appt.Treatment)
}

func TestBookForNewClientConflict(t *testing.T) {
	f := newFixture(t, clients.NewInMemoryRepository(), appointments.NewInMemoryRepository())
	ctx := context.Background()

	_, err := f.coordinator.BookForNewClient(ctx, validRequest(slotAt(10, 0)))
	require.NoError(t, err)

	// The example scenario: a second walk-in at 10:00 must be rejected,
	// 10:30 must succeed and consume the slot.
	_, err = f.coordinator.BookForNewClient(ctx, validRequest(slotAt(10, 0)))
	require.ErrorIs(t, err, scheduling.ErrSlotTaken)

	result, err := f.coordinator.BookForNewClient(ctx, validRequest(slotAt(10, 30)))
	require.NoError(t, err)
	require.ErrorIs(t,
		f.coordinator.calc.CheckBookable(ctx, slotAt(10, 30), scheduling.SlotQuery{}),
		scheduling.ErrSlotTaken,
		"the new booking must be visible to the next availability check")

	// No clients were leaked by the rejected attempt.
	list, err := f.clients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_ = result
}

func TestBookForNewClientValidation(t *testing.T) {
	f := newFixture(t, clients.NewInMemoryRepository(), appointments.NewInMemoryRepository())
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*BookForNewClientRequest)
		wantErr error
	}{
		{"outside hours", func(r *BookForNewClientRequest) { r.Appointment.Date = slotAt(8, 0) }, scheduling.ErrOutsideHours},
		{"unknown treatment", func(r *BookForNewClientRequest) { r.Appointment.Treatment = "cryotherapy" }, appointments.ErrUnknownTreatment},
		{"unknown doctor", func(r *BookForNewClientRequest) { r.Appointment.Doctor = "Dr. Nobody" }, appointments.ErrUnknownDoctor},
		{"missing date", func(r *BookForNewClientRequest) { r.Appointment.Date = time.Time{} }, appointments.ErrMissingDate},
		{"missing client name", func(r *BookForNewClientRequest) { r.Client.FamilyName = "" }, clients.ErrMissingName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(slotAt(11, 0))
			tt.mutate(req)
			_, err := f.coordinator.BookForNewClient(ctx, req)
			require.ErrorIs(t, err, tt.wantErr)

			// Rejected requests mutate nothing.
			list, _ := f.clients.List(ctx)
			assert.Empty(t, list)
		})
	}
}

// failingApptRepo makes Add fail to exercise the rollback path.
type failingApptRepo struct {
	appointments.Repository
}

func (f *failingApptRepo) Add(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error) {
	return nil, errors.New("storage unavailable")
}

func TestBookForNewClientRollsBackClient(t *testing.T) {
	clientRepo := clients.NewInMemoryRepository()
	f := newFixture(t, clientRepo, &failingApptRepo{appointments.NewInMemoryRepository()})

	_, err := f.coordinator.BookForNewClient(context.Background(), validRequest(slotAt(10, 0)))
	require.Error(t, err)
	var partial *PartialFailureError
	assert.False(t, errors.As(err, &partial), "rollback succeeded, so no partial failure")

	list, err := clientRepo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "the created client must be rolled back")
}

// expiringClientRepo kills the request context right after the create
// commits, the way a request deadline expiring mid-transaction does. Delete
// honors the context it is handed, like the postgres repository.
type expiringClientRepo struct {
	clients.Repository
	cancel context.CancelFunc
}

func (r *expiringClientRepo) Create(ctx context.Context, req *clients.CreateClientRequest) (*clients.Client, error) {
	created, err := r.Repository.Create(ctx, req)
	r.cancel()
	return created, err
}

func (r *expiringClientRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Repository.Delete(ctx, id)
}

// ctxApptRepo fails Add once the context is dead, like the postgres repository.
type ctxApptRepo struct {
	appointments.Repository
}

func (r *ctxApptRepo) Add(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Repository.Add(ctx, appt)
}

func TestBookForNewClientTimedOutRequestRollsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientRepo := &expiringClientRepo{Repository: clients.NewInMemoryRepository(), cancel: cancel}
	f := newFixture(t, clientRepo, &ctxApptRepo{appointments.NewInMemoryRepository()})

	_, err := f.coordinator.BookForNewClient(ctx, validRequest(slotAt(14, 0)))
	require.Error(t, err)

	var partial *PartialFailureError
	assert.False(t, errors.As(err, &partial),
		"a timed-out booking must fail clean, not report an orphan")

	list, listErr := clientRepo.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, list, "the created client must be rolled back even though the request context is dead")
}

// stuckClientRepo refuses deletes so the rollback itself fails.
type stuckClientRepo struct {
	clients.Repository
}

func (s *stuckClientRepo) Delete(ctx context.Context, id string) error {
	return errors.New("delete refused")
}

func TestBookForNewClientPartialFailure(t *testing.T) {
	clientRepo := &stuckClientRepo{clients.NewInMemoryRepository()}
	f := newFixture(t, clientRepo, &failingApptRepo{appointments.NewInMemoryRepository()})

	_, err := f.coordinator.BookForNewClient(context.Background(), validRequest(slotAt(10, 0)))
	require.Error(t, err)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.NotEmpty(t, partial.ClientID, "the orphaned client id must be reported")

	// The orphaned client is still retrievable for compensation.
	_, getErr := clientRepo.GetByID(context.Background(), partial.ClientID)
	assert.NoError(t, getErr)
}

func TestConcurrentBookingsSameSlot(t *testing.T) {
	f := newFixture(t, clients.NewInMemoryRepository(), appointments.NewInMemoryRepository())

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.BookForNewClient(context.Background(), validRequest(slotAt(13, 0)))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, conflicted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, scheduling.ErrSlotTaken):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent booking may win the slot")
	assert.Equal(t, attempts-1, conflicted)
}

func TestScheduleForExistingClient(t *testing.T) {
	clientRepo := clients.NewInMemoryRepository()
	f := newFixture(t, clientRepo, appointments.NewInMemoryRepository())
	ctx := context.Background()

	client, err := clientRepo.Create(ctx, &clients.CreateClientRequest{
		GivenName: "Ana", FamilyName: "Reyes", Phone: "+15550002222",
	})
	require.NoError(t, err)

	appt, err := f.coordinator.Schedule(ctx, &appointments.CreateAppointmentRequest{
		ClientID:  client.ID,
		Date:      slotAt(9, 0),
		Treatment: "consultation",
		Doctor:    "dr. felix brandt", // roster lookup is case-insensitive
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Felix Brandt", appt.Doctor, "canonical roster spelling is stored")

	_, err = f.coordinator.Schedule(ctx, &appointments.CreateAppointmentRequest{
		ClientID:  "ghost",
		Date:      slotAt(9, 30),
		Treatment: "consultation",
		Doctor:    "Dr. Felix Brandt",
	})
	require.ErrorIs(t, err, clients.ErrClientNotFound,
		"appointments must reference a live client")
}

// vanishingClientRepo reports the client present on the first lookup and gone
// afterwards, simulating a concurrent delete landing mid-schedule.
type vanishingClientRepo struct {
	clients.Repository
	lookups int
}

func (r *vanishingClientRepo) GetByID(ctx context.Context, id string) (*clients.Client, error) {
	r.lookups++
	if r.lookups > 1 {
		return nil, clients.ErrClientNotFound
	}
	return &clients.Client{ID: id}, nil
}

func TestScheduleRejectsClientDeletedMidFlight(t *testing.T) {
	apptRepo := appointments.NewInMemoryRepository()
	f := newFixture(t, &vanishingClientRepo{Repository: clients.NewInMemoryRepository()}, apptRepo)

	_, err := f.coordinator.Schedule(context.Background(), &appointments.CreateAppointmentRequest{
		ClientID:  "deleted-concurrently",
		Date:      slotAt(15, 0),
		Treatment: "botox",
		Doctor:    "Dr. Amara Osei",
	})
	require.ErrorIs(t, err, clients.ErrClientNotFound)

	all, listErr := apptRepo.All(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, all, "no appointment may outlive its client")
}

func TestRescheduleOntoOwnSlot(t *testing.T) {
	clientRepo := clients.NewInMemoryRepository()
	f := newFixture(t, clientRepo, appointments.NewInMemoryRepository())
	ctx := context.Background()

	client, _ := clientRepo.Create(ctx, &clients.CreateClientRequest{
		GivenName: "Ana", FamilyName: "Reyes", Phone: "+15550002222",
	})
	appt, err := f.coordinator.Schedule(ctx, &appointments.CreateAppointmentRequest{
		ClientID: client.ID, Date: slotAt(9, 0), Treatment: "consultation", Doctor: "Dr. Amara Osei",
	})
	require.NoError(t, err)

	// Editing notes without moving must not conflict with itself.
	appt.Notes = "bring previous scans"
	updated, err := f.coordinator.Reschedule(ctx, appt)
	require.NoError(t, err)
	assert.Equal(t, "bring previous scans", updated.Notes)

	// Moving onto someone else's slot must conflict.
	other, err := f.coordinator.Schedule(ctx, &appointments.CreateAppointmentRequest{
		ClientID: client.ID, Date: slotAt(9, 30), Treatment: "follow-up", Doctor: "Dr. Amara Osei",
	})
	require.NoError(t, err)
	appt.Date = other.Date
	_, err = f.coordinator.Reschedule(ctx, appt)
	require.ErrorIs(t, err, scheduling.ErrSlotTaken)
}
