package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
	"github.com/clinicdesk/platform/pkg/logging"
)

// ClientRestorer is the slice of the client repository the runner restores
// into. The in-memory repository satisfies it.
type ClientRestorer interface {
	clients.Repository
	Restore([]*clients.Client)
}

// AppointmentRestorer is the matching slice for appointments.
type AppointmentRestorer interface {
	appointments.Repository
	Restore([]*appointments.Appointment)
}

// Runner periodically archives the in-memory state. It exists only for the
// in-memory persistence mode; the postgres mode persists on every write.
type Runner struct {
	store    *Store
	clients  ClientRestorer
	appts    AppointmentRestorer
	interval time.Duration
	logger   *logging.Logger
}

func NewRunner(store *Store, clientRepo ClientRestorer, apptRepo AppointmentRestorer, interval time.Duration, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		store:    store,
		clients:  clientRepo,
		appts:    apptRepo,
		interval: interval,
		logger:   logger,
	}
}

// Restore loads the last archive into the repositories. A missing archive is
// not an error.
func (r *Runner) Restore(ctx context.Context) error {
	a, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if a == nil {
		r.logger.Info("no snapshot found, starting empty")
		return nil
	}
	r.clients.Restore(a.Clients)
	r.appts.Restore(a.Appointments)
	r.logger.Info("snapshot restored",
		"clients", len(a.Clients),
		"appointments", len(a.Appointments),
		"saved_at", a.SavedAt)
	return nil
}

// Snapshot captures the current state and saves it.
func (r *Runner) Snapshot(ctx context.Context) error {
	clientList, err := r.clients.List(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: list clients: %w", err)
	}
	apptList, err := r.appts.All(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: list appointments: %w", err)
	}
	return r.store.Save(ctx, &Archive{
		Clients:      clientList,
		Appointments: apptList,
		SavedAt:      time.Now().UTC(),
	})
}

// Run snapshots on the configured interval until ctx is cancelled, then takes
// one final snapshot so a graceful shutdown loses nothing.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.Snapshot(final); err != nil {
				r.logger.Error("final snapshot failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := r.Snapshot(ctx); err != nil {
				r.logger.Error("snapshot failed", "error", err)
			}
		}
	}
}
