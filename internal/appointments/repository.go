package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines appointment storage. Add returns the persisted row so
// the generated id is immediately usable by callers; Delete is idempotent.
type Repository interface {
	Add(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) (*Appointment, error)
	Delete(ctx context.Context, id string) error
	DeleteByClient(ctx context.Context, clientID string) (int, error)
	ByClient(ctx context.Context, clientID string) ([]*Appointment, error)
	OnDay(ctx context.Context, day time.Time) ([]*Appointment, error)
	All(ctx context.Context) ([]*Appointment, error)
}

// InMemoryRepository stores appointments in memory behind a mutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[string]*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appts: make(map[string]*Appointment)}
}

// Add assigns a fresh id and inserts the appointment.
func (r *InMemoryRepository) Add(ctx context.Context, appt *Appointment) (*Appointment, error) {
	now := time.Now().UTC()
	stored := *appt
	stored.ID = uuid.New().String()
	stored.Date = stored.Date.UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.mu.Lock()
	r.appts[stored.ID] = &stored
	r.mu.Unlock()

	copied := stored
	return &copied, nil
}

// GetByID retrieves an appointment by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

// Update replaces the row matching appt.ID.
func (r *InMemoryRepository) Update(ctx context.Context, appt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.appts[appt.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	stored := *appt
	stored.Date = stored.Date.UTC()
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	r.appts[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// Delete removes the row. Deleting an unknown id is a no-op.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.appts, id)
	r.mu.Unlock()
	return nil
}

// DeleteByClient removes every appointment referencing the client and
// reports how many rows went away. Backs the cascade on client deletion.
func (r *InMemoryRepository) DeleteByClient(ctx context.Context, clientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, appt := range r.appts {
		if appt.ClientID == clientID {
			delete(r.appts, id)
			removed++
		}
	}
	return removed, nil
}

// ByClient returns the client's appointments, most recent first.
func (r *InMemoryRepository) ByClient(ctx context.Context, clientID string) ([]*Appointment, error) {
	r.mu.RLock()
	var out []*Appointment
	for _, appt := range r.appts {
		if appt.ClientID == clientID {
			copied := *appt
			out = append(out, &copied)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// OnDay returns the appointments whose instant falls on the given calendar
// day (UTC), ascending. This is the feed for slot-occupancy checks.
func (r *InMemoryRepository) OnDay(ctx context.Context, day time.Time) ([]*Appointment, error) {
	y, m, d := day.UTC().Date()

	r.mu.RLock()
	var out []*Appointment
	for _, appt := range r.appts {
		ay, am, ad := appt.Date.UTC().Date()
		if ay == y && am == m && ad == d {
			copied := *appt
			out = append(out, &copied)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// All returns a full snapshot ordered by date ascending.
func (r *InMemoryRepository) All(ctx context.Context) ([]*Appointment, error) {
	r.mu.RLock()
	out := make([]*Appointment, 0, len(r.appts))
	for _, appt := range r.appts {
		copied := *appt
		out = append(out, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Restore replaces the repository contents with the given appointments.
// Used when loading a snapshot on boot.
func (r *InMemoryRepository) Restore(appts []*Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appts = make(map[string]*Appointment, len(appts))
	for _, a := range appts {
		copied := *a
		r.appts[a.ID] = &copied
	}
}
