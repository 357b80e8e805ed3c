package clients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines client storage. Create always returns the persisted
// client including its generated id; callers that need the id (the booking
// transaction in particular) rely on that.
type Repository interface {
	Create(ctx context.Context, req *CreateClientRequest) (*Client, error)
	GetByID(ctx context.Context, id string) (*Client, error)
	Update(ctx context.Context, id string, req *UpdateClientRequest) (*Client, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Client, error)
}

// InMemoryRepository stores clients in memory behind a mutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{clients: make(map[string]*Client)}
}

// Create validates the request, assigns a fresh id and inserts the client.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateClientRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &Client{
		ID:           uuid.New().String(),
		GivenName:    req.GivenName,
		FamilyName:   req.FamilyName,
		BirthDate:    req.BirthDate,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		MedicalNotes: req.MedicalNotes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	r.clients[client.ID] = client
	r.mu.Unlock()

	copied := *client
	return &copied, nil
}

// GetByID retrieves a client by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	copied := *client
	return &copied, nil
}

// Update applies the set fields to the matching client.
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdateClientRequest) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	req.apply(client)
	client.UpdatedAt = time.Now().UTC()

	copied := *client
	return &copied, nil
}

// Delete removes the client. Deleting an unknown id is a no-op; cascading the
// client's appointments is the caller's job (see the clients handler).
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
	return nil
}

// List returns all clients ordered by family name, then given name.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Client, error) {
	r.mu.RLock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		copied := *c
		out = append(out, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FamilyName != out[j].FamilyName {
			return out[i].FamilyName < out[j].FamilyName
		}
		return out[i].GivenName < out[j].GivenName
	})
	return out, nil
}

// Restore replaces the repository contents with the given clients.
// Used when loading a snapshot on boot.
func (r *InMemoryRepository) Restore(clients []*Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = make(map[string]*Client, len(clients))
	for _, c := range clients {
		copied := *c
		r.clients[c.ID] = &copied
	}
}
