// Package snapshot persists the in-memory clinic state to redis as a JSON
// archive and restores it on boot. The archive is two top-level collections,
// clients and appointments, plus the save instant.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
)

const archiveKey = "clinicdesk:snapshot"

// legacyArchiveKey is where the previous front-desk tooling kept its archive.
// That archive is untyped JSON with dates as bare ISO-8601 strings; it has to
// be revived before it can be mapped onto the typed layout.
const legacyArchiveKey = "clinicdesk:archive"

// Archive is the persisted state layout.
type Archive struct {
	Clients      []*clients.Client           `json:"clients"`
	Appointments []*appointments.Appointment `json:"appointments"`
	SavedAt      time.Time                   `json:"saved_at"`
}

// Store reads and writes archives in redis.
type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// Save serializes the archive and overwrites the previous one.
func (s *Store) Save(ctx context.Context, a *Archive) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("snapshot: marshal archive: %w", err)
	}
	if err := s.redis.Set(ctx, archiveKey, data, 0).Err(); err != nil {
		return fmt.Errorf("snapshot: set archive: %w", err)
	}
	return nil
}

// Load fetches the archive. When no typed archive exists yet it falls back to
// importing the legacy one; with neither present it returns (nil, nil) so a
// fresh deployment boots empty.
func (s *Store) Load(ctx context.Context) (*Archive, error) {
	data, err := s.redis.Get(ctx, archiveKey).Bytes()
	if err == redis.Nil {
		return s.loadLegacy(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: get archive: %w", err)
	}

	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal archive: %w", err)
	}
	return &a, nil
}

// loadLegacy imports the archive written by the previous tooling. The next
// Save writes the typed layout under archiveKey, so the import runs at most
// once per deployment.
func (s *Store) loadLegacy(ctx context.Context) (*Archive, error) {
	data, err := s.redis.Get(ctx, legacyArchiveKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: get legacy archive: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal legacy archive: %w", err)
	}
	return archiveFromLegacy(Revive(raw))
}
