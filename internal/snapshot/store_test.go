package snapshot

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	savedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	birth := time.Date(1988, 7, 4, 0, 0, 0, 0, time.UTC)
	apptAt := time.Date(2026, 3, 12, 14, 30, 0, 0, time.UTC)

	in := &Archive{
		Clients: []*clients.Client{{
			ID:         "c1",
			GivenName:  "Mona",
			FamilyName: "Vance",
			BirthDate:  birth,
			Phone:      "+15550100",
			CreatedAt:  savedAt,
			UpdatedAt:  savedAt,
		}},
		Appointments: []*appointments.Appointment{{
			ID:        "a1",
			ClientID:  "c1",
			Date:      apptAt,
			Treatment: appointments.TreatmentBotox,
			Doctor:    "Dr. Amara Osei",
		}},
		SavedAt: savedAt,
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)

	require.Len(t, out.Clients, 1)
	assert.True(t, out.Clients[0].BirthDate.Equal(birth), "dates must round-trip as real instants")
	require.Len(t, out.Appointments, 1)
	assert.True(t, out.Appointments[0].Date.Equal(apptAt))
	assert.True(t, out.SavedAt.Equal(savedAt))
}

func TestLoadMissingArchive(t *testing.T) {
	store := newTestStore(t)

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestLoadFallsBackToLegacyArchive(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	legacy := `{
		"saved_at": "2025-11-02T08:00:00Z",
		"clients": [{
			"id": "c7",
			"given_name": "Rui",
			"family_name": "Tanaka",
			"birth_date": "1990-01-15T00:00:00Z",
			"phone": "+15550102",
			"created_at": "2025-10-01T09:00:00Z",
			"updated_at": "2025-10-01T09:00:00Z"
		}],
		"appointments": [{
			"id": "a7",
			"client_id": "c7",
			"date": "2025-11-05T14:30:00Z",
			"treatment": "filler",
			"doctor": "Dr. Felix Brandt",
			"notes": "carried over from the old desk system"
		}]
	}`
	require.NoError(t, mr.Set(legacyArchiveKey, legacy))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)

	require.Len(t, out.Clients, 1)
	assert.Equal(t, "Tanaka", out.Clients[0].FamilyName)
	assert.True(t, out.Clients[0].BirthDate.Equal(time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC)),
		"legacy string dates must come back as real instants")

	require.Len(t, out.Appointments, 1)
	assert.Equal(t, appointments.TreatmentFiller, out.Appointments[0].Treatment)
	assert.True(t, out.Appointments[0].Date.Equal(time.Date(2025, 11, 5, 14, 30, 0, 0, time.UTC)))
	assert.True(t, out.SavedAt.Equal(time.Date(2025, 11, 2, 8, 0, 0, 0, time.UTC)))
}

func TestLoadPrefersTypedArchive(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	require.NoError(t, mr.Set(legacyArchiveKey, `{"clients":[{"id":"legacy-only"}]}`))
	require.NoError(t, store.Save(ctx, &Archive{
		Clients: []*clients.Client{{ID: "typed", GivenName: "Mona", FamilyName: "Vance"}},
		SavedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out.Clients, 1)
	assert.Equal(t, "typed", out.Clients[0].ID, "the typed archive wins once one has been written")
}

func TestRunnerSnapshotAndRestore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	clientRepo := clients.NewInMemoryRepository()
	apptRepo := appointments.NewInMemoryRepository()

	c, err := clientRepo.Create(ctx, &clients.CreateClientRequest{
		GivenName: "Jo", FamilyName: "Reyes", Phone: "+15550101",
	})
	require.NoError(t, err)
	_, err = apptRepo.Add(ctx, &appointments.Appointment{
		ClientID:  c.ID,
		Date:      time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
		Treatment: appointments.TreatmentConsultation,
		Doctor:    "Dr. Felix Brandt",
	})
	require.NoError(t, err)

	runner := NewRunner(store, clientRepo, apptRepo, time.Minute, nil)
	require.NoError(t, runner.Snapshot(ctx))

	// Boot a second pair of repositories from the archive.
	freshClients := clients.NewInMemoryRepository()
	freshAppts := appointments.NewInMemoryRepository()
	fresh := NewRunner(store, freshClients, freshAppts, time.Minute, nil)
	require.NoError(t, fresh.Restore(ctx))

	restored, err := freshClients.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jo", restored.GivenName)

	appts, err := freshAppts.All(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, c.ID, appts[0].ClientID)
}

func TestRunnerRestoreEmpty(t *testing.T) {
	store := newTestStore(t)
	runner := NewRunner(store, clients.NewInMemoryRepository(), appointments.NewInMemoryRepository(), time.Minute, nil)

	require.NoError(t, runner.Restore(context.Background()))
}
