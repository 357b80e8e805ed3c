package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
)

func newTestHandler(t *testing.T) (*Handler, *appointments.InMemoryRepository, *clients.InMemoryRepository) {
	t.Helper()
	appts := appointments.NewInMemoryRepository()
	clientRepo := clients.NewInMemoryRepository()
	now := func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return NewHandler(appts, clientRepo, now, nil), appts, clientRepo
}

func seedAppointment(t *testing.T, repo *appointments.InMemoryRepository, clientID string, at time.Time, doctor string) *appointments.Appointment {
	t.Helper()
	a, err := repo.Add(context.Background(), &appointments.Appointment{
		ClientID:  clientID,
		Date:      at,
		Treatment: appointments.TreatmentBotox,
		Doctor:    doctor,
	})
	require.NoError(t, err)
	return a
}

func TestDayView(t *testing.T) {
	h, appts, clientRepo := newTestHandler(t)

	c, err := clientRepo.Create(context.Background(), &clients.CreateClientRequest{
		GivenName:  "Mona",
		FamilyName: "Vance",
		Phone:      "555 0100",
	})
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedAppointment(t, appts, c.ID, day.Add(9*time.Hour+30*time.Minute), "Dr. Amara Osei")
	seedAppointment(t, appts, c.ID, day.Add(14*time.Hour), "Dr. Felix Brandt")

	req := httptest.NewRequest(http.MethodGet, "/day?date=2026-03-10", nil)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp DayViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-10", resp.Date)
	require.Len(t, resp.Hours, 2)
	assert.Equal(t, 9, resp.Hours[0].Hour)
	assert.Equal(t, "Mona Vance", resp.ClientNames[c.ID])
}

func TestDayViewDoctorFilter(t *testing.T) {
	h, appts, _ := newTestHandler(t)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedAppointment(t, appts, "c1", day.Add(9*time.Hour), "Dr. Amara Osei")
	seedAppointment(t, appts, "c2", day.Add(10*time.Hour), "Dr. Felix Brandt")

	req := httptest.NewRequest(http.MethodGet, "/day?date=2026-03-10&doctor=Dr.+Felix+Brandt", nil)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp DayViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Hours, 1)
	assert.Equal(t, 10, resp.Hours[0].Hour)
}

func TestDayViewBadDate(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/day?date=10-03-2026", nil)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWeekView(t *testing.T) {
	h, appts, _ := newTestHandler(t)

	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedAppointment(t, appts, "c1", monday.Add(10*time.Hour), "Dr. Amara Osei")
	seedAppointment(t, appts, "c1", monday.AddDate(0, 0, 4).Add(15*time.Hour), "Dr. Amara Osei")
	// A week later, outside the view.
	seedAppointment(t, appts, "c1", monday.AddDate(0, 0, 8).Add(10*time.Hour), "Dr. Amara Osei")

	req := httptest.NewRequest(http.MethodGet, "/week?start=2026-03-09", nil)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp WeekViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Days, 7)
	assert.Len(t, resp.Days[0].Appointments, 1)
	assert.Len(t, resp.Days[4].Appointments, 1)
	assert.Empty(t, resp.Days[6].Appointments)
}

func TestMonthView(t *testing.T) {
	h, appts, _ := newTestHandler(t)

	seedAppointment(t, appts, "c1",
		time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC), "Dr. Amara Osei")

	req := httptest.NewRequest(http.MethodGet, "/month?month=2026-03", nil)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp MonthViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03", resp.Month)
	require.Len(t, resp.Weeks, 6)
	total := 0
	for _, week := range resp.Weeks {
		require.Len(t, week, 7)
		for _, cell := range week {
			total += len(cell.Appointments)
		}
	}
	assert.Equal(t, 1, total)
}

func TestMonthViewBadMonth(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/month?month=March", nil)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWeekViewStatusFilter(t *testing.T) {
	h, appts, _ := newTestHandler(t)

	// Handler clock is fixed at 2026-03-10T12:00Z.
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedAppointment(t, appts, "c1", monday.Add(10*time.Hour), "Dr. Amara Osei")                  // completed
	seedAppointment(t, appts, "c1", monday.AddDate(0, 0, 3).Add(10*time.Hour), "Dr. Amara Osei") // upcoming

	req := httptest.NewRequest(http.MethodGet, "/week?start=2026-03-09&status=upcoming", nil)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp WeekViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Days[0].Appointments)
	assert.Len(t, resp.Days[3].Appointments, 1)
}
