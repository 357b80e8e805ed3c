package snapshot

import (
	"fmt"
	"regexp"
	"time"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
)

// isoInstant matches an ISO-8601 UTC instant like 2026-03-10T14:30:00Z or
// 2026-03-10T14:30:00.123Z. Date-only strings and offsets are left alone.
var isoInstant = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{1,9})?Z$`)

// Revive walks a decoded untyped JSON value and converts every string that
// looks like an ISO-8601 instant into a time.Time. Any other string passes
// through unchanged. Load runs it over archives written by the previous
// tooling, which stored dates as bare strings, before mapping them onto the
// typed layout.
func Revive(v any) any {
	switch val := v.(type) {
	case string:
		if isoInstant.MatchString(val) {
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				return t.UTC()
			}
		}
		return val
	case map[string]any:
		for k, inner := range val {
			val[k] = Revive(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = Revive(inner)
		}
		return val
	default:
		return v
	}
}

// archiveFromLegacy maps a revived legacy value onto the typed archive. The
// legacy layout uses the same field names, only untyped.
func archiveFromLegacy(v any) (*Archive, error) {
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("snapshot: legacy archive is not a JSON object")
	}

	a := &Archive{SavedAt: legacyInstant(root["saved_at"])}
	for _, item := range legacyObjects(root["clients"]) {
		a.Clients = append(a.Clients, &clients.Client{
			ID:           legacyString(item["id"]),
			GivenName:    legacyString(item["given_name"]),
			FamilyName:   legacyString(item["family_name"]),
			BirthDate:    legacyInstant(item["birth_date"]),
			Phone:        legacyString(item["phone"]),
			Email:        legacyString(item["email"]),
			Address:      legacyString(item["address"]),
			MedicalNotes: legacyString(item["medical_notes"]),
			CreatedAt:    legacyInstant(item["created_at"]),
			UpdatedAt:    legacyInstant(item["updated_at"]),
		})
	}
	for _, item := range legacyObjects(root["appointments"]) {
		a.Appointments = append(a.Appointments, &appointments.Appointment{
			ID:        legacyString(item["id"]),
			ClientID:  legacyString(item["client_id"]),
			Date:      legacyInstant(item["date"]),
			Treatment: appointments.Treatment(legacyString(item["treatment"])),
			Doctor:    legacyString(item["doctor"]),
			Notes:     legacyString(item["notes"]),
			CreatedAt: legacyInstant(item["created_at"]),
			UpdatedAt: legacyInstant(item["updated_at"]),
		})
	}
	return a, nil
}

func legacyObjects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func legacyString(v any) string {
	s, _ := v.(string)
	return s
}

func legacyInstant(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
