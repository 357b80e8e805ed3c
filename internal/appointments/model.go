package appointments

import (
	"strings"
	"time"
)

// Treatment is a closed enumeration of the services the clinic offers.
// Unknown values are rejected at the boundary, never stored.
type Treatment string

const (
	TreatmentConsultation  Treatment = "consultation"
	TreatmentBotox         Treatment = "botox"
	TreatmentFiller        Treatment = "filler"
	TreatmentChemicalPeel  Treatment = "chemical peel"
	TreatmentMicroneedling Treatment = "microneedling"
	TreatmentLaserHair     Treatment = "laser hair removal"
	TreatmentFollowUp      Treatment = "follow-up"
)

// Treatments returns every valid treatment, in menu order.
func Treatments() []Treatment {
	return []Treatment{
		TreatmentConsultation,
		TreatmentBotox,
		TreatmentFiller,
		TreatmentChemicalPeel,
		TreatmentMicroneedling,
		TreatmentLaserHair,
		TreatmentFollowUp,
	}
}

// ParseTreatment normalizes and validates a treatment name.
func ParseTreatment(s string) (Treatment, error) {
	key := Treatment(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Treatments() {
		if t == key {
			return t, nil
		}
	}
	return "", ErrUnknownTreatment
}

// Roster is the closed set of doctors who can be booked. The membership comes
// from configuration, but once loaded it behaves like an enum: unknown names
// are rejected at the boundary.
type Roster []string

// Parse validates a doctor name against the roster and returns the canonical
// spelling.
func (r Roster) Parse(name string) (string, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, d := range r {
		if strings.ToLower(d) == want {
			return d, nil
		}
	}
	return "", ErrUnknownDoctor
}

// Appointment is a scheduled treatment. Date is the slot start instant;
// duration is implied by the slot granularity in effect at booking time.
type Appointment struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Date      time.Time `json:"date"`
	Treatment Treatment `json:"treatment"`
	Doctor    string    `json:"doctor"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAppointmentRequest is the payload for inserting an appointment.
type CreateAppointmentRequest struct {
	ClientID  string    `json:"client_id"`
	Date      time.Time `json:"date"`
	Treatment string    `json:"treatment"`
	Doctor    string    `json:"doctor"`
	Notes     string    `json:"notes"`
}

// Validate checks required fields and resolves the enums.
func (r *CreateAppointmentRequest) Validate(roster Roster) (Treatment, string, error) {
	if strings.TrimSpace(r.ClientID) == "" {
		return "", "", ErrMissingClient
	}
	if r.Date.IsZero() {
		return "", "", ErrMissingDate
	}
	treatment, err := ParseTreatment(r.Treatment)
	if err != nil {
		return "", "", err
	}
	doctor, err := roster.Parse(r.Doctor)
	if err != nil {
		return "", "", err
	}
	return treatment, doctor, nil
}

// UpdateAppointmentRequest is the payload for updating an appointment in place.
type UpdateAppointmentRequest struct {
	Date      *time.Time `json:"date,omitempty"`
	Treatment *string    `json:"treatment,omitempty"`
	Doctor    *string    `json:"doctor,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}
