package appointments

import "errors"

var (
	// ErrMissingClient is returned when the client reference is blank.
	ErrMissingClient = errors.New("client_id is required")

	// ErrMissingDate is returned when the appointment instant is unset.
	ErrMissingDate = errors.New("date is required")

	// ErrUnknownTreatment is returned for a treatment outside the closed set.
	ErrUnknownTreatment = errors.New("unknown treatment")

	// ErrUnknownDoctor is returned for a doctor not on the roster.
	ErrUnknownDoctor = errors.New("unknown doctor")

	// ErrAppointmentNotFound is returned when no appointment matches the id.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrOutsideHours is returned when an instant is not the start of any
	// slot inside the business-hours window.
	ErrOutsideHours = errors.New("instant is not a bookable slot start")

	// ErrSlotTaken is returned when the requested slot is already occupied.
	ErrSlotTaken = errors.New("slot already booked")
)
