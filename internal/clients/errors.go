package clients

import "errors"

var (
	// ErrMissingName is returned when a given or family name is blank.
	ErrMissingName = errors.New("given and family name are required")

	// ErrMissingContact is returned when both phone and email are missing.
	ErrMissingContact = errors.New("either phone or email is required")

	// ErrClientNotFound is returned when no client matches the requested id.
	ErrClientNotFound = errors.New("client not found")
)
