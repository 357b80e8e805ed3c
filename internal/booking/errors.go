package booking

import "fmt"

// PartialFailureError reports a booking transaction that created the client
// but could neither create the appointment nor roll the client back. It
// carries the orphaned client id so the caller can compensate.
type PartialFailureError struct {
	ClientID string
	Err      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("booking: appointment creation failed and client %s could not be rolled back: %v", e.ClientID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
