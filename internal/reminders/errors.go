package reminders

import "errors"

// ErrNoPhone means the client record has no phone number to remind.
var ErrNoPhone = errors.New("client has no phone number")
