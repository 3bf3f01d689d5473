// Package notify implements the notify service: email relay through an SMTP
// transport with a persisted record per dispatch, plus the HTTP client the
// user service talks to it with.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Notification records a single email dispatch. Persistence is a side
// effect of sending, not a queue: a failed dispatch is not retried.
type Notification struct {
	ID             uuid.UUID
	RecipientEmail string
	SenderEmail    string
	Subject        string
	Message        string
	Sent           bool
	CreatedAt      time.Time
}
