package models

import (
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	JobBookingConfirmation JobKind = "booking_confirmation"
	JobPaymentConfirmation JobKind = "payment_confirmation"
)

// NotificationJob is the queue payload for an outgoing email.
type NotificationJob struct {
	Kind       JobKind   `json:"kind"`
	EntityID   uuid.UUID `json:"entity_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
