package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	// GetLatestByBooking returns the most recently created payment attempt,
	// ties broken by the highest id.
	GetLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error)
	// UpdateStatus applies the transition only while the row still holds
	// the expected status and returns ErrStaleUpdate otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, status models.PaymentStatus, raw json.RawMessage) error
}
