package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Review, error)
}
