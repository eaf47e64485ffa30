package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, limit, offset int) ([]models.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
