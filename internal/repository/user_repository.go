package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}
