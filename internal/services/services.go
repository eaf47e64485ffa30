package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/gateway"
	"github.com/honeynil/TravelBookingService/internal/models"
)

// PaymentGateway is the subset of the gateway client the workflow needs.
type PaymentGateway interface {
	Initialize(ctx context.Context, req gateway.InitRequest) (*gateway.InitResult, error)
	Verify(ctx context.Context, txRef string) (*gateway.VerifyResult, error)
}

// Scheduler hands notification jobs to the background queue.
type Scheduler interface {
	Schedule(ctx context.Context, kind models.JobKind, entityID uuid.UUID) error
}

type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}
