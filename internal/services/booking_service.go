package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/honeynil/TravelBookingService/internal/models"
	"github.com/honeynil/TravelBookingService/internal/repository"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

type CreateBookingInput struct {
	ListingID uuid.UUID
	UserID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	// TotalPrice defaults to nights * price_per_night when nil.
	TotalPrice *decimal.Decimal
}

type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id, userID uuid.UUID) (*models.Booking, error)
}

type bookingService struct {
	bookings  repository.BookingRepository
	listings  repository.ListingRepository
	scheduler Scheduler
}

func NewBookingService(
	bookings repository.BookingRepository,
	listings repository.ListingRepository,
	scheduler Scheduler,
) *bookingService {
	return &bookingService{
		bookings:  bookings,
		listings:  listings,
		scheduler: scheduler,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	tracer := otel.Tracer("booking-service")
	ctx, span := tracer.Start(ctx, "CreateBooking")
	span.SetAttributes(
		attribute.String("listing_id", in.ListingID.String()),
		attribute.String("user_id", in.UserID.String()),
	)
	defer span.End()

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing lookup failed")
		slog.Error("failed to load listing for booking", "listing_id", in.ListingID, "error", err)
		return nil, err
	}

	booking := &models.Booking{
		ListingID: listing.ID,
		UserID:    in.UserID,
		StartDate: models.CalendarDay(in.StartDate),
		EndDate:   models.CalendarDay(in.EndDate),
		Status:    models.BookingPending,
	}
	if in.TotalPrice != nil {
		booking.TotalPrice = *in.TotalPrice
	} else {
		booking.TotalPrice = listing.PricePerNight.Mul(decimal.NewFromInt(booking.Nights()))
	}

	if err := booking.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid booking")
		slog.Warn("rejected booking", "listing_id", in.ListingID, "user_id", in.UserID, "error", err)
		return nil, err
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "booking creation failed")
		slog.Error("failed to create booking", "listing_id", in.ListingID, "user_id", in.UserID, "error", err)
		return nil, err
	}

	// The booking is durable at this point; a lost email must not fail it.
	if err := s.scheduler.Schedule(ctx, models.JobBookingConfirmation, booking.ID); err != nil {
		span.RecordError(err)
		slog.Error("failed to schedule booking confirmation", "booking_id", booking.ID, "error", err)
	}

	slog.Info("booking created",
		"booking_id", booking.ID,
		"listing_id", booking.ListingID,
		"user_id", booking.UserID,
		"total_price", booking.TotalPrice.StringFixed(2))
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	tracer := otel.Tracer("booking-service")
	ctx, span := tracer.Start(ctx, "GetBooking")
	defer span.End()

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	tracer := otel.Tracer("booking-service")
	ctx, span := tracer.Start(ctx, "ListBookings")
	defer span.End()

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to list bookings", "user_id", userID, "error", err)
		return nil, err
	}
	return bookings, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, id, userID uuid.UUID) (*models.Booking, error) {
	tracer := otel.Tracer("booking-service")
	ctx, span := tracer.Start(ctx, "CancelBooking")
	span.SetAttributes(attribute.String("booking_id", id.String()))
	defer span.End()

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if booking.UserID != userID {
		span.SetStatus(codes.Error, "not the booking owner")
		slog.Warn("cancel rejected", "booking_id", id, "user_id", userID, "owner_id", booking.UserID)
		return nil, pkgerrors.ErrForbidden
	}
	if booking.Status == models.BookingCanceled {
		return booking, nil
	}

	if err := s.bookings.UpdateStatus(ctx, id, models.BookingCanceled); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		slog.Error("failed to cancel booking", "booking_id", id, "error", err)
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	booking.Status = models.BookingCanceled

	slog.Info("booking canceled", "booking_id", id, "user_id", userID)
	return booking, nil
}
