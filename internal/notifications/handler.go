package notifications

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/mailer"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/observability"
	"github.com/honeynil/TravelBookingService/internal/models"
	"github.com/honeynil/TravelBookingService/internal/repository"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

type Mailer interface {
	Send(ctx context.Context, email mailer.Email) error
}

// Handler executes notification jobs consumed from the queue.
type Handler struct {
	bookings repository.BookingRepository
	payments repository.PaymentRepository
	listings repository.ListingRepository
	users    repository.UserRepository
	mailer   Mailer
}

func NewHandler(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	listings repository.ListingRepository,
	users repository.UserRepository,
	mailer Mailer,
) *Handler {
	return &Handler{
		bookings: bookings,
		payments: payments,
		listings: listings,
		users:    users,
		mailer:   mailer,
	}
}

// Handle returns an error only when delivery should be retried. Jobs for
// deleted entities or users without an email address are dropped.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var job models.NotificationJob
	if err := json.Unmarshal(payload, &job); err != nil {
		slog.Error("dropping undecodable notification job", "error", err)
		observability.Notifications.WithLabelValues("unknown", "invalid").Inc()
		return nil
	}

	var err error
	switch job.Kind {
	case models.JobBookingConfirmation:
		err = h.sendBookingConfirmation(ctx, job.EntityID)
	case models.JobPaymentConfirmation:
		err = h.sendPaymentConfirmation(ctx, job.EntityID)
	default:
		slog.Error("dropping notification job of unknown kind", "kind", job.Kind, "entity_id", job.EntityID)
		observability.Notifications.WithLabelValues(string(job.Kind), "invalid").Inc()
		return nil
	}

	outcome := "sent"
	switch {
	case stderrors.Is(err, errSkipped):
		outcome = "skipped"
		err = nil
	case stderrors.Is(err, mailer.ErrNotConfigured):
		outcome = "not_configured"
		err = nil
	case err != nil:
		outcome = "failed"
	}
	observability.Notifications.WithLabelValues(string(job.Kind), outcome).Inc()
	return err
}

var errSkipped = stderrors.New("notification skipped")

func (h *Handler) sendBookingConfirmation(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := h.bookings.GetByID(ctx, bookingID)
	if stderrors.Is(err, pkgerrors.ErrNotFound) {
		slog.Error("booking does not exist", "booking_id", bookingID)
		return errSkipped
	}
	if err != nil {
		return fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}

	user, err := h.recipient(ctx, booking.UserID, "booking_id", bookingID)
	if err != nil {
		return err
	}

	destination := "your listing"
	listing, err := h.listings.GetByID(ctx, booking.ListingID)
	switch {
	case err == nil:
		destination = fmt.Sprintf("%s, %s", listing.Name, listing.Location)
	case stderrors.Is(err, pkgerrors.ErrNotFound):
		slog.Error("listing does not exist", "booking_id", bookingID, "listing_id", booking.ListingID)
		return errSkipped
	default:
		return fmt.Errorf("failed to load listing %s: %w", booking.ListingID, err)
	}

	email := mailer.Email{
		To:      user.Email,
		Subject: "Booking Confirmation",
		Text: fmt.Sprintf(
			"Hello %s,\n\nYour booking (ID: %s) was successfully created.\n\nDestination: %s\nDates: %s to %s\nTotal: %s\n\nThank you for booking with us!",
			user.Username, booking.ID, destination,
			booking.StartDate.Format("2006-01-02"), booking.EndDate.Format("2006-01-02"),
			booking.TotalPrice.StringFixed(2),
		),
	}
	if err := h.mailer.Send(ctx, email); err != nil {
		slog.Error("failed to send booking confirmation", "booking_id", bookingID, "error", err)
		return err
	}

	slog.Info("booking confirmation sent", "booking_id", bookingID, "to", user.Email)
	return nil
}

func (h *Handler) sendPaymentConfirmation(ctx context.Context, paymentID uuid.UUID) error {
	payment, err := h.payments.GetByID(ctx, paymentID)
	if stderrors.Is(err, pkgerrors.ErrNotFound) {
		slog.Error("payment does not exist", "payment_id", paymentID)
		return errSkipped
	}
	if err != nil {
		return fmt.Errorf("failed to load payment %s: %w", paymentID, err)
	}

	booking, err := h.bookings.GetByID(ctx, payment.BookingID)
	if stderrors.Is(err, pkgerrors.ErrNotFound) {
		slog.Error("booking does not exist", "payment_id", paymentID, "booking_id", payment.BookingID)
		return errSkipped
	}
	if err != nil {
		return fmt.Errorf("failed to load booking %s: %w", payment.BookingID, err)
	}

	user, err := h.recipient(ctx, booking.UserID, "payment_id", paymentID)
	if err != nil {
		return err
	}

	email := mailer.Email{
		To:      user.Email,
		Subject: "Booking Payment Confirmation",
		Text: fmt.Sprintf(
			"Hello %s,\n\nYour payment of %s for booking (ID: %s) was successful.\nReference: %s\n\nThank you for choosing our service!",
			user.Username, payment.Amount.StringFixed(2), booking.ID, payment.TxRef,
		),
	}
	if err := h.mailer.Send(ctx, email); err != nil {
		slog.Error("failed to send payment confirmation", "payment_id", paymentID, "error", err)
		return err
	}

	slog.Info("payment confirmation sent", "payment_id", paymentID, "to", user.Email)
	return nil
}

// recipient loads the user and returns errSkipped if there is nobody to
// write to.
func (h *Handler) recipient(ctx context.Context, userID uuid.UUID, entityKey string, entityID uuid.UUID) (*models.User, error) {
	user, err := h.users.GetByID(ctx, userID)
	if stderrors.Is(err, pkgerrors.ErrNotFound) {
		slog.Error("user does not exist", entityKey, entityID, "user_id", userID)
		return nil, errSkipped
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user.Email == "" {
		slog.Warn("user has no email, skipping notification", entityKey, entityID, "user_id", userID)
		return nil, errSkipped
	}
	return user, nil
}
