package service

import (
	"context"
	"fmt"
	"log/slog"

	stderrors "errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/gateway"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/observability"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/redis"
	"github.com/honeynil/TravelBookingService/internal/models"
	"github.com/honeynil/TravelBookingService/internal/repository"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

const (
	DefaultCurrency = "ETB"
	paymentTitle    = "Booking Payment"
)

type PaymentConfig struct {
	Currency  string
	ReturnURL string
}

type PaymentService interface {
	InitiatePayment(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
	VerifyPayment(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error)
}

type paymentService struct {
	bookings  repository.BookingRepository
	payments  repository.PaymentRepository
	gateway   PaymentGateway
	scheduler Scheduler
	locker    Locker
	cfg       PaymentConfig
	newTxRef  func() string
}

func NewPaymentService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	gw PaymentGateway,
	scheduler Scheduler,
	locker Locker,
	cfg PaymentConfig,
) *paymentService {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	return &paymentService{
		bookings:  bookings,
		payments:  payments,
		gateway:   gw,
		scheduler: scheduler,
		locker:    locker,
		cfg:       cfg,
		newTxRef:  uuid.NewString,
	}
}

func verifyLockKey(bookingID uuid.UUID) string {
	return fmt.Sprintf("booking:%s:verify_lock", bookingID)
}

// InitiatePayment registers a new transaction at the gateway and records it
// as a pending payment. Nothing is stored when the gateway call fails.
func (s *paymentService) InitiatePayment(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	tracer := otel.Tracer("payment-service")
	ctx, span := tracer.Start(ctx, "InitiatePayment")
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))
	defer span.End()

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "booking lookup failed")
		slog.Error("failed to load booking for payment", "booking_id", bookingID, "error", err)
		return nil, err
	}
	if !booking.TotalPrice.IsPositive() {
		span.SetStatus(codes.Error, "non-positive amount")
		slog.Warn("refusing to initiate payment", "booking_id", bookingID, "amount", booking.TotalPrice.String())
		return nil, pkgerrors.ErrInvalidAmount
	}

	txRef := s.newTxRef()
	span.SetAttributes(attribute.String("tx_ref", txRef))

	result, err := s.gateway.Initialize(ctx, gateway.InitRequest{
		Amount:      booking.TotalPrice,
		Currency:    s.cfg.Currency,
		TxRef:       txRef,
		ReturnURL:   s.cfg.ReturnURL,
		Title:       paymentTitle,
		Description: fmt.Sprintf("Payment for booking %s", booking.ID),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway initialize failed")
		slog.Error("payment initialization failed", "booking_id", bookingID, "tx_ref", txRef, "error", err)
		return nil, err
	}

	gatewayTxRef := result.TxRef
	payment := &models.Payment{
		BookingID:    booking.ID,
		TxRef:        txRef,
		GatewayTxRef: &gatewayTxRef,
		Amount:       booking.TotalPrice,
		Status:       models.PaymentPending,
		CheckoutURL:  result.CheckoutURL,
		RawResponse:  result.Raw,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment creation failed")
		slog.Error("failed to store payment", "booking_id", bookingID, "tx_ref", txRef, "error", err)
		return nil, err
	}

	slog.Info("payment initiated",
		"booking_id", bookingID,
		"payment_id", payment.ID,
		"tx_ref", txRef,
		"amount", payment.Amount.StringFixed(2))
	return payment, nil
}

// VerifyPayment asks the gateway about the latest payment of the booking
// and applies the outcome. Completed payments never change again and a
// failed payment stays failed.
func (s *paymentService) VerifyPayment(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	tracer := otel.Tracer("payment-service")
	ctx, span := tracer.Start(ctx, "VerifyPayment")
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))
	defer span.End()
	logger := observability.WithContext(ctx, "booking_id", bookingID)

	release, err := s.locker.Acquire(ctx, verifyLockKey(bookingID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify lock not acquired")
		if stderrors.Is(err, redis.ErrLockBusy) {
			logger.Warn("verification already running")
			return nil, pkgerrors.ErrVerificationInProgress
		}
		logger.Error("failed to acquire verify lock", "error", err)
		return nil, fmt.Errorf("failed to acquire verify lock: %w", err)
	}
	defer release()

	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		span.RecordError(err)
		logger.Error("failed to load booking for verification", "error", err)
		return nil, err
	}

	payment, err := s.payments.GetLatestByBooking(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		logger.Error("no payment to verify", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("tx_ref", payment.TxRef), attribute.String("payment_id", payment.ID.String()))

	result, err := s.gateway.Verify(ctx, payment.TxRef)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway verify failed")
		logger.Error("payment verification failed", "tx_ref", payment.TxRef, "error", err)
		return nil, err
	}

	switch {
	case payment.Status.Terminal():
		if result.Successful() == (payment.Status == models.PaymentCompleted) {
			logger.Info("payment already settled", "payment_id", payment.ID, "status", payment.Status)
			break
		}
		logger.Warn("gateway status disagrees with settled payment, keeping stored status",
			"payment_id", payment.ID,
			"status", payment.Status,
			"gateway_status", result.Status)
	case result.Successful():
		if err := s.transition(ctx, payment, models.PaymentCompleted, result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "status update failed")
			return nil, err
		}
		if err := s.scheduler.Schedule(ctx, models.JobPaymentConfirmation, payment.ID); err != nil {
			span.RecordError(err)
			logger.Error("failed to schedule payment confirmation", "payment_id", payment.ID, "error", err)
		}
	default:
		if err := s.transition(ctx, payment, models.PaymentFailed, result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "status update failed")
			return nil, err
		}
	}

	return payment, nil
}

func (s *paymentService) transition(ctx context.Context, payment *models.Payment, to models.PaymentStatus, result *gateway.VerifyResult) error {
	from := payment.Status
	if err := s.payments.UpdateStatus(ctx, payment.ID, from, to, result.Raw); err != nil {
		slog.Error("failed to update payment status", "payment_id", payment.ID, "from", from, "to", to, "error", err)
		return err
	}
	observability.PaymentTransitions.WithLabelValues(string(from), string(to)).Inc()

	payment.Status = to
	if len(result.Raw) > 0 {
		payment.RawResponse = result.Raw
	}
	slog.Info("payment status updated", "payment_id", payment.ID, "from", from, "to", to, "gateway_status", result.Status)
	return nil
}

func (s *paymentService) ListPayments(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error) {
	tracer := otel.Tracer("payment-service")
	ctx, span := tracer.Start(ctx, "ListPayments")
	defer span.End()

	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	payments, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to list payments", "booking_id", bookingID, "error", err)
		return nil, err
	}
	return payments, nil
}
