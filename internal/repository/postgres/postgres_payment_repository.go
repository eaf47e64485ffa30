package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/observability"
	"github.com/honeynil/TravelBookingService/internal/models"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

const paymentColumns = `id, booking_id, tx_ref, gateway_tx_ref, amount, status, checkout_url, raw_response, created_at, updated_at`

type PostgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var raw []byte
	if err := row.Scan(&p.ID, &p.BookingID, &p.TxRef, &p.GatewayTxRef, &p.Amount, &p.Status, &p.CheckoutURL, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		p.RawResponse = json.RawMessage(raw)
	}
	return &p, nil
}

func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *models.Payment) (err error) {
	tracer := otel.Tracer("payment-repository")
	ctx, span := tracer.Start(ctx, "CreatePayment")
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "CreatePayment", start, err) }()

	if payment == nil {
		err = pkgerrors.ErrNilPayment
		slog.Error("failed to create payment", "method", "Create", "error", err)
		return err
	}
	if !payment.Status.Valid() {
		err = pkgerrors.ErrInvalidStatus
		slog.Error("invalid payment status", "method", "Create", "status", payment.Status, "error", err)
		return err
	}
	if payment.TxRef == "" {
		err = fmt.Errorf("%w: tx_ref is required", pkgerrors.ErrConstraintViolation)
		slog.Error("missing tx_ref", "method", "Create", "error", err)
		return err
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	span.SetAttributes(
		attribute.String("payment_id", payment.ID.String()),
		attribute.String("booking_id", payment.BookingID.String()),
		attribute.String("tx_ref", payment.TxRef),
		attribute.String("status", string(payment.Status)),
	)

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "Create", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `INSERT INTO payments (id, booking_id, tx_ref, gateway_tx_ref, amount, status, checkout_url, raw_response) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`
	err = dbTx.QueryRowContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.TxRef,
		payment.GatewayTxRef,
		payment.Amount,
		payment.Status,
		payment.CheckoutURL,
		nullableJSON(payment.RawResponse),
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "method", "Create", "error", rbErr)
			err = fmt.Errorf("rollback failed: %v; original error: %w", rbErr, err)
			return fmt.Errorf("failed to create payment: %w", err)
		}
		mapped := mapPQError(err, pkgerrors.ErrDuplicateTxRef, pkgerrors.ErrBookingNotFound)
		slog.Error("failed to create payment", "method", "Create", "booking_id", payment.BookingID, "tx_ref", payment.TxRef, "error", err)
		if mapped != err {
			err = mapped
			return err
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if err = dbTx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "Create", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("payment created", "method", "Create", "payment_id", payment.ID, "booking_id", payment.BookingID, "tx_ref", payment.TxRef, "status", payment.Status)
	return nil
}

func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (_ *models.Payment, err error) {
	tracer := otel.Tracer("payment-repository")
	ctx, span := tracer.Start(ctx, "GetPaymentByID")
	span.SetAttributes(attribute.String("payment_id", id.String()))
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "GetPaymentByID", start, err) }()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		slog.Warn("payment not found", "method", "GetByID", "payment_id", id)
		err = pkgerrors.ErrPaymentNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get payment by id", "method", "GetByID", "payment_id", id, "error", err)
		return nil, fmt.Errorf("failed to get payment by id: %w", err)
	}
	return payment, nil
}

func (r *PostgresPaymentRepository) GetLatestByBooking(ctx context.Context, bookingID uuid.UUID) (_ *models.Payment, err error) {
	tracer := otel.Tracer("payment-repository")
	ctx, span := tracer.Start(ctx, "GetLatestPaymentByBooking")
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "GetLatestPaymentByBooking", start, err) }()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, bookingID))
	if stderrors.Is(err, sql.ErrNoRows) {
		slog.Warn("booking has no payments", "method", "GetLatestByBooking", "booking_id", bookingID)
		err = pkgerrors.ErrPaymentNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get latest payment", "method", "GetLatestByBooking", "booking_id", bookingID, "error", err)
		return nil, fmt.Errorf("failed to get latest payment: %w", err)
	}

	slog.Info("latest payment retrieved", "method", "GetLatestByBooking", "booking_id", bookingID, "payment_id", payment.ID, "status", payment.Status)
	return payment, nil
}

func (r *PostgresPaymentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) (_ []models.Payment, err error) {
	tracer := otel.Tracer("payment-repository")
	ctx, span := tracer.Start(ctx, "ListPaymentsByBooking")
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "ListPaymentsByBooking", start, err) }()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		slog.Error("failed to list payments", "method", "ListByBooking", "booking_id", bookingID, "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		p, scanErr := scanPayment(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan payment: %w", scanErr)
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

func (r *PostgresPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, status models.PaymentStatus, raw json.RawMessage) (err error) {
	tracer := otel.Tracer("payment-repository")
	ctx, span := tracer.Start(ctx, "UpdatePaymentStatus")
	span.SetAttributes(
		attribute.String("payment_id", id.String()),
		attribute.String("expected", string(expected)),
		attribute.String("status", string(status)),
	)
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "UpdatePaymentStatus", start, err) }()

	if !status.Valid() || !expected.Valid() {
		err = pkgerrors.ErrInvalidStatus
		return err
	}

	query := `UPDATE payments SET status = $1, raw_response = COALESCE($2, raw_response), updated_at = NOW() WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, status, nullableJSON(raw), id, expected)
	if err != nil {
		slog.Error("failed to update payment status", "method", "UpdateStatus", "payment_id", id, "error", err)
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		slog.Warn("payment status changed concurrently", "method", "UpdateStatus", "payment_id", id, "expected", expected, "status", status)
		err = pkgerrors.ErrStaleUpdate
		return err
	}

	slog.Info("payment status updated", "method", "UpdateStatus", "payment_id", id, "from", expected, "to", status)
	return nil
}
