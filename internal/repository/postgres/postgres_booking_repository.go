package repository

import (
	"context"
	"database/sql"
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

const bookingColumns = `id, listing_id, user_id, start_date, end_date, total_price, status, created_at`

type PostgresBookingRepository struct {
	db *sql.DB
}

func NewPostgresBookingRepository(db *sql.DB) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.ListingID, &b.UserID, &b.StartDate, &b.EndDate, &b.TotalPrice, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PostgresBookingRepository) Create(ctx context.Context, booking *models.Booking) (err error) {
	tracer := otel.Tracer("booking-repository")
	ctx, span := tracer.Start(ctx, "CreateBooking")
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "CreateBooking", start, err) }()

	if booking == nil {
		err = pkgerrors.ErrNilBooking
		slog.Error("failed to create booking", "method", "Create", "error", err)
		return err
	}
	if err = booking.Validate(); err != nil {
		slog.Error("invalid booking", "method", "Create", "start_date", booking.StartDate, "end_date", booking.EndDate, "total_price", booking.TotalPrice, "error", err)
		return err
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	span.SetAttributes(
		attribute.String("booking_id", booking.ID.String()),
		attribute.String("listing_id", booking.ListingID.String()),
		attribute.String("user_id", booking.UserID.String()),
	)

	query := `INSERT INTO bookings (id, listing_id, user_id, start_date, end_date, total_price, status) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		booking.ID,
		booking.ListingID,
		booking.UserID,
		booking.StartDate,
		booking.EndDate,
		booking.TotalPrice,
		booking.Status,
	).Scan(&booking.CreatedAt)
	if err != nil {
		slog.Error("failed to create booking", "method", "Create", "listing_id", booking.ListingID, "user_id", booking.UserID, "error", err)
		if mapped := mapPQError(err, nil, pkgerrors.ErrListingNotFound); mapped != err {
			err = mapped
			return err
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	slog.Info("booking created", "method", "Create", "booking_id", booking.ID, "listing_id", booking.ListingID, "user_id", booking.UserID)
	return nil
}

func (r *PostgresBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (_ *models.Booking, err error) {
	tracer := otel.Tracer("booking-repository")
	ctx, span := tracer.Start(ctx, "GetBookingByID")
	span.SetAttributes(attribute.String("booking_id", id.String()))
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "GetBookingByID", start, err) }()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		slog.Warn("booking not found", "method", "GetByID", "booking_id", id)
		err = pkgerrors.ErrBookingNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get booking by id", "method", "GetByID", "booking_id", id, "error", err)
		return nil, fmt.Errorf("failed to get booking by id: %w", err)
	}
	return booking, nil
}

func (r *PostgresBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) (_ []models.Booking, err error) {
	tracer := otel.Tracer("booking-repository")
	ctx, span := tracer.Start(ctx, "ListBookingsByUser")
	span.SetAttributes(attribute.String("user_id", userID.String()))
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "ListBookingsByUser", start, err) }()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Error("failed to list bookings", "method", "ListByUser", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		b, scanErr := scanBooking(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan booking: %w", scanErr)
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (err error) {
	tracer := otel.Tracer("booking-repository")
	ctx, span := tracer.Start(ctx, "UpdateBookingStatus")
	span.SetAttributes(attribute.String("booking_id", id.String()), attribute.String("status", string(status)))
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRepositoryCall(span, "UpdateBookingStatus", start, err) }()

	if !status.Valid() {
		err = pkgerrors.ErrInvalidStatus
		return err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		slog.Error("failed to update booking status", "method", "UpdateStatus", "booking_id", id, "error", err)
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		err = pkgerrors.ErrBookingNotFound
		return err
	}

	slog.Info("booking status updated", "method", "UpdateStatus", "booking_id", id, "status", status)
	return nil
}
