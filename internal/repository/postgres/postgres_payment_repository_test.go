package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeynil/TravelBookingService/internal/models"
	repository "github.com/honeynil/TravelBookingService/internal/repository/postgres"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

var paymentRowColumns = []string{"id", "booking_id", "tx_ref", "gateway_tx_ref", "amount", "status", "checkout_url", "raw_response", "created_at", "updated_at"}

func TestPostgresPaymentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPaymentRepository(db)
	ctx := context.Background()

	newPayment := func() *models.Payment {
		gatewayRef := "X"
		return &models.Payment{
			ID:           uuid.New(),
			BookingID:    uuid.New(),
			TxRef:        "ref-1",
			GatewayTxRef: &gatewayRef,
			Amount:       decimal.RequireFromString("250.00"),
			Status:       models.PaymentPending,
			CheckoutURL:  "U",
			RawResponse:  json.RawMessage(`{"status":"success"}`),
		}
	}
	insert := regexp.QuoteMeta(`INSERT INTO payments (id, booking_id, tx_ref, gateway_tx_ref, amount, status, checkout_url, raw_response) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`)

	t.Run("NilPayment", func(t *testing.T) {
		err := repo.Create(ctx, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrNilPayment)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		p := newPayment()
		p.Status = "refunded"
		err := repo.Create(ctx, p)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		p := newPayment()
		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery(insert).
			WithArgs(p.ID, p.BookingID, p.TxRef, "X", p.Amount, "pending", "U", `{"status":"success"}`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		err := repo.Create(ctx, p)
		assert.NoError(t, err)
		assert.Equal(t, now, p.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateTxRef", func(t *testing.T) {
		p := newPayment()
		mock.ExpectBegin()
		mock.ExpectQuery(insert).WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := repo.Create(ctx, p)
		assert.ErrorIs(t, err, pkgerrors.ErrDuplicateTxRef)
		assert.ErrorIs(t, err, pkgerrors.ErrConstraintViolation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownBooking", func(t *testing.T) {
		p := newPayment()
		mock.ExpectBegin()
		mock.ExpectQuery(insert).WillReturnError(&pq.Error{Code: "23503"})
		mock.ExpectRollback()

		err := repo.Create(ctx, p)
		assert.ErrorIs(t, err, pkgerrors.ErrBookingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		p := newPayment()
		mock.ExpectBegin()
		mock.ExpectQuery(insert).WillReturnError(errors.New("db error"))
		mock.ExpectRollback()

		err := repo.Create(ctx, p)
		assert.ErrorContains(t, err, "failed to create payment")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresPaymentRepository_GetLatestByBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPaymentRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`FROM payments WHERE booking_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`)

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New()
		paymentID := uuid.New()
		now := time.Now()
		mock.ExpectQuery(query).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).
				AddRow(paymentID.String(), bookingID.String(), "ref-2", "X", "250.00", "completed", "U", []byte(`{"data":{}}`), now, now))

		p, err := repo.GetLatestByBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, paymentID, p.ID)
		assert.Equal(t, "ref-2", p.TxRef)
		require.NotNil(t, p.GatewayTxRef)
		assert.Equal(t, "X", *p.GatewayTxRef)
		assert.Equal(t, "250.00", p.Amount.StringFixed(2))
		assert.Equal(t, models.PaymentCompleted, p.Status)
		assert.JSONEq(t, `{"data":{}}`, string(p.RawResponse))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NullableColumns", func(t *testing.T) {
		bookingID := uuid.New()
		now := time.Now()
		mock.ExpectQuery(query).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).
				AddRow(uuid.NewString(), bookingID.String(), "ref-1", nil, "10", "pending", "", nil, now, now))

		p, err := repo.GetLatestByBooking(ctx, bookingID)
		require.NoError(t, err)
		assert.Nil(t, p.GatewayTxRef)
		assert.Nil(t, p.RawResponse)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoPayments", func(t *testing.T) {
		bookingID := uuid.New()
		mock.ExpectQuery(query).WithArgs(bookingID).WillReturnRows(sqlmock.NewRows(paymentRowColumns))

		_, err := repo.GetLatestByBooking(ctx, bookingID)
		assert.ErrorIs(t, err, pkgerrors.ErrPaymentNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresPaymentRepository_ListByBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPaymentRepository(db)
	ctx := context.Background()

	bookingID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE booking_id = $1 ORDER BY created_at DESC, id DESC`)).
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns).
			AddRow(uuid.NewString(), bookingID.String(), "ref-2", nil, "250", "pending", "", nil, now, now).
			AddRow(uuid.NewString(), bookingID.String(), "ref-1", nil, "250", "failed", "", nil, now.Add(-time.Minute), now))

	payments, err := repo.ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "ref-2", payments[0].TxRef)
	assert.Equal(t, models.PaymentFailed, payments[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPaymentRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPaymentRepository(db)
	ctx := context.Background()
	update := regexp.QuoteMeta(`UPDATE payments SET status = $1, raw_response = COALESCE($2, raw_response), updated_at = NOW() WHERE id = $3 AND status = $4`)

	t.Run("Success", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectExec(update).
			WithArgs("completed", `{"data":{"status":"success"}}`, id, "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, id, models.PaymentPending, models.PaymentCompleted, json.RawMessage(`{"data":{"status":"success"}}`))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("KeepsRawResponseWhenEmpty", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectExec(update).
			WithArgs("failed", nil, id, "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, id, models.PaymentPending, models.PaymentFailed, nil)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StaleUpdate", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectExec(update).
			WithArgs("completed", nil, id, "pending").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, id, models.PaymentPending, models.PaymentCompleted, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrStaleUpdate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, uuid.New(), models.PaymentPending, "refunded", nil)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
