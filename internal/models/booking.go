package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCanceled:
		return true
	}
	return false
}

type Booking struct {
	ID         uuid.UUID       `json:"booking_id"`
	ListingID  uuid.UUID       `json:"property_id"`
	UserID     uuid.UUID       `json:"user_id"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     BookingStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Validate checks the invariants the bookings table enforces with CHECK
// constraints, so bad input is rejected before it reaches the store.
func (b *Booking) Validate() error {
	if !CalendarDay(b.EndDate).After(CalendarDay(b.StartDate)) {
		return pkgerrors.ErrInvalidDateRange
	}
	if b.TotalPrice.IsNegative() {
		return pkgerrors.ErrNegativePrice
	}
	if !b.Status.Valid() {
		return pkgerrors.ErrInvalidStatus
	}
	return nil
}

// Nights returns the number of nights between the start and end calendar
// days.
func (b *Booking) Nights() int64 {
	return int64(CalendarDay(b.EndDate).Sub(CalendarDay(b.StartDate)).Hours() / 24)
}

// CalendarDay drops the time of day, keeping the UTC date. Bookings are
// stored as DATE columns.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
