package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrListingNotFound = fmt.Errorf("listing %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)

	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidDateRange    = fmt.Errorf("%w: end date must be after start date", ErrConstraintViolation)
	ErrNegativePrice       = fmt.Errorf("%w: price must not be negative", ErrConstraintViolation)
	ErrInvalidAmount       = fmt.Errorf("%w: payment amount must be positive", ErrConstraintViolation)
	ErrInvalidRating       = fmt.Errorf("%w: rating must be between 1 and 5", ErrConstraintViolation)
	ErrDuplicateTxRef      = fmt.Errorf("%w: tx_ref already exists", ErrConstraintViolation)
	ErrInvalidStatus       = fmt.Errorf("%w: invalid status", ErrConstraintViolation)

	ErrNilUser    = errors.New("user is nil")
	ErrNilListing = errors.New("listing is nil")
	ErrNilBooking = errors.New("booking is nil")
	ErrNilPayment = errors.New("payment is nil")
	ErrNilReview  = errors.New("review is nil")

	ErrForbidden              = errors.New("forbidden")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUsernameExists         = errors.New("username already exists")
	ErrInvalidInput           = errors.New("invalid input")
	ErrVerificationInProgress = errors.New("payment verification already in progress")
	ErrStaleUpdate            = errors.New("record was modified concurrently")
	ErrInternal               = errors.New("internal error")
)
