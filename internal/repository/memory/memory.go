// Package memory provides in-process implementations of the repository
// interfaces with the same constraint behaviour as the Postgres schema.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

// Store holds all tables behind a single mutex.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[uuid.UUID]models.User
	listings map[uuid.UUID]models.Listing
	bookings map[uuid.UUID]models.Booking
	payments map[uuid.UUID]models.Payment
	reviews  map[uuid.UUID]models.Review
	txRefs   map[string]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[uuid.UUID]models.User),
		listings: make(map[uuid.UUID]models.Listing),
		bookings: make(map[uuid.UUID]models.Booking),
		payments: make(map[uuid.UUID]models.Payment),
		reviews:  make(map[uuid.UUID]models.Review),
		txRefs:   make(map[string]uuid.UUID),
	}
}

// SetClock replaces the timestamp source used for created_at columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s} }
func (s *Store) Listings() *ListingRepository { return &ListingRepository{s} }
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s} }
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{s} }
func (s *Store) Reviews() *ReviewRepository   { return &ReviewRepository{s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return pkgerrors.ErrUsernameExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pkgerrors.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, pkgerrors.ErrUserNotFound
}

func (r *UserRepository) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

type ListingRepository struct{ s *Store }

func (r *ListingRepository) Create(_ context.Context, listing *models.Listing) error {
	if listing == nil {
		return pkgerrors.ErrNilListing
	}
	if listing.PricePerNight.IsNegative() {
		return pkgerrors.ErrNegativePrice
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[listing.HostID]; !ok {
		return pkgerrors.ErrUserNotFound
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	listing.CreatedAt = r.s.now()
	listing.UpdatedAt = listing.CreatedAt
	r.s.listings[listing.ID] = *listing
	return nil
}

func (r *ListingRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, pkgerrors.ErrListingNotFound
	}
	l.TotalBookings = r.s.countBookings(id)
	return &l, nil
}

func (r *ListingRepository) List(_ context.Context, limit, offset int) ([]models.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	listings := make([]models.Listing, 0, len(r.s.listings))
	for id, l := range r.s.listings {
		l.TotalBookings = r.s.countBookings(id)
		listings = append(listings, l)
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].CreatedAt.After(listings[j].CreatedAt) })
	if offset >= len(listings) {
		return []models.Listing{}, nil
	}
	listings = listings[offset:]
	if limit > 0 && limit < len(listings) {
		listings = listings[:limit]
	}
	return listings, nil
}

func (r *ListingRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[id]; !ok {
		return pkgerrors.ErrListingNotFound
	}
	delete(r.s.listings, id)
	// ON DELETE CASCADE
	for bid, b := range r.s.bookings {
		if b.ListingID == id {
			r.s.deleteBooking(bid)
		}
	}
	for rid, rv := range r.s.reviews {
		if rv.ListingID == id {
			delete(r.s.reviews, rid)
		}
	}
	return nil
}

func (s *Store) countBookings(listingID uuid.UUID) int {
	n := 0
	for _, b := range s.bookings {
		if b.ListingID == listingID {
			n++
		}
	}
	return n
}

func (s *Store) deleteBooking(id uuid.UUID) {
	delete(s.bookings, id)
	for pid, p := range s.payments {
		if p.BookingID == id {
			delete(s.txRefs, p.TxRef)
			delete(s.payments, pid)
		}
	}
}

type BookingRepository struct{ s *Store }

func (r *BookingRepository) Create(_ context.Context, booking *models.Booking) error {
	if booking == nil {
		return pkgerrors.ErrNilBooking
	}
	if err := booking.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[booking.ListingID]; !ok {
		return pkgerrors.ErrListingNotFound
	}
	if _, ok := r.s.users[booking.UserID]; !ok {
		return pkgerrors.ErrUserNotFound
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = r.s.now()
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *BookingRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, pkgerrors.ErrBookingNotFound
	}
	return &b, nil
}

func (r *BookingRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bookings := make([]models.Booking, 0)
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings, nil
}

func (r *BookingRepository) UpdateStatus(_ context.Context, id uuid.UUID, status models.BookingStatus) error {
	if !status.Valid() {
		return pkgerrors.ErrInvalidStatus
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return pkgerrors.ErrBookingNotFound
	}
	b.Status = status
	r.s.bookings[id] = b
	return nil
}

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Create(_ context.Context, payment *models.Payment) error {
	if payment == nil {
		return pkgerrors.ErrNilPayment
	}
	if !payment.Status.Valid() {
		return pkgerrors.ErrInvalidStatus
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[payment.BookingID]; !ok {
		return pkgerrors.ErrBookingNotFound
	}
	if _, dup := r.s.txRefs[payment.TxRef]; dup {
		return pkgerrors.ErrDuplicateTxRef
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = r.s.now()
	payment.UpdatedAt = payment.CreatedAt
	r.s.payments[payment.ID] = *payment
	r.s.txRefs[payment.TxRef] = payment.ID
	return nil
}

func (r *PaymentRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, pkgerrors.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *PaymentRepository) GetLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	payments, err := r.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, pkgerrors.ErrPaymentNotFound
	}
	return &payments[0], nil
}

func (r *PaymentRepository) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payments := make([]models.Payment, 0)
	for _, p := range r.s.payments {
		if p.BookingID == bookingID {
			payments = append(payments, p)
		}
	}
	// created_at DESC, id DESC
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].CreatedAt.After(payments[j].CreatedAt)
		}
		return payments[i].ID.String() > payments[j].ID.String()
	})
	return payments, nil
}

func (r *PaymentRepository) UpdateStatus(_ context.Context, id uuid.UUID, expected, status models.PaymentStatus, raw json.RawMessage) error {
	if !status.Valid() || !expected.Valid() {
		return pkgerrors.ErrInvalidStatus
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok || p.Status != expected {
		return pkgerrors.ErrStaleUpdate
	}
	p.Status = status
	if len(raw) > 0 {
		p.RawResponse = raw
	}
	p.UpdatedAt = r.s.now()
	r.s.payments[id] = p
	return nil
}

type ReviewRepository struct{ s *Store }

func (r *ReviewRepository) Create(_ context.Context, review *models.Review) error {
	if review == nil {
		return pkgerrors.ErrNilReview
	}
	if review.Rating < models.MinRating || review.Rating > models.MaxRating {
		return pkgerrors.ErrInvalidRating
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[review.ListingID]; !ok {
		return pkgerrors.ErrListingNotFound
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = r.s.now()
	r.s.reviews[review.ID] = *review
	return nil
}

func (r *ReviewRepository) ListByListing(_ context.Context, listingID uuid.UUID) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reviews := make([]models.Review, 0)
	for _, rv := range r.s.reviews {
		if rv.ListingID == listingID {
			reviews = append(reviews, rv)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}
