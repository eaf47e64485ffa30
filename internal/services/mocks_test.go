package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/gateway"
	"github.com/honeynil/TravelBookingService/internal/models"
	"github.com/honeynil/TravelBookingService/internal/repository/memory"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Initialize(ctx context.Context, req gateway.InitRequest) (*gateway.InitResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*gateway.InitResult)
	return res, args.Error(1)
}

func (m *mockGateway) Verify(ctx context.Context, txRef string) (*gateway.VerifyResult, error) {
	args := m.Called(ctx, txRef)
	res, _ := args.Get(0).(*gateway.VerifyResult)
	return res, args.Error(1)
}

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Schedule(ctx context.Context, kind models.JobKind, entityID uuid.UUID) error {
	return m.Called(ctx, kind, entityID).Error(0)
}

// mutexLocker serializes holders of any key within the process.
type mutexLocker struct {
	mu   sync.Mutex
	err  error
	keys chan string
}

func newMutexLocker() *mutexLocker {
	return &mutexLocker{keys: make(chan string, 16)}
}

func (l *mutexLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	select {
	case l.keys <- key:
	default:
	}
	return l.mu.Unlock, nil
}

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *mockRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *mockRedis) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockRedis) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	args := m.Called(ctx, key, value)
	return args.Bool(0), args.Error(1)
}

func (m *mockRedis) Close() error { return nil }

type seeded struct {
	store   *memory.Store
	user    *models.User
	listing *models.Listing
}

func seedStore(t *testing.T) *seeded {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	user := &models.User{Username: "guest", Email: "guest@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, user))
	listing := &models.Listing{
		HostID:        user.ID,
		Name:          "Cozy Cabin",
		Location:      "Aspen",
		PricePerNight: decimal.NewFromInt(100),
	}
	require.NoError(t, store.Listings().Create(ctx, listing))
	return &seeded{store: store, user: user, listing: listing}
}

func (s *seeded) booking(t *testing.T, total string) *models.Booking {
	t.Helper()
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	b := &models.Booking{
		ListingID:  s.listing.ID,
		UserID:     s.user.ID,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 5),
		TotalPrice: decimal.RequireFromString(total),
		Status:     models.BookingPending,
	}
	require.NoError(t, s.store.Bookings().Create(context.Background(), b))
	return b
}

func (s *seeded) payment(t *testing.T, b *models.Booking, txRef string, status models.PaymentStatus) *models.Payment {
	t.Helper()
	p := &models.Payment{BookingID: b.ID, TxRef: txRef, Amount: b.TotalPrice, Status: status}
	require.NoError(t, s.store.Payments().Create(context.Background(), p))
	return p
}
