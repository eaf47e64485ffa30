package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

func TestListingService_CreateListing(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	svc := NewListingService(s.store.Listings(), s.store.Reviews())

	t.Run("Success", func(t *testing.T) {
		listing, err := svc.CreateListing(ctx, CreateListingInput{
			HostID:        s.user.ID,
			Name:          "Beach House",
			Location:      "Malibu",
			PricePerNight: decimal.RequireFromString("120.50"),
		})
		require.NoError(t, err)

		got, err := svc.GetListing(ctx, listing.ID)
		require.NoError(t, err)
		assert.Equal(t, "Beach House", got.Name)
		assert.Equal(t, 0, got.TotalBookings)
	})

	t.Run("NegativePrice", func(t *testing.T) {
		_, err := svc.CreateListing(ctx, CreateListingInput{
			HostID:        s.user.ID,
			Name:          "Beach House",
			Location:      "Malibu",
			PricePerNight: decimal.NewFromInt(-5),
		})
		assert.ErrorIs(t, err, pkgerrors.ErrNegativePrice)
	})

	t.Run("MissingName", func(t *testing.T) {
		_, err := svc.CreateListing(ctx, CreateListingInput{HostID: s.user.ID, Location: "Malibu"})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	})
}

func TestListingService_GetListingCountsBookings(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	svc := NewListingService(s.store.Listings(), s.store.Reviews())
	s.booking(t, "100")
	s.booking(t, "100")

	listing, err := svc.GetListing(ctx, s.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, listing.TotalBookings)
}

func TestListingService_ListListings(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	svc := NewListingService(s.store.Listings(), s.store.Reviews())

	listings, err := svc.ListListings(ctx, 0, -3)
	require.NoError(t, err)
	assert.Len(t, listings, 1)

	listings, err = svc.ListListings(ctx, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestListingService_DeleteListing(t *testing.T) {
	ctx := context.Background()

	t.Run("HostOnly", func(t *testing.T) {
		s := seedStore(t)
		svc := NewListingService(s.store.Listings(), s.store.Reviews())

		err := svc.DeleteListing(ctx, s.listing.ID, uuid.New())
		assert.ErrorIs(t, err, pkgerrors.ErrForbidden)

		require.NoError(t, svc.DeleteListing(ctx, s.listing.ID, s.user.ID))
		_, err = svc.GetListing(ctx, s.listing.ID)
		assert.ErrorIs(t, err, pkgerrors.ErrListingNotFound)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := seedStore(t)
		svc := NewListingService(s.store.Listings(), s.store.Reviews())

		err := svc.DeleteListing(ctx, uuid.New(), s.user.ID)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	})
}

func TestListingService_Reviews(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	svc := NewListingService(s.store.Listings(), s.store.Reviews())

	t.Run("CreateAndList", func(t *testing.T) {
		review, err := svc.CreateReview(ctx, CreateReviewInput{ListingID: s.listing.ID, UserID: s.user.ID, Rating: 5, Comment: "Lovely"})
		require.NoError(t, err)

		reviews, err := svc.ListReviews(ctx, s.listing.ID)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, review.ID, reviews[0].ID)
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		for _, rating := range []int{0, 6} {
			_, err := svc.CreateReview(ctx, CreateReviewInput{ListingID: s.listing.ID, UserID: s.user.ID, Rating: rating})
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidRating)
		}
	})

	t.Run("UnknownListing", func(t *testing.T) {
		_, err := svc.CreateReview(ctx, CreateReviewInput{ListingID: uuid.New(), UserID: s.user.ID, Rating: 4})
		assert.ErrorIs(t, err, pkgerrors.ErrListingNotFound)

		_, err = svc.ListReviews(ctx, uuid.New())
		assert.ErrorIs(t, err, pkgerrors.ErrListingNotFound)
	})
}
