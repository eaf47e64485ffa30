package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/honeynil/TravelBookingService/internal/models"
	"github.com/honeynil/TravelBookingService/internal/repository"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CreateListingInput struct {
	HostID        uuid.UUID
	Name          string
	Description   string
	Location      string
	PricePerNight decimal.Decimal
}

type CreateReviewInput struct {
	ListingID uuid.UUID
	UserID    uuid.UUID
	Rating    int
	Comment   string
}

type ListingService interface {
	CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error)
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, limit, offset int) ([]models.Listing, error)
	DeleteListing(ctx context.Context, id, userID uuid.UUID) error
	CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error)
	ListReviews(ctx context.Context, listingID uuid.UUID) ([]models.Review, error)
}

type listingService struct {
	listings repository.ListingRepository
	reviews  repository.ReviewRepository
}

func NewListingService(listings repository.ListingRepository, reviews repository.ReviewRepository) *listingService {
	return &listingService{listings: listings, reviews: reviews}
}

func (s *listingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	tracer := otel.Tracer("listing-service")
	ctx, span := tracer.Start(ctx, "CreateListing")
	defer span.End()

	if in.Name == "" || in.Location == "" {
		span.SetStatus(codes.Error, "missing name or location")
		return nil, pkgerrors.ErrInvalidInput
	}
	if in.PricePerNight.IsNegative() {
		span.SetStatus(codes.Error, "negative price")
		return nil, pkgerrors.ErrNegativePrice
	}

	listing := &models.Listing{
		HostID:        in.HostID,
		Name:          in.Name,
		Description:   in.Description,
		Location:      in.Location,
		PricePerNight: in.PricePerNight,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		span.RecordError(err)
		slog.Error("failed to create listing", "host_id", in.HostID, "error", err)
		return nil, err
	}

	slog.Info("listing created", "listing_id", listing.ID, "host_id", listing.HostID)
	return listing, nil
}

func (s *listingService) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	tracer := otel.Tracer("listing-service")
	ctx, span := tracer.Start(ctx, "GetListing")
	defer span.End()

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return listing, nil
}

func (s *listingService) ListListings(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	tracer := otel.Tracer("listing-service")
	ctx, span := tracer.Start(ctx, "ListListings")
	defer span.End()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	listings, err := s.listings.List(ctx, limit, offset)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to list listings", "limit", limit, "offset", offset, "error", err)
		return nil, err
	}
	return listings, nil
}

func (s *listingService) DeleteListing(ctx context.Context, id, userID uuid.UUID) error {
	tracer := otel.Tracer("listing-service")
	ctx, span := tracer.Start(ctx, "DeleteListing")
	span.SetAttributes(attribute.String("listing_id", id.String()))
	defer span.End()

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if listing.HostID != userID {
		span.SetStatus(codes.Error, "not the host")
		slog.Warn("delete rejected", "listing_id", id, "user_id", userID, "host_id", listing.HostID)
		return pkgerrors.ErrForbidden
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		span.RecordError(err)
		slog.Error("failed to delete listing", "listing_id", id, "error", err)
		return err
	}

	slog.Info("listing deleted", "listing_id", id, "host_id", userID)
	return nil
}

func (s *listingService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	tracer := otel.Tracer("listing-service")
	ctx, span := tracer.Start(ctx, "CreateReview")
	span.SetAttributes(attribute.String("listing_id", in.ListingID.String()))
	defer span.End()

	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		span.SetStatus(codes.Error, "rating out of range")
		return nil, pkgerrors.ErrInvalidRating
	}
	if _, err := s.listings.GetByID(ctx, in.ListingID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	review := &models.Review{
		ListingID: in.ListingID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		span.RecordError(err)
		slog.Error("failed to create review", "listing_id", in.ListingID, "user_id", in.UserID, "error", err)
		return nil, err
	}

	slog.Info("review created", "review_id", review.ID, "listing_id", in.ListingID, "rating", in.Rating)
	return review, nil
}

func (s *listingService) ListReviews(ctx context.Context, listingID uuid.UUID) ([]models.Review, error) {
	tracer := otel.Tracer("listing-service")
	ctx, span := tracer.Start(ctx, "ListReviews")
	defer span.End()

	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	reviews, err := s.reviews.ListByListing(ctx, listingID)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to list reviews", "listing_id", listingID, "error", err)
		return nil, err
	}
	return reviews, nil
}
