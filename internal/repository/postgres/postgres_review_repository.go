package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

type PostgresReviewRepository struct {
	db *sql.DB
}

func NewPostgresReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

func (r *PostgresReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review == nil {
		return pkgerrors.ErrNilReview
	}
	if review.Rating < models.MinRating || review.Rating > models.MaxRating {
		return pkgerrors.ErrInvalidRating
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	query := `INSERT INTO reviews (id, listing_id, user_id, rating, comment) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, review.ID, review.ListingID, review.UserID, review.Rating, review.Comment).Scan(&review.CreatedAt)
	if err != nil {
		if mapped := mapPQError(err, nil, pkgerrors.ErrListingNotFound); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *PostgresReviewRepository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Review, error) {
	query := `SELECT id, listing_id, user_id, rating, comment, created_at FROM reviews WHERE listing_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.ListingID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
