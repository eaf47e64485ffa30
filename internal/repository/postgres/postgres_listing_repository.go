package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/honeynil/TravelBookingService/internal/models"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

const listingSelect = `
	SELECT l.id, l.host_id, l.name, l.description, l.location, l.price_per_night, l.created_at, l.updated_at,
		(SELECT COUNT(*) FROM bookings b WHERE b.listing_id = l.id) AS total_bookings
	FROM listings l`

type PostgresListingRepository struct {
	db *sql.DB
}

func NewPostgresListingRepository(db *sql.DB) *PostgresListingRepository {
	return &PostgresListingRepository{db: db}
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(&l.ID, &l.HostID, &l.Name, &l.Description, &l.Location, &l.PricePerNight, &l.CreatedAt, &l.UpdatedAt, &l.TotalBookings)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PostgresListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing == nil {
		return pkgerrors.ErrNilListing
	}
	if listing.PricePerNight.IsNegative() {
		return pkgerrors.ErrNegativePrice
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}

	query := `
	INSERT INTO listings (id, host_id, name, description, location, price_per_night)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		listing.ID, listing.HostID, listing.Name, listing.Description, listing.Location, listing.PricePerNight,
	).Scan(&listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		slog.Error("failed to create listing", "method", "Create", "host_id", listing.HostID, "error", err)
		if mapped := mapPQError(err, nil, pkgerrors.ErrUserNotFound); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create listing: %w", err)
	}

	slog.Info("listing created", "method", "Create", "listing_id", listing.ID, "host_id", listing.HostID)
	return nil
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := scanListing(r.db.QueryRowContext(ctx, listingSelect+` WHERE l.id = $1`, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrListingNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get listing by id: %w", err)
	}
	return listing, nil
}

func (r *PostgresListingRepository) List(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, listingSelect+` ORDER BY l.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := make([]models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func (r *PostgresListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrListingNotFound
	}
	slog.Info("listing deleted", "method", "Delete", "listing_id", id)
	return nil
}
