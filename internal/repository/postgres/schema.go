package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(254) NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY,
		host_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL,
		location VARCHAR(255) NOT NULL,
		price_per_night NUMERIC(10,2) NOT NULL CHECK (price_per_night >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_host_id ON listings(host_id)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		total_price NUMERIC(10,2) NOT NULL,
		status VARCHAR(10) NOT NULL CHECK (status IN ('pending', 'confirmed', 'canceled')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT check_end_date_gt_start CHECK (end_date > start_date),
		CONSTRAINT check_total_price_positive CHECK (total_price >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_listing_id ON bookings(listing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY,
		listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT check_rating_between_1_and_5 CHECK (rating >= 1 AND rating <= 5)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_listing_id ON reviews(listing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_user_id ON reviews(user_id)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		booking_id UUID NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
		tx_ref VARCHAR(255) NOT NULL UNIQUE,
		gateway_tx_ref VARCHAR(255),
		amount NUMERIC(12,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed')),
		checkout_url TEXT NOT NULL DEFAULT '',
		raw_response JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_booking_created ON payments(booking_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, query := range schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			slog.Error("failed to apply schema statement", "error", err)
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	slog.Info("database schema is up to date", "statements", len(schema))
	return nil
}
