package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/honeynil/TravelBookingService/internal/models"
	"github.com/honeynil/TravelBookingService/internal/repository"
)

var (
	sampleLocations = []string{"Kampala", "Nairobi", "Accra", "Lagos", "Dar es Salaam"}
	sampleTitles    = []string{"Beach House", "Mountain Cabin", "City Apartment", "Luxury Villa", "Budget Room"}

	errNoUsers = errors.New("no users found, create users first")
)

const (
	minPrice = 25.0
	maxPrice = 200.0
)

type seeder struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	rng      *rand.Rand
}

// seedListings creates n listings for random existing hosts. Listings
// created before a failure are returned along with the error.
func (s *seeder) seedListings(ctx context.Context, n int) ([]models.Listing, error) {
	hosts, err := s.users.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(hosts) == 0 {
		return nil, errNoUsers
	}

	created := make([]models.Listing, 0, n)
	for i := 0; i < n; i++ {
		price := minPrice + s.rng.Float64()*(maxPrice-minPrice)
		listing := &models.Listing{
			HostID:        hosts[s.rng.Intn(len(hosts))],
			Name:          fmt.Sprintf("%s #%d", sampleTitles[s.rng.Intn(len(sampleTitles))], 100+s.rng.Intn(900)),
			Description:   "A beautiful place to stay. Includes all amenities.",
			Location:      sampleLocations[s.rng.Intn(len(sampleLocations))],
			PricePerNight: decimal.NewFromFloat(price).Round(2),
		}
		if err := s.listings.Create(ctx, listing); err != nil {
			return created, fmt.Errorf("failed to create listing %d: %w", i+1, err)
		}
		created = append(created, *listing)
	}
	return created, nil
}
