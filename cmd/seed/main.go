package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/honeynil/TravelBookingService/internal/config"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/observability"
	core "github.com/honeynil/TravelBookingService/internal/repository/postgres"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with sample listings",
	}
	rootCmd.AddCommand(listingsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listingsCmd() *cobra.Command {
	var (
		count int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Create sample listings owned by random existing users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			observability.InitLogger(cfg.LogLevel)

			db, err := sql.Open("postgres", cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("failed to open Postgres: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := core.Migrate(ctx, db); err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			s := &seeder{
				users:    core.NewPostgresUserRepository(db),
				listings: core.NewPostgresListingRepository(db),
				rng:      rand.New(rand.NewSource(seed)),
			}
			created, err := s.seedListings(ctx, count)
			for _, l := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created listing: %s for host %s\n", l.Name, l.HostID)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of listings to create")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the current time)")
	return cmd
}
