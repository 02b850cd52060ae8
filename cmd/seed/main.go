// seed creates the boss_spawns table and fills it with sample bosses for the
// postgres store backend.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
	"github.com/ErlanBelekov/boss-notifier/internal/infrastructure/postgres"
)

type bossSpec struct {
	name     string
	location string
	in       time.Duration
}

var bosses = []bossSpec{
	// Armed on the next refresh
	{"Death", "Cursed Tower", 2 * time.Hour},
	{"Kraken", "Sunken Port", 3*time.Hour + 15*time.Minute},
	{"Phoenix", "Ember Ridge", 6 * time.Hour},
	{"Lich King", "Frozen Crypt", 12 * time.Hour},

	// Inside the lead time, skipped
	{"Ancient", "Desert Ruins", 10 * time.Minute},

	// Already spawned
	{"Hydra", "Black Marsh", -time.Hour},
}

func main() {
	_ = godotenv.Load(".env")
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	repo := postgres.NewEntityRepository(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Now()

	for _, b := range bosses {
		status := domain.StatusUpcoming
		if b.in < 0 {
			status = domain.StatusOccurred
		}
		e := domain.Entity{
			Name:        b.name,
			Location:    b.location,
			NextSpawnAt: now.Add(b.in).Truncate(time.Minute),
			Status:      status,
		}
		if err := repo.Upsert(ctx, e); err != nil {
			log.Fatalf("upsert %s: %v", b.name, err)
		}
		fmt.Printf("  %-10s  %-14s  %s  %s\n", e.Name, e.Location, e.NextSpawnAt.Format(time.RFC3339), e.Status)
	}

	fmt.Printf("\nSeeded %d bosses.\n\n", len(bosses))
	fmt.Println("  Next: start the server with STORE_BACKEND=postgres, then")
	fmt.Println("  curl http://localhost:3000/api/refresh-notifications")
}
