package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/boss-notifier/config"
	"github.com/ErlanBelekov/boss-notifier/internal/health"
	"github.com/ErlanBelekov/boss-notifier/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/boss-notifier/internal/infrastructure/sheets"
	"github.com/ErlanBelekov/boss-notifier/internal/repository"
)

// Store is the configured entity store plus what readiness checks ping.
type Store struct {
	Entities repository.EntityRepository
	Pinger   health.Pinger
	close    func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore builds the backend selected by STORE_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Entities: postgres.NewEntityRepository(pool, logger),
			Pinger:   pool,
			close:    pool.Close,
		}, nil

	case "sheets":
		creds, err := cfg.CredentialsJSON()
		if err != nil {
			return nil, err
		}
		client, err := sheets.NewClient(cfg.GoogleSheetID, creds, sheets.Options{}, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Entities: sheets.NewEntityRepository(client, cfg.GoogleSheetName, cfg.Location(), logger),
			Pinger:   client,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
