package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
)

// EntityRepository is the external store of boss spawns, keyed by name.
type EntityRepository interface {
	// List returns a point-in-time snapshot of every tracked entity.
	// Rows without a spawn time come back with NextSpawnAt set to the read time.
	List(ctx context.Context) ([]domain.Entity, error)

	// UpdateSpawn sets the next spawn time of the entity with exactly this name
	// and resets its status to upcoming. Returns domain.ErrEntityNotFound when
	// no row matches.
	UpdateSpawn(ctx context.Context, name string, at time.Time) error
}
