package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
)

// EntityRepository stores boss spawns in the boss_spawns table.
type EntityRepository struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger *slog.Logger
}

func NewEntityRepository(pool *pgxpool.Pool, logger *slog.Logger) *EntityRepository {
	return &EntityRepository{pool: pool, now: time.Now, logger: logger.With("component", "entity_repo")}
}

// WithNow sets the clock used for rows without a spawn time.
func (r *EntityRepository) WithNow(now func() time.Time) *EntityRepository {
	r.now = now
	return r
}

func (r *EntityRepository) List(ctx context.Context) ([]domain.Entity, error) {
	query := `
		SELECT name, location, next_spawn_at, status
		FROM boss_spawns
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list entities: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

type rowIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func (r *EntityRepository) collect(rows rowIter) ([]domain.Entity, error) {
	now := r.now()
	var entities []domain.Entity
	for rows.Next() {
		e, err := scanEntity(rows, now)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (r *EntityRepository) UpdateSpawn(ctx context.Context, name string, at time.Time) error {
	query := `
		UPDATE boss_spawns
		SET    next_spawn_at = $2,
		       status        = 'upcoming',
		       updated_at    = NOW()
		WHERE  name = $1`

	tag, err := r.pool.Exec(ctx, query, name, at)
	if err != nil {
		return fmt.Errorf("update spawn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %q: %w", name, domain.ErrEntityNotFound)
	}
	r.logger.InfoContext(ctx, "spawn time updated", "name", name, "spawn_at", at)
	return nil
}

// Upsert inserts or overwrites one entity. Used by the seed command.
func (r *EntityRepository) Upsert(ctx context.Context, e domain.Entity) error {
	query := `
		INSERT INTO boss_spawns (name, location, next_spawn_at, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET location      = EXCLUDED.location,
		    next_spawn_at = EXCLUDED.next_spawn_at,
		    status        = EXCLUDED.status,
		    updated_at    = NOW()`

	if _, err := r.pool.Exec(ctx, query, e.Name, e.Location, e.NextSpawnAt, string(e.Status)); err != nil {
		return fmt.Errorf("upsert entity %q: %w", e.Name, err)
	}
	return nil
}

// scanEntity applies the same defaults as the sheet adapter: a NULL spawn
// time reads as now, an empty name as the placeholder.
func scanEntity(row pgx.Row, now time.Time) (domain.Entity, error) {
	var (
		e       domain.Entity
		spawnAt *time.Time
		status  string
	)
	if err := row.Scan(&e.Name, &e.Location, &spawnAt, &status); err != nil {
		return domain.Entity{}, err
	}
	if e.Name == "" {
		e.Name = domain.PlaceholderName
	}
	e.NextSpawnAt = now
	if spawnAt != nil {
		e.NextSpawnAt = *spawnAt
	}
	e.Status = domain.ParseStatus(status)
	return e, nil
}
