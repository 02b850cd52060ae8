package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
)

// Column layout of the spawn sheet.
const (
	colName = iota
	colLocation
	colSpawnAt
	colStatus
)

// TimestampLayout matches JavaScript's Date.prototype.toISOString, which is
// what existing sheets were populated with.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way spawn times are stored in the sheet.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type valuesClient interface {
	GetValues(ctx context.Context, rng string) ([][]string, error)
	UpdateValues(ctx context.Context, rng string, values [][]string) error
}

// EntityRepository maps sheet rows to entities. Row firstRow holds the first
// entity; rows above it are headers.
type EntityRepository struct {
	client   valuesClient
	sheet    string
	firstRow int
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

func NewEntityRepository(client valuesClient, sheet string, loc *time.Location, logger *slog.Logger) *EntityRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &EntityRepository{
		client:   client,
		sheet:    sheet,
		firstRow: 2,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With("component", "sheets_entity_repo"),
	}
}

// WithNow sets the clock used for rows without a spawn time.
func (r *EntityRepository) WithNow(now func() time.Time) *EntityRepository {
	r.now = now
	return r
}

func (r *EntityRepository) List(ctx context.Context) ([]domain.Entity, error) {
	rows, err := r.client.GetValues(ctx, fmt.Sprintf("%s!A%d:D", quoteSheet(r.sheet), r.firstRow))
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	now := r.now()
	entities := make([]domain.Entity, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		e := domain.Entity{
			Name:        cell(row, colName),
			Location:    cell(row, colLocation),
			NextSpawnAt: now,
			Status:      domain.ParseStatus(cell(row, colStatus)),
		}
		if e.Name == "" {
			e.Name = domain.PlaceholderName
		}
		if raw := cell(row, colSpawnAt); raw != "" {
			at, err := r.parseTimestamp(raw)
			if err != nil {
				r.logger.WarnContext(ctx, "unparseable spawn time, treating as now",
					"row", r.firstRow+i, "name", e.Name, "value", raw, "error", err)
			} else {
				e.NextSpawnAt = at
			}
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *EntityRepository) UpdateSpawn(ctx context.Context, name string, at time.Time) error {
	rows, err := r.client.GetValues(ctx, fmt.Sprintf("%s!A%d:A", quoteSheet(r.sheet), r.firstRow))
	if err != nil {
		return fmt.Errorf("read names: %w", err)
	}

	idx := -1
	for i, row := range rows {
		if len(row) > colName && row[colName] == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("update %q: %w", name, domain.ErrEntityNotFound)
	}

	rowNum := r.firstRow + idx
	rng := fmt.Sprintf("%s!C%d:D%d", quoteSheet(r.sheet), rowNum, rowNum)
	values := [][]string{{FormatTimestamp(at), string(domain.StatusUpcoming)}}
	if err := r.client.UpdateValues(ctx, rng, values); err != nil {
		return fmt.Errorf("write spawn time: %w", err)
	}

	r.logger.InfoContext(ctx, "spawn time updated", "name", name, "row", rowNum, "spawn_at", at)
	return nil
}

func (r *EntityRepository) parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return dateparse.ParseIn(raw, r.loc)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// quoteSheet wraps sheet names that A1 notation cannot take bare.
func quoteSheet(name string) string {
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
