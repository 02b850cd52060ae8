package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
)

type fakeRow struct {
	name, location string
	spawnAt        *time.Time
	status         string
	err            error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.name
	*dest[1].(*string) = r.location
	*dest[2].(**time.Time) = r.spawnAt
	*dest[3].(*string) = r.status
	return nil
}

func TestScanEntity(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	at := now.Add(time.Hour)

	e, err := scanEntity(fakeRow{name: "Death", location: "Tower", spawnAt: &at, status: "delayed"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Name != "Death" || !e.NextSpawnAt.Equal(at) || e.Status != domain.StatusDelayed {
		t.Fatalf("entity = %+v", e)
	}
}

func TestScanEntity_Defaults(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	e, err := scanEntity(fakeRow{status: "bogus"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Name != domain.PlaceholderName || !e.NextSpawnAt.Equal(now) || e.Status != domain.StatusUpcoming {
		t.Fatalf("entity = %+v", e)
	}
}

type fakeRows struct {
	rows []fakeRow
	i    int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.i >= len(f.rows) {
		return false
	}
	f.i++
	return true
}

func (f *fakeRows) Scan(dest ...any) error { return f.rows[f.i-1].Scan(dest...) }
func (f *fakeRows) Err() error             { return f.err }

func TestCollect_UsesInjectedNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	at := now.Add(time.Hour)
	repo := (&EntityRepository{}).WithNow(func() time.Time { return now })

	got, err := repo.collect(&fakeRows{rows: []fakeRow{
		{name: "Death", spawnAt: &at, status: "upcoming"},
		{name: "Ancient", status: "occurred"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || !got[0].NextSpawnAt.Equal(at) || !got[1].NextSpawnAt.Equal(now) {
		t.Fatalf("entities = %+v", got)
	}
}

func TestCollect_RowsError(t *testing.T) {
	repo := (&EntityRepository{}).WithNow(time.Now)
	boom := errors.New("conn reset")

	if _, err := repo.collect(&fakeRows{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want rows error", err)
	}
}

func TestScanEntity_ScanError(t *testing.T) {
	if _, err := scanEntity(fakeRow{err: errors.New("boom")}, time.Now()); err == nil {
		t.Fatal("expected error")
	}
}
