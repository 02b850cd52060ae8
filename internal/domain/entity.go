package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrStoreUnavailable = errors.New("entity store unavailable")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrParseFailure     = errors.New("could not parse date-time")
	ErrDeliveryFailure  = errors.New("notification delivery failed")
)

const (
	// PlaceholderName is used for store rows with an empty name cell.
	PlaceholderName = "Unknown"

	DefaultLeadTime = 30 * time.Minute
)

// Status is advisory only; scheduling never looks at it.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOccurred Status = "occurred"
	StatusDelayed  Status = "delayed"
)

// ParseStatus maps a raw store value to a Status. Unknown or empty values
// fall back to StatusUpcoming.
func ParseStatus(raw string) Status {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusOccurred, StatusDelayed:
		return s
	default:
		return StatusUpcoming
	}
}

// Entity is a tracked boss spawn.
type Entity struct {
	Name        string
	Location    string
	NextSpawnAt time.Time
	Status      Status
}
