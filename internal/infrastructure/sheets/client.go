// Package sheets reads and writes boss spawn rows in a Google Sheets
// spreadsheet through the Sheets v4 values API.
//
// Authentication uses a service account key. Requests pass through a token
// bucket limiter.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
)

type Options struct {
	// BaseURL overrides the API endpoint, e.g. "https://sheets.googleapis.com/".
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerMinute int
}

// Client is a thin wrapper over the Sheets v4 values service.
type Client struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	tokens        oauth2.TokenSource
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// NewClient parses the service account credentials and builds a client.
// Credential problems are reported as domain.ErrStoreUnavailable.
func NewClient(spreadsheetID string, credentialsJSON []byte, opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	tokens, err := newTokenSource(credentialsJSON, base)
	if err != nil {
		return nil, err
	}

	authed := &http.Client{
		Transport: &oauth2.Transport{Source: tokens, Base: base.Transport},
		Timeout:   base.Timeout,
	}
	svcOpts := []option.ClientOption{option.WithHTTPClient(authed)}
	if opts.BaseURL != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(opts.BaseURL))
	}
	svc, err := sheetsapi.NewService(context.Background(), svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		tokens:        tokens,
		limiter:       rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 5),
		logger:        logger.With("component", "sheets"),
	}, nil
}

// GetValues returns the formatted cell values of rng. Trailing empty cells
// and rows are omitted by the API, so rows may be ragged.
func (c *Client) GetValues(ctx context.Context, rng string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	vr, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	c.logger.DebugContext(ctx, "sheets get", "range", rng, "duration", time.Since(start), "error", err)
	if err != nil {
		return nil, fmt.Errorf("get values %s: %w", rng, mapErr(err))
	}

	rows := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows, nil
}

// UpdateValues overwrites rng with values as raw (unparsed) input.
func (c *Client) UpdateValues(ctx context.Context, rng string, values [][]string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	vr := &sheetsapi.ValueRange{Range: rng, MajorDimension: "ROWS", Values: make([][]any, len(values))}
	for i, row := range values {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		vr.Values[i] = cells
	}

	start := time.Now()
	_, err := c.values.Update(c.spreadsheetID, rng, vr).ValueInputOption("RAW").Context(ctx).Do()
	c.logger.DebugContext(ctx, "sheets update", "range", rng, "duration", time.Since(start), "error", err)
	if err != nil {
		return fmt.Errorf("update values %s: %w", rng, mapErr(err))
	}
	return nil
}

// Ping checks that the credentials can still obtain an access token.
func (c *Client) Ping(context.Context) error {
	if _, err := c.tokens.Token(); err != nil {
		return fmt.Errorf("%w: token: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// mapErr marks failed token exchanges as store outages.
func mapErr(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return fmt.Errorf("%w: token: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
