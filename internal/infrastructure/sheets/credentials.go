package sheets

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
)

// newTokenSource builds a cached service-account token source. The private
// key is parsed up front so a broken key fails at startup, not on the first
// refresh.
func newTokenSource(credentialsJSON []byte, base *http.Client) (oauth2.TokenSource, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: decode credentials: %v", domain.ErrStoreUnavailable, err)
	}
	if cfg.Email == "" || len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("%w: credentials missing client_email or private_key", domain.ErrStoreUnavailable)
	}
	if _, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKey); err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", domain.ErrStoreUnavailable, err)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	return cfg.TokenSource(ctx), nil
}
