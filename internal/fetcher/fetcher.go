// Package fetcher retrieves JSON listings from the open-data portals: a
// shared HTTP client and the sequential page walker used for the DPE dataset.
package fetcher

import (
	"context"
	"net/url"
)

// JSONGetter issues a GET request and returns the raw JSON body.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}
