// Package geocode resolves French place names to coordinates and postal codes
// using the Base Adresse Nationale (primary), Nominatim (fallback) and the
// geo.api.gouv.fr communes service for postal-code lookups.
package geocode

import (
	"context"
	"slices"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// Client resolves places. Both methods swallow transport and decoding
// failures: a nil reference or an empty code list is a normal outcome.
type Client interface {
	// Resolve returns the best match for a place name, or nil.
	Resolve(ctx context.Context, place string) *model.GeoReference

	// ReversePostalCodes returns the sorted postal codes of the communes
	// intersecting (approximately) a disc of radiusKM around center.
	ReversePostalCodes(ctx context.Context, center model.Point, radiusKM float64) []string
}

// Provider is a single forward-geocoding backend. A nil reference with a
// nil error means the backend answered but found nothing.
type Provider interface {
	Name() string
	Available() bool
	Resolve(ctx context.Context, place string) (*model.GeoReference, error)
}

// sortedSet returns the distinct non-empty values of in, sorted. The result
// is never nil.
func sortedSet(in ...[]string) []string {
	out := []string{}
	for _, list := range in {
		for _, v := range list {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
