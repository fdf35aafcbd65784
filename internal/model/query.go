package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultPageSize is the listing page size used when a query does not set one.
const DefaultPageSize = 300

// SearchQuery is the full parameter set of one search. The JSON form is what
// the filter store persists, so every field must survive a round trip.
type SearchQuery struct {
	Places      []string `json:"places,omitempty"`
	PostalCodes []string `json:"postal_codes,omitempty"`

	// Center is an explicit or click-selected point. When nil and RadiusKM is
	// positive, the centroid of the resolved places is used.
	Center   *Point  `json:"center,omitempty"`
	RadiusKM float64 `json:"radius_km,omitempty"`

	// ExpandRadius adds the postal codes found around Center to the fetch scope.
	ExpandRadius bool `json:"expand_radius,omitempty"`

	EnergyClasses    []Class  `json:"energy_classes,omitempty"`
	EmissionsClasses []Class  `json:"emissions_classes,omitempty"`
	SurfaceMin       *float64 `json:"surface_min,omitempty"`
	SurfaceMax       *float64 `json:"surface_max,omitempty"`

	PageSize int `json:"page_size,omitempty"`
	PageCap  int `json:"page_cap,omitempty"` // 0 fetches every page

	Enrich             bool `json:"enrich,omitempty"`
	MaxEnrichAddresses int  `json:"max_enrich_addresses,omitempty"`
}

// HasRadius reports whether the radius stage applies.
func (q SearchQuery) HasRadius() bool {
	return q.Center != nil && q.RadiusKM > 0
}

// HasSurfaceRange reports whether any surface bound is set.
func (q SearchQuery) HasSurfaceRange() bool {
	return q.SurfaceMin != nil || q.SurfaceMax != nil
}

// Validate returns a cleaned copy of q: trimmed and de-duplicated lists,
// upper-cased classes and a default page size. The receiver is not modified.
func (q SearchQuery) Validate() (SearchQuery, error) {
	out := q
	out.Places = cleanList(q.Places, strings.TrimSpace)
	out.PostalCodes = cleanList(q.PostalCodes, func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	})

	if len(out.Places) == 0 && len(out.PostalCodes) == 0 {
		return q, eris.New("query: at least one place or postal code is required")
	}
	if q.RadiusKM < 0 {
		return q, eris.Errorf("query: negative radius %v", q.RadiusKM)
	}
	if q.Center != nil {
		if q.Center.Lat < -90 || q.Center.Lat > 90 || q.Center.Lon < -180 || q.Center.Lon > 180 {
			return q, eris.Errorf("query: center (%v, %v) out of range", q.Center.Lat, q.Center.Lon)
		}
		c := *q.Center
		out.Center = &c
	}
	if q.SurfaceMin != nil && q.SurfaceMax != nil && *q.SurfaceMin > *q.SurfaceMax {
		return q, eris.Errorf("query: surface min %v greater than max %v", *q.SurfaceMin, *q.SurfaceMax)
	}
	if q.PageCap < 0 {
		return q, eris.Errorf("query: negative page cap %d", q.PageCap)
	}
	if q.PageSize < 0 {
		return q, eris.Errorf("query: negative page size %d", q.PageSize)
	}
	if out.PageSize == 0 {
		out.PageSize = DefaultPageSize
	}

	var err error
	if out.EnergyClasses, err = cleanClasses(q.EnergyClasses); err != nil {
		return q, eris.Wrap(err, "query: energy classes")
	}
	if out.EmissionsClasses, err = cleanClasses(q.EmissionsClasses); err != nil {
		return q, eris.Wrap(err, "query: emissions classes")
	}
	return out, nil
}

// ScopeTerms returns the server-side search terms: places first, then postal
// codes, in input order.
func (q SearchQuery) ScopeTerms() []string {
	terms := make([]string, 0, len(q.Places)+len(q.PostalCodes))
	terms = append(terms, q.Places...)
	terms = append(terms, q.PostalCodes...)
	return terms
}

func cleanList(in []string, clean func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = clean(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanClasses(in []Class) ([]Class, error) {
	if len(in) == 0 {
		return nil, nil
	}
	seen := make(map[Class]bool, len(in))
	out := make([]Class, 0, len(in))
	for _, c := range in {
		c = Class(strings.ToUpper(strings.TrimSpace(string(c))))
		if !c.Valid() {
			return nil, eris.Errorf("invalid class %q", c)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
