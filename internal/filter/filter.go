// Package filter narrows normalized records to those matching a search query.
package filter

import (
	"slices"

	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/geo"
	"github.com/immo-dpe/dpe-search/internal/model"
)

// Stage is one predicate of the filter chain. Active reports whether the
// query constrains this stage at all; inactive stages are skipped.
type Stage struct {
	Name   string
	Active func(q model.SearchQuery) bool
	Keep   func(r model.CanonicalRecord, q model.SearchQuery) bool
}

// Stages is the fixed evaluation order: cheap field checks first, the
// geodesic distance last.
var Stages = []Stage{
	{Name: "locatable", Active: model.SearchQuery.HasRadius, Keep: keepLocatable},
	{Name: "classes", Active: hasClasses, Keep: keepClasses},
	{Name: "surface", Active: model.SearchQuery.HasSurfaceRange, Keep: keepSurface},
	{Name: "postal_code", Active: hasPostalCodes, Keep: keepPostalCode},
	{Name: "radius", Active: model.SearchQuery.HasRadius, Keep: keepWithinRadius},
}

// Apply returns the records of in that pass every active stage, in input
// order. The input slice and its records are never modified and the result
// never aliases it.
func Apply(in []model.CanonicalRecord, q model.SearchQuery) []model.CanonicalRecord {
	out := slices.Clone(in)
	if out == nil {
		out = []model.CanonicalRecord{}
	}

	for _, st := range Stages {
		if !st.Active(q) {
			continue
		}
		before := len(out)
		out = slices.DeleteFunc(out, func(r model.CanonicalRecord) bool {
			return !st.Keep(r, q)
		})
		zap.L().Debug("filter: stage applied",
			zap.String("stage", st.Name),
			zap.Int("in", before),
			zap.Int("out", len(out)),
		)
		if len(out) == 0 {
			break
		}
	}
	return out
}

func keepLocatable(r model.CanonicalRecord, _ model.SearchQuery) bool {
	return r.Locatable()
}

func hasClasses(q model.SearchQuery) bool {
	return len(q.EnergyClasses) > 0 || len(q.EmissionsClasses) > 0
}

// keepClasses treats an empty selection on an axis as "any class", including
// an unknown one.
func keepClasses(r model.CanonicalRecord, q model.SearchQuery) bool {
	if len(q.EnergyClasses) > 0 && !slices.Contains(q.EnergyClasses, r.EnergyClass) {
		return false
	}
	if len(q.EmissionsClasses) > 0 && !slices.Contains(q.EmissionsClasses, r.EmissionsClass) {
		return false
	}
	return true
}

// keepSurface applies the inclusive range. A record without a surface cannot
// be shown to satisfy a bound and is dropped.
func keepSurface(r model.CanonicalRecord, q model.SearchQuery) bool {
	if r.SurfaceM2 == nil {
		return false
	}
	s := *r.SurfaceM2
	if q.SurfaceMin != nil && s < *q.SurfaceMin {
		return false
	}
	if q.SurfaceMax != nil && s > *q.SurfaceMax {
		return false
	}
	return true
}

func hasPostalCodes(q model.SearchQuery) bool {
	return len(q.PostalCodes) > 0
}

func keepPostalCode(r model.CanonicalRecord, q model.SearchQuery) bool {
	return slices.Contains(q.PostalCodes, r.PostalCode)
}

// keepWithinRadius relies on DistanceKM returning NaN for bad coordinates:
// NaN <= radius is false.
func keepWithinRadius(r model.CanonicalRecord, q model.SearchQuery) bool {
	p := r.Point()
	if p == nil {
		return false
	}
	return geo.DistanceBetween(*q.Center, *p) <= q.RadiusKM
}
