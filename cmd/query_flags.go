package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// queryFlags are the search parameters shared by "search" and "filters save".
type queryFlags struct {
	places       []string
	postalCodes  []string
	lat, lon     float64
	radius       float64
	expandRadius bool
	energy       []string
	emissions    []string
	surfaceMin   float64
	surfaceMax   float64
	pageSize     int
	pageCap      int
	enrich       bool
	maxEnrich    int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.places, "place", nil, "place name to search (repeatable or comma-separated)")
	fs.StringSliceVar(&f.postalCodes, "postal-code", nil, "postal code to search (repeatable or comma-separated)")
	fs.Float64Var(&f.lat, "lat", 0, "explicit center latitude (requires --lon)")
	fs.Float64Var(&f.lon, "lon", 0, "explicit center longitude (requires --lat)")
	fs.Float64Var(&f.radius, "radius", 0, "radius in km around the center, 0 disables the geographic filter")
	fs.BoolVar(&f.expandRadius, "expand-radius", false, "also fetch the postal codes found around the center")
	fs.StringSliceVar(&f.energy, "energy", nil, "energy classes to keep, e.g. A,B")
	fs.StringSliceVar(&f.emissions, "ges", nil, "emission (GES) classes to keep, e.g. A,B")
	fs.Float64Var(&f.surfaceMin, "surface-min", 0, "minimum habitable surface in m2")
	fs.Float64Var(&f.surfaceMax, "surface-max", 0, "maximum habitable surface in m2")
	fs.IntVar(&f.pageSize, "page-size", 0, "listing page size (default 300)")
	fs.IntVar(&f.pageCap, "page-cap", 0, "maximum pages per search term, 0 fetches all")
	fs.BoolVar(&f.enrich, "enrich", false, "attach DVF property sales to the results")
	fs.IntVar(&f.maxEnrich, "max-enrich", 0, "maximum addresses looked up for enrichment (default from config)")
}

// apply overlays the flags the user actually set onto base.
func (f *queryFlags) apply(cmd *cobra.Command, base model.SearchQuery) (model.SearchQuery, error) {
	q := base
	changed := cmd.Flags().Changed

	if changed("place") {
		q.Places = f.places
	}
	if changed("postal-code") {
		q.PostalCodes = f.postalCodes
	}
	if changed("lat") != changed("lon") {
		return q, eris.New("--lat and --lon must be set together")
	}
	if changed("lat") {
		q.Center = &model.Point{Lat: f.lat, Lon: f.lon}
	}
	if changed("radius") {
		q.RadiusKM = f.radius
	}
	if changed("expand-radius") {
		q.ExpandRadius = f.expandRadius
	}
	if changed("energy") {
		q.EnergyClasses = toClasses(f.energy)
	}
	if changed("ges") {
		q.EmissionsClasses = toClasses(f.emissions)
	}
	if changed("surface-min") {
		v := f.surfaceMin
		q.SurfaceMin = &v
	}
	if changed("surface-max") {
		v := f.surfaceMax
		q.SurfaceMax = &v
	}
	if changed("page-size") {
		q.PageSize = f.pageSize
	}
	if changed("page-cap") {
		q.PageCap = f.pageCap
	}
	if changed("enrich") {
		q.Enrich = f.enrich
	}
	if changed("max-enrich") {
		q.MaxEnrichAddresses = f.maxEnrich
	}
	return q, nil
}

func toClasses(in []string) []model.Class {
	out := make([]model.Class, 0, len(in))
	for _, s := range in {
		out = append(out, model.Class(s))
	}
	return out
}
