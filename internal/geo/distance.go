// Package geo provides the geodesic helpers shared by geocoding and filtering.
package geo

import (
	"math"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// EarthRadiusKM is the mean Earth radius used by DistanceKM.
const EarthRadiusKM = 6371.0

// KMPerDegreeLat approximates the length of one degree of latitude.
const KMPerDegreeLat = 111.0

// DistanceKM returns the great-circle distance between two coordinates using
// the haversine formula. It returns NaN when any input is NaN, infinite or
// outside the valid latitude/longitude range, so a `<= radius` comparison
// simply fails.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	if !validLat(lat1) || !validLat(lat2) || !validLon(lon1) || !validLon(lon2) {
		return math.NaN()
	}

	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a fractionally above 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceBetween is DistanceKM over two points.
func DistanceBetween(a, b model.Point) float64 {
	return DistanceKM(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Centroid returns the arithmetic mean of the points, or nil for no points.
// This is a planar approximation: fine for the few-hundred-km spans a search
// covers, wrong across the antimeridian or near the poles.
func Centroid(points []model.Point) *model.Point {
	if len(points) == 0 {
		return nil
	}
	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return &model.Point{Lat: lat / n, Lon: lon / n}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func validLat(v float64) bool {
	return !math.IsNaN(v) && v >= -90 && v <= 90
}

func validLon(v float64) bool {
	return !math.IsNaN(v) && v >= -180 && v <= 180
}
