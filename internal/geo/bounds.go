package geo

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// franceCenter frames metropolitan France when nothing else is known.
var franceCenter = model.Point{Lat: 46.6, Lon: 2.6}

// SquareAround returns the lon/lat square enclosing a disc of radiusKM around
// center. Latitude uses the fixed 111 km/degree approximation; the longitude
// half-width is widened by 1/cos(lat) so the square never clips the disc.
func SquareAround(center model.Point, radiusKM float64) *geom.Bounds {
	dLat := radiusKM / KMPerDegreeLat
	dLon := dLat
	if c := math.Cos(radians(center.Lat)); c > 0.01 {
		dLon = dLat / c
	}
	return geom.NewBounds(geom.XY).Set(
		center.Lon-dLon, center.Lat-dLat,
		center.Lon+dLon, center.Lat+dLat,
	)
}

// Corners returns the four corners of b as points.
func Corners(b *geom.Bounds) []model.Point {
	return []model.Point{
		{Lat: b.Min(1), Lon: b.Min(0)},
		{Lat: b.Min(1), Lon: b.Max(0)},
		{Lat: b.Max(1), Lon: b.Min(0)},
		{Lat: b.Max(1), Lon: b.Max(0)},
	}
}

// Contains reports whether p lies inside b, edges included.
func Contains(b *geom.Bounds, p model.Point) bool {
	return b.OverlapsPoint(geom.XY, geom.Coord{p.Lon, p.Lat})
}

// ToBBox converts go-geom bounds to the model representation.
func ToBBox(b *geom.Bounds) *model.BBox {
	if b == nil || b.IsEmpty() {
		return nil
	}
	return &model.BBox{MinLon: b.Min(0), MinLat: b.Min(1), MaxLon: b.Max(0), MaxLat: b.Max(1)}
}

// Extent frames a set of geocoded references for a map: centroid of their
// coordinates, union of their bounding boxes and a coarse zoom level.
func Extent(refs []model.GeoReference) model.Extent {
	points := make([]model.Point, 0, len(refs))
	union := geom.NewBounds(geom.XY)
	for _, r := range refs {
		points = append(points, r.Point())
		if r.BBox != nil {
			union.Extend(geom.NewPointFlat(geom.XY, []float64{r.BBox.MinLon, r.BBox.MinLat}))
			union.Extend(geom.NewPointFlat(geom.XY, []float64{r.BBox.MaxLon, r.BBox.MaxLat}))
		}
	}

	center := Centroid(points)
	if center == nil {
		return model.Extent{Center: franceCenter, Zoom: 5}
	}

	if union.IsEmpty() {
		zoom := 6.0
		if len(refs) == 1 {
			zoom = 8
		}
		return model.Extent{Center: *center, Zoom: zoom}
	}

	span := math.Max(union.Max(0)-union.Min(0), union.Max(1)-union.Min(1))
	return model.Extent{Center: *center, Zoom: zoomForSpan(span), BBox: ToBBox(union)}
}

func zoomForSpan(span float64) float64 {
	switch {
	case span <= 0.2:
		return 11
	case span <= 0.5:
		return 9
	case span <= 1.5:
		return 8
	case span <= 3:
		return 7
	default:
		return 6
	}
}
