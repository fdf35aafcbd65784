package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immo-dpe/dpe-search/internal/model"
)

var (
	lyon     = model.Point{Lat: 45.7640, Lon: 4.8357}
	lyonPart = model.Point{Lat: 45.7485, Lon: 4.8467}
	grenoble = model.Point{Lat: 45.1885, Lon: 5.7245}
)

func TestDistanceKM_SamePointIsZero(t *testing.T) {
	t.Parallel()

	for _, p := range []model.Point{lyon, grenoble, {Lat: 90, Lon: 180}, {Lat: -90, Lon: -180}, {}} {
		assert.Equal(t, 0.0, DistanceKM(p.Lat, p.Lon, p.Lat, p.Lon), "point %+v", p)
	}
}

func TestDistanceKM_Symmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]model.Point{
		{lyon, grenoble},
		{lyon, lyonPart},
		{{Lat: -33.86, Lon: 151.2}, {Lat: 51.5, Lon: -0.12}},
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 180}},
	}
	for _, p := range pairs {
		ab := DistanceBetween(p[0], p[1])
		ba := DistanceBetween(p[1], p[0])
		assert.InDelta(t, ab, ba, 1e-9)
		assert.False(t, math.IsNaN(ab))
	}
}

func TestDistanceKM_KnownDistances(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.9, DistanceBetween(lyon, lyonPart), 0.3)
	assert.InDelta(t, 94, DistanceBetween(lyon, grenoble), 5)
	// Half the equator.
	assert.InDelta(t, math.Pi*EarthRadiusKM, DistanceKM(0, 0, 0, 180), 1e-6)
}

func TestDistanceKM_InvalidInputIsNaN(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	assert.True(t, math.IsNaN(DistanceKM(nan, 4.8, 45, 4.8)))
	assert.True(t, math.IsNaN(DistanceKM(45, nan, 45, 4.8)))
	assert.True(t, math.IsNaN(DistanceKM(45, 4.8, math.Inf(1), 4.8)))
	assert.True(t, math.IsNaN(DistanceKM(91, 4.8, 45, 4.8)))
	assert.True(t, math.IsNaN(DistanceKM(45, 181, 45, 4.8)))

	// NaN never satisfies a radius comparison.
	assert.False(t, DistanceKM(nan, 0, 0, 0) <= 1000)
}

func TestCentroid(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Centroid(nil))
	assert.Nil(t, Centroid([]model.Point{}))

	c := Centroid([]model.Point{lyon})
	require.NotNil(t, c)
	assert.Equal(t, lyon, *c)

	c = Centroid([]model.Point{{Lat: 44, Lon: 4}, {Lat: 46, Lon: 6}})
	require.NotNil(t, c)
	assert.InDelta(t, 45, c.Lat, 1e-9)
	assert.InDelta(t, 5, c.Lon, 1e-9)
}
