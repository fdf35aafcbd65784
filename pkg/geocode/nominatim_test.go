package geocode

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const nominatimVilleurbanne = `[{
  "place_id": 1,
  "lat": "45.7733",
  "lon": "4.8800",
  "display_name": "Villeurbanne, Lyon, Rhône, France",
  "boundingbox": ["45.7530", "45.7950", "4.8550", "4.9200"],
  "address": {"city": "Villeurbanne", "postcode": "69100", "country_code": "fr"}
}]`

func newTestNominatim(baseURL string) *NominatimProvider {
	return NewNominatimProvider(newTestGetter(), baseURL, WithNominatimLimiter(rate.NewLimiter(rate.Inf, 1)))
}

func TestNominatimProvider_Resolve(t *testing.T) {
	var got url.Values
	srv := newJSONServer(t, http.StatusOK, nominatimVilleurbanne, &got)

	ref, err := newTestNominatim(srv.URL).Resolve(context.Background(), "Villeurbanne")
	require.NoError(t, err)
	require.NotNil(t, ref)

	assert.Equal(t, "Villeurbanne, Lyon, Rhône, France", ref.Label)
	assert.InDelta(t, 45.7733, ref.Latitude, 1e-9)
	assert.InDelta(t, 4.88, ref.Longitude, 1e-9)
	assert.Equal(t, []string{"69100"}, ref.PostalCodes)
	require.NotNil(t, ref.BBox)
	assert.InDelta(t, 4.855, ref.BBox.MinLon, 1e-9)
	assert.InDelta(t, 45.795, ref.BBox.MaxLat, 1e-9)
	assert.Equal(t, "nominatim", ref.Source)

	assert.Equal(t, "json", got.Get("format"))
	assert.Equal(t, "fr", got.Get("countrycodes"))
}

func TestNominatimProvider_Empty(t *testing.T) {
	srv := newJSONServer(t, http.StatusOK, `[]`, nil)

	ref, err := newTestNominatim(srv.URL).Resolve(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestNominatimProvider_BadCoordinates(t *testing.T) {
	srv := newJSONServer(t, http.StatusOK, `[{"lat":"north","lon":"4.8"}]`, nil)

	_, err := newTestNominatim(srv.URL).Resolve(context.Background(), "Lyon")
	require.Error(t, err)
}

func TestNominatimProvider_Available(t *testing.T) {
	assert.False(t, NewNominatimProvider(newTestGetter(), "").Available())
	assert.True(t, NewNominatimProvider(newTestGetter(), DefaultNominatimURL).Available())
}

func TestParseNominatimBBox(t *testing.T) {
	assert.Nil(t, parseNominatimBBox(nil))
	assert.Nil(t, parseNominatimBBox([]string{"1", "2", "x", "4"}))
	bb := parseNominatimBBox([]string{"1", "2", "3", "4"})
	require.NotNil(t, bb)
	assert.Equal(t, 1.0, bb.MinLat)
	assert.Equal(t, 2.0, bb.MaxLat)
	assert.Equal(t, 3.0, bb.MinLon)
	assert.Equal(t, 4.0, bb.MaxLon)
}
