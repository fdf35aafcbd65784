package geocode

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/immo-dpe/dpe-search/internal/fetcher"
	"github.com/immo-dpe/dpe-search/internal/model"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// NominatimProvider geocodes through OpenStreetMap Nominatim. The public
// instance allows one request per second and requires an identifying
// User-Agent, which the underlying getter must send.
type NominatimProvider struct {
	getter  fetcher.JSONGetter
	baseURL string
	limiter *rate.Limiter
}

// NominatimOption configures a NominatimProvider.
type NominatimOption func(*NominatimProvider)

// WithNominatimLimiter replaces the default 1 req/s limiter.
func WithNominatimLimiter(l *rate.Limiter) NominatimOption {
	return func(p *NominatimProvider) {
		p.limiter = l
	}
}

// NewNominatimProvider creates a NominatimProvider. An empty baseURL disables
// the provider.
func NewNominatimProvider(getter fetcher.JSONGetter, baseURL string, opts ...NominatimOption) *NominatimProvider {
	p := &NominatimProvider{
		getter:  getter,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Available implements Provider.
func (p *NominatimProvider) Available() bool { return p.getter != nil && p.baseURL != "" }

type nominatimPlace struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"` // minlat, maxlat, minlon, maxlon
	Address     struct {
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// Resolve implements Provider.
func (p *NominatimProvider) Resolve(ctx context.Context, place string) (*model.GeoReference, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	body, err := p.getter.GetJSON(ctx, p.baseURL, url.Values{
		"q":              {place},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
		"countrycodes":   {"fr"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: search")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}
	if len(places) == 0 {
		return nil, nil
	}

	hit := places[0]
	lat, errLat := strconv.ParseFloat(hit.Lat, 64)
	lon, errLon := strconv.ParseFloat(hit.Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, eris.Errorf("nominatim: bad coordinates %q,%q", hit.Lat, hit.Lon)
	}

	ref := &model.GeoReference{
		Label:       hit.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
		PostalCodes: sortedSet([]string{hit.Address.Postcode}),
		BBox:        parseNominatimBBox(hit.BoundingBox),
		Source:      p.Name(),
	}
	if ref.Label == "" {
		ref.Label = place
	}
	return ref, nil
}

func parseNominatimBBox(bb []string) *model.BBox {
	if len(bb) != 4 {
		return nil
	}
	var v [4]float64
	for i, s := range bb {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		v[i] = f
	}
	return &model.BBox{MinLat: v[0], MaxLat: v[1], MinLon: v[2], MaxLon: v[3]}
}
