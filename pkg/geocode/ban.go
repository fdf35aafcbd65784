package geocode

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/immo-dpe/dpe-search/internal/fetcher"
	"github.com/immo-dpe/dpe-search/internal/geo"
	"github.com/immo-dpe/dpe-search/internal/model"
)

// DefaultBANURL is the api-adresse search endpoint.
const DefaultBANURL = "https://api-adresse.data.gouv.fr/search/"

// BANProvider geocodes municipalities through the Base Adresse Nationale.
type BANProvider struct {
	getter  fetcher.JSONGetter
	baseURL string
	kind    string
}

// NewBANProvider creates a BANProvider. An empty baseURL selects
// DefaultBANURL.
func NewBANProvider(getter fetcher.JSONGetter, baseURL string) *BANProvider {
	if baseURL == "" {
		baseURL = DefaultBANURL
	}
	return &BANProvider{getter: getter, baseURL: baseURL, kind: "municipality"}
}

// Name implements Provider.
func (p *BANProvider) Name() string { return "ban" }

// Available implements Provider.
func (p *BANProvider) Available() bool { return p.getter != nil }

// Resolve implements Provider.
func (p *BANProvider) Resolve(ctx context.Context, place string) (*model.GeoReference, error) {
	body, err := p.getter.GetJSON(ctx, p.baseURL, url.Values{
		"q":     {place},
		"type":  {p.kind},
		"limit": {"1"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "ban: search")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, eris.Wrap(err, "ban: decode feature collection")
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	f := fc.Features[0]
	pt, ok := f.Geometry.(*geom.Point)
	if !ok || pt == nil {
		return nil, eris.Errorf("ban: unexpected geometry %T", f.Geometry)
	}

	ref := &model.GeoReference{
		Label:       propString(f.Properties, "label"),
		Latitude:    pt.Y(),
		Longitude:   pt.X(),
		PostalCodes: sortedSet([]string{propString(f.Properties, "postcode")}),
		CityCode:    propString(f.Properties, "citycode"),
		BBox:        geo.ToBBox(f.BBox),
		Source:      p.Name(),
	}
	if ref.Label == "" {
		ref.Label = place
	}
	return ref, nil
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}
