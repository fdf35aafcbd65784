package geocode

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/fetcher"
	"github.com/immo-dpe/dpe-search/internal/geo"
	"github.com/immo-dpe/dpe-search/internal/model"
)

// DefaultGeoAPIURL is the geo.api.gouv.fr base URL.
const DefaultGeoAPIURL = "https://geo.api.gouv.fr"

// CommunesClient queries geo.api.gouv.fr for commune postal codes.
type CommunesClient struct {
	getter  fetcher.JSONGetter
	baseURL string
}

// NewCommunesClient creates a CommunesClient. An empty baseURL selects
// DefaultGeoAPIURL.
func NewCommunesClient(getter fetcher.JSONGetter, baseURL string) *CommunesClient {
	if baseURL == "" {
		baseURL = DefaultGeoAPIURL
	}
	return &CommunesClient{getter: getter, baseURL: strings.TrimRight(baseURL, "/")}
}

type commune struct {
	Code            string            `json:"code"`
	CodesPostaux    []string          `json:"codesPostaux"`
	CodeDepartement string            `json:"codeDepartement"`
	Centre          *geojson.Geometry `json:"centre"`
}

// PostalCodes returns every postal code of the commune with the given INSEE
// code. A large city spans several (Lyon has nine).
func (c *CommunesClient) PostalCodes(ctx context.Context, cityCode string) ([]string, error) {
	body, err := c.getter.GetJSON(ctx, c.baseURL+"/communes/"+url.PathEscape(cityCode), url.Values{
		"fields": {"codesPostaux"},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "communes: get %s", cityCode)
	}
	var com commune
	if err := json.Unmarshal(body, &com); err != nil {
		return nil, eris.Wrapf(err, "communes: decode %s", cityCode)
	}
	return sortedSet(com.CodesPostaux), nil
}

// ReversePostalCodes approximates the postal codes within radiusKM of center.
// The service has no radius query, so the disc is replaced by its bounding
// square: the communes under the centre and the four corners name the
// departments involved, then every commune of those departments whose centre
// falls in the square contributes its codes. Codes slightly outside the disc
// are expected; the distance filter removes their records later.
func (c *CommunesClient) ReversePostalCodes(ctx context.Context, center model.Point, radiusKM float64) []string {
	log := zap.L().With(zap.Float64("lat", center.Lat), zap.Float64("lon", center.Lon), zap.Float64("radius_km", radiusKM))

	square := geo.SquareAround(center, radiusKM)
	probes := append([]model.Point{center}, geo.Corners(square)...)

	var codes []string
	var departments []string
	for _, p := range probes {
		found, err := c.communesAt(ctx, p)
		if err != nil {
			log.Debug("communes: point lookup failed", zap.Error(err))
			continue
		}
		for _, com := range found {
			codes = append(codes, com.CodesPostaux...)
			if com.CodeDepartement != "" && !slices.Contains(departments, com.CodeDepartement) {
				departments = append(departments, com.CodeDepartement)
			}
		}
	}
	slices.Sort(departments)

	for _, dep := range departments {
		found, err := c.departmentCommunes(ctx, dep)
		if err != nil {
			log.Warn("communes: department lookup failed", zap.String("department", dep), zap.Error(err))
			continue
		}
		for _, com := range found {
			centre, ok := communeCentre(com)
			if ok && geo.Contains(square, centre) {
				codes = append(codes, com.CodesPostaux...)
			}
		}
	}

	out := sortedSet(codes)
	log.Debug("communes: reverse postal codes", zap.Strings("departments", departments), zap.Int("codes", len(out)))
	return out
}

func (c *CommunesClient) communesAt(ctx context.Context, p model.Point) ([]commune, error) {
	body, err := c.getter.GetJSON(ctx, c.baseURL+"/communes", url.Values{
		"lat":    {strconv.FormatFloat(p.Lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(p.Lon, 'f', 6, 64)},
		"fields": {"codesPostaux,codeDepartement"},
	})
	if err != nil {
		return nil, err
	}
	var out []commune
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "communes: decode point lookup")
	}
	return out, nil
}

func (c *CommunesClient) departmentCommunes(ctx context.Context, dep string) ([]commune, error) {
	body, err := c.getter.GetJSON(ctx, c.baseURL+"/departements/"+url.PathEscape(dep)+"/communes", url.Values{
		"fields": {"codesPostaux,centre"},
	})
	if err != nil {
		return nil, err
	}
	var out []commune
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "communes: decode department")
	}
	return out, nil
}

func communeCentre(com commune) (model.Point, bool) {
	if com.Centre == nil {
		return model.Point{}, false
	}
	g, err := com.Centre.Decode()
	if err != nil {
		return model.Point{}, false
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return model.Point{}, false
	}
	return model.Point{Lat: pt.Y(), Lon: pt.X()}, true
}
