package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// WriteGeoJSON writes locatable records as a FeatureCollection of points
// with the tabular columns as properties. Records without coordinates are
// skipped.
func WriteGeoJSON(w io.Writer, records []model.CanonicalRecord) error {
	fc := geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, r := range records {
		p := r.Point()
		if p == nil {
			continue
		}
		props := make(map[string]any, len(Columns))
		for i, v := range row(r) {
			if v != "" {
				props[Columns[i]] = v
			}
		}
		if r.SurfaceM2 != nil {
			props["surface_m2"] = *r.SurfaceM2
		}
		if r.DistanceKM != nil {
			props["distance_km"] = *r.DistanceKM
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.RecordID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}),
			Properties: props,
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrap(err, "geojson: marshal")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "geojson: write")
	}
	return nil
}
