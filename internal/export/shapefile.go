package export

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// shpFields is the dBase layout. dBase names are limited to 10 characters.
var shpFields = []shp.Field{
	shp.StringField("RECORD_ID", 32),
	shp.StringField("ADDRESS", 254),
	shp.StringField("POSTCODE", 10),
	shp.StringField("CITY", 80),
	shp.StringField("DPE", 1),
	shp.StringField("GES", 1),
	shp.FloatField("SURFACE", 12, 2),
	shp.StringField("DATE", 10),
	shp.NumberField("N_SALES", 6),
	shp.FloatField("DIST_KM", 10, 3),
	shp.StringField("PROXIMITY", 8),
}

// WriteShapefile writes locatable records as a point layer at path (which
// must end in .shp; the .shx and .dbf siblings are created alongside).
// Records without coordinates are skipped.
func WriteShapefile(path string, records []model.CanonicalRecord) error {
	if !strings.HasSuffix(strings.ToLower(path), ".shp") {
		return eris.Errorf("shapefile: path %s must end in .shp", path)
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "shapefile: create %s", path)
	}
	if err := w.SetFields(shpFields); err != nil {
		w.Close()
		return eris.Wrap(err, "shapefile: set fields")
	}
	if err := writePoints(w, records); err != nil {
		w.Close()
		return err
	}
	w.Close()

	return fixDBFName(path)
}

// fixDBFName moves the attribute table to its conventional name. go-shp
// strips ".shp" from the path and then appends "dbf" without a dot.
func fixDBFName(path string) error {
	base := path[:len(path)-len(".shp")]
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrapf(err, "shapefile: rename attribute table of %s", path)
	}
	return nil
}

func writePoints(w *shp.Writer, records []model.CanonicalRecord) error {
	var skipped int
	for _, r := range records {
		p := r.Point()
		if p == nil {
			skipped++
			continue
		}
		idx := int(w.Write(&shp.Point{X: p.Lon, Y: p.Lat}))

		values := []any{
			truncate(r.RecordID, 32),
			truncate(r.Address, 254),
			r.PostalCode,
			truncate(r.City, 80),
			string(r.EnergyClass),
			string(r.EmissionsClass),
			nil,
			truncate(r.AssessmentDate, 10),
			len(r.Transactions),
			nil,
			r.Proximity,
		}
		if r.SurfaceM2 != nil {
			values[6] = *r.SurfaceM2
		}
		if r.DistanceKM != nil {
			values[9] = *r.DistanceKM
		}
		for field, v := range values {
			if v == nil {
				continue
			}
			if err := w.WriteAttribute(idx, field, v); err != nil {
				return eris.Wrapf(err, "shapefile: write attribute %d of %s", field, r.RecordID)
			}
		}
	}

	if skipped > 0 {
		zap.L().Debug("shapefile: skipped records without coordinates", zap.Int("skipped", skipped))
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
