package normalize

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// Normalizer converts raw rows using a FieldMap.
type Normalizer struct {
	fields FieldMap
}

// New creates a Normalizer. A nil map selects DefaultFieldMap.
func New(fields FieldMap) *Normalizer {
	if fields == nil {
		fields = DefaultFieldMap
	}
	return &Normalizer{fields: fields}
}

// lookup returns the value of the first candidate key that is present and
// not empty.
func (n *Normalizer) lookup(raw model.RawRecord, field string) any {
	for _, key := range n.fields[field] {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func (n *Normalizer) text(raw model.RawRecord, field string) string {
	return Text(n.lookup(raw, field))
}

// Normalize maps one raw row to a CanonicalRecord. It never fails: missing
// or malformed values become nil (numbers, coordinates) or "" (text,
// classes).
func (n *Normalizer) Normalize(raw model.RawRecord) (rec model.CanonicalRecord) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("normalize: recovered from malformed record", zap.Any("panic", r))
			rec = model.CanonicalRecord{}
		}
	}()

	rec.RecordID = n.text(raw, FieldRecordID)
	rec.PostalCode = PostalCode(n.lookup(raw, FieldPostalCode))
	rec.City = n.text(raw, FieldCity)
	rec.CityCode = PostalCode(n.lookup(raw, FieldCityCode))
	rec.Address = n.address(raw, rec.PostalCode, rec.City)
	rec.EnergyClass = ParseClass(n.lookup(raw, FieldEnergy))
	rec.EmissionsClass = ParseClass(n.lookup(raw, FieldEmissions))
	rec.SurfaceM2 = ParseFloat(n.lookup(raw, FieldSurface))
	rec.AssessmentDate = n.text(raw, FieldDate)

	lat := ParseFloat(n.lookup(raw, FieldLatitude))
	lon := ParseFloat(n.lookup(raw, FieldLongitude))
	if lat == nil || lon == nil {
		lat, lon = parseGeoPoint(n.lookup(raw, FieldGeoPoint))
	}
	if lat != nil && lon != nil && *lat >= -90 && *lat <= 90 && *lon >= -180 && *lon <= 180 {
		rec.Latitude, rec.Longitude = lat, lon
	}
	return rec
}

func (n *Normalizer) address(raw model.RawRecord, postalCode, city string) string {
	if full := n.text(raw, FieldAddress); full != "" {
		return strings.Join(strings.Fields(full), " ")
	}
	parts := []string{
		n.text(raw, FieldHouseNumber),
		n.text(raw, FieldStreetType),
		n.text(raw, FieldStreetName),
		postalCode,
		city,
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// NormalizeAll normalizes rows in order. Rows without a source identifier
// get "row-N" (1-based position) so they can still be told apart.
func (n *Normalizer) NormalizeAll(raws []model.RawRecord) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, 0, len(raws))
	for i, raw := range raws {
		rec := n.Normalize(raw)
		if rec.RecordID == "" {
			rec.RecordID = fmt.Sprintf("row-%d", i+1)
		}
		out = append(out, rec)
	}
	return out
}

// SourceID returns the upstream identifier of raw, or "" when it has none.
func (n *Normalizer) SourceID(raw model.RawRecord) string {
	return n.text(raw, FieldRecordID)
}
