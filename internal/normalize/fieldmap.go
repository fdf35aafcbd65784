// Package normalize maps heterogeneous DPE listing rows onto model.CanonicalRecord.
package normalize

import (
	"errors"
	"io"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Canonical field names used as FieldMap keys.
const (
	FieldRecordID    = "record_id"
	FieldAddress     = "address"
	FieldHouseNumber = "house_number"
	FieldStreetType  = "street_type"
	FieldStreetName  = "street_name"
	FieldPostalCode  = "postal_code"
	FieldCity        = "city"
	FieldCityCode    = "city_code"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
	FieldGeoPoint    = "geopoint"
	FieldEnergy      = "energy_class"
	FieldEmissions   = "emissions_class"
	FieldSurface     = "surface_m2"
	FieldDate        = "assessment_date"
)

// FieldMap lists, per canonical field, the source keys to try in order.
type FieldMap map[string][]string

// DefaultFieldMap covers the key names seen across the DPE dataset versions
// (pre-2021 "dpe-france" and the current "dpe-v2-logements-existants").
var DefaultFieldMap = FieldMap{
	FieldRecordID:    {"numero_dpe", "N°DPE", "identifiant_dpe", "id", "_id", "numero"},
	FieldAddress:     {"adresse", "adresse_complete", "adresse_logement", "adresse_ban", "geo_adresse", "adresse_brut"},
	FieldHouseNumber: {"numero_voie", "numero_rue", "numero_voie_ban"},
	FieldStreetType:  {"type_voie"},
	FieldStreetName:  {"nom_voie", "nom_rue", "nom_rue_ban"},
	FieldPostalCode:  {"code_postal", "code_postal_ban", "code_postal_brut", "code_postal_commune"},
	FieldCity:        {"nom_commune", "commune", "nom_commune_ban", "nom_commune_brut"},
	FieldCityCode:    {"code_insee_commune_actualise", "code_insee_commune", "code_insee_ban"},
	FieldLatitude:    {"latitude", "lat"},
	FieldLongitude:   {"longitude", "lon", "lng"},
	FieldGeoPoint:    {"_geopoint", "geo_point"},
	FieldEnergy:      {"classe_consommation_energie", "etiquette_dpe", "classe_energie", "classe_dpe", "dpe"},
	FieldEmissions:   {"classe_estimation_ges", "etiquette_ges", "classe_ges", "classe_emission_ges", "ges"},
	FieldSurface:     {"surface_habitable_logement", "surface_habitable", "surface_thermique_lot", "surface", "surface_m2"},
	FieldDate:        {"date_etablissement_dpe", "date_dpe", "date_reception_dpe"},
}

// Clone returns a deep copy of m.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Merge returns a copy of m where each field listed in overrides gets the
// override keys first, followed by its existing keys not already listed.
func (m FieldMap) Merge(overrides FieldMap) FieldMap {
	out := m.Clone()
	for field, keys := range overrides {
		merged := slices.Clone(keys)
		for _, k := range out[field] {
			if !slices.Contains(merged, k) {
				merged = append(merged, k)
			}
		}
		out[field] = merged
	}
	return out
}

// LoadFieldMap reads YAML overrides of the form
//
//	energy_class: [etiquette_dpe_v3]
//	surface_m2: [surface_utile]
//
// and merges them ahead of DefaultFieldMap.
func LoadFieldMap(r io.Reader) (FieldMap, error) {
	var overrides FieldMap
	if err := yaml.NewDecoder(r).Decode(&overrides); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultFieldMap.Clone(), nil
		}
		return nil, eris.Wrap(err, "normalize: decode field map")
	}
	for field := range overrides {
		if _, ok := DefaultFieldMap[field]; !ok {
			return nil, eris.Errorf("normalize: unknown field %q in field map", field)
		}
	}
	return DefaultFieldMap.Merge(overrides), nil
}
