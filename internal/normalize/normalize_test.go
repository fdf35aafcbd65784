package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immo-dpe/dpe-search/internal/model"
)

func TestNormalize_CurrentSchema(t *testing.T) {
	t.Parallel()

	raw := model.RawRecord{
		"numero_dpe":                 "2169E0123456X",
		"adresse_ban":                "12  Rue de la République 69002 Lyon",
		"code_postal_ban":            json.Number("69002"),
		"nom_commune_ban":            "Lyon",
		"code_insee_ban":             "69382",
		"etiquette_dpe":              "c",
		"etiquette_ges":              "A",
		"surface_habitable_logement": json.Number("72.5"),
		"date_etablissement_dpe":     "2023-04-11",
		"_geopoint":                  "45.7602,4.8357",
	}

	rec := New(nil).Normalize(raw)
	assert.Equal(t, "2169E0123456X", rec.RecordID)
	assert.Equal(t, "12 Rue de la République 69002 Lyon", rec.Address)
	assert.Equal(t, "69002", rec.PostalCode)
	assert.Equal(t, "Lyon", rec.City)
	assert.Equal(t, "69382", rec.CityCode)
	assert.Equal(t, model.ClassC, rec.EnergyClass)
	assert.Equal(t, model.ClassA, rec.EmissionsClass)
	require.NotNil(t, rec.SurfaceM2)
	assert.InDelta(t, 72.5, *rec.SurfaceM2, 1e-9)
	assert.Equal(t, "2023-04-11", rec.AssessmentDate)
	require.True(t, rec.Locatable())
	assert.InDelta(t, 45.7602, *rec.Latitude, 1e-9)
	assert.InDelta(t, 4.8357, *rec.Longitude, 1e-9)
}

func TestNormalize_LegacySchemaBuildsAddress(t *testing.T) {
	t.Parallel()

	raw := model.RawRecord{
		"numero_voie":                 json.Number("3"),
		"type_voie":                   "  AV",
		"nom_voie":                    "Jean Jaurès ",
		"code_postal":                 json.Number("1000"),
		"nom_commune":                 "Bourg-en-Bresse",
		"classe_consommation_energie": "D",
		"classe_estimation_ges":       "N",
		"surface":                     "48,3",
		"latitude":                    46.205,
		"longitude":                   5.225,
	}

	rec := New(nil).Normalize(raw)
	assert.Equal(t, "3 AV Jean Jaurès 01000 Bourg-en-Bresse", rec.Address)
	assert.Equal(t, "01000", rec.PostalCode)
	assert.Equal(t, model.ClassD, rec.EnergyClass)
	assert.Equal(t, model.Class(""), rec.EmissionsClass)
	require.NotNil(t, rec.SurfaceM2)
	assert.InDelta(t, 48.3, *rec.SurfaceM2, 1e-9)
	assert.True(t, rec.Locatable())
}

func TestNormalize_SkipsEmptyCandidates(t *testing.T) {
	t.Parallel()

	raw := model.RawRecord{
		"adresse":          "  ",
		"adresse_complete": "5 place Bellecour",
		"code_postal":      nil,
		"code_postal_brut": "69002",
	}

	rec := New(nil).Normalize(raw)
	assert.Equal(t, "5 place Bellecour", rec.Address)
	assert.Equal(t, "69002", rec.PostalCode)
}

func TestNormalize_IsTotal(t *testing.T) {
	t.Parallel()

	n := New(nil)
	inputs := []model.RawRecord{
		nil,
		{},
		{"latitude": "north", "longitude": []any{1, 2}, "surface": map[string]any{"x": 1}},
		{"numero_dpe": []any{"a"}, "etiquette_dpe": 4, "code_postal": true},
		{"latitude": 200.0, "longitude": 4.0},
		{"surface": "NaN", "lat": "Inf"},
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			rec := n.Normalize(raw)
			assert.Nil(t, rec.SurfaceM2)
			assert.False(t, rec.Locatable())
		})
	}

	empty := n.Normalize(model.RawRecord{})
	assert.Equal(t, model.CanonicalRecord{}, empty)
}

func TestNormalize_CoordinatesArePaired(t *testing.T) {
	t.Parallel()

	rec := New(nil).Normalize(model.RawRecord{"latitude": 45.0})
	assert.Nil(t, rec.Latitude)
	assert.Nil(t, rec.Longitude)

	rec = New(nil).Normalize(model.RawRecord{"latitude": 45.0, "_geopoint": "45.1,4.9"})
	require.True(t, rec.Locatable())
	assert.InDelta(t, 45.1, *rec.Latitude, 1e-9)
}

func TestNormalizeAll_PreservesOrderAndAssignsIDs(t *testing.T) {
	t.Parallel()

	raws := []model.RawRecord{
		{"numero_dpe": "A1"},
		{"adresse": "no id"},
		{"id": json.Number("42")},
	}
	recs := New(nil).NormalizeAll(raws)
	require.Len(t, recs, 3)
	assert.Equal(t, "A1", recs[0].RecordID)
	assert.Equal(t, "row-2", recs[1].RecordID)
	assert.Equal(t, "42", recs[2].RecordID)
}

func TestNormalize_CustomFieldMap(t *testing.T) {
	t.Parallel()

	fm := DefaultFieldMap.Merge(FieldMap{FieldEnergy: {"dpe_v3"}})
	rec := New(fm).Normalize(model.RawRecord{"dpe_v3": "b", "etiquette_dpe": "G"})
	assert.Equal(t, model.ClassB, rec.EnergyClass)

	// Defaults are still consulted after the override.
	rec = New(fm).Normalize(model.RawRecord{"etiquette_dpe": "G"})
	assert.Equal(t, model.ClassG, rec.EnergyClass)
}
