package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immo-dpe/dpe-search/internal/model"
)

func ptr[T any](v T) *T { return &v }

func rec(id string, lat, lon float64) model.CanonicalRecord {
	return model.CanonicalRecord{RecordID: id, Latitude: ptr(lat), Longitude: ptr(lon)}
}

func ids(recs []model.CanonicalRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.RecordID)
	}
	return out
}

var lyon = model.Point{Lat: 45.7640, Lon: 4.8357}

func TestApply_RadiusKeepsNearAndDropsFar(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		rec("near", 45.7485, 4.8467),
		rec("grenoble", 45.1885, 5.7245),
	}
	q := model.SearchQuery{Center: &lyon, RadiusKM: 5}

	assert.Equal(t, []string{"near"}, ids(Apply(records, q)))
}

func TestApply_DropsUnlocatableWhenRadiusSet(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		{RecordID: "no-coords"},
		{RecordID: "half", Latitude: ptr(45.76)},
		rec("here", 45.7640, 4.8357),
	}

	got := Apply(records, model.SearchQuery{Center: &lyon, RadiusKM: 1})
	assert.Equal(t, []string{"here"}, ids(got))

	// Without a geographic constraint, coordinates are not required.
	got = Apply(records, model.SearchQuery{})
	assert.Len(t, got, 3)

	// A center without a positive radius is not a constraint either.
	got = Apply(records, model.SearchQuery{Center: &lyon})
	assert.Len(t, got, 3)
}

func TestApply_EnergyClasses(t *testing.T) {
	t.Parallel()

	q := model.SearchQuery{EnergyClasses: []model.Class{model.ClassA, model.ClassB}}

	d := model.CanonicalRecord{RecordID: "d", EnergyClass: model.ClassD}
	assert.Empty(t, Apply([]model.CanonicalRecord{d}, q))

	a := model.CanonicalRecord{RecordID: "a", EnergyClass: model.ClassA}
	assert.Equal(t, []string{"a"}, ids(Apply([]model.CanonicalRecord{a}, q)))
}

func TestApply_EmptyClassSetIsUnrestricted(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		{RecordID: "g", EnergyClass: model.ClassG, EmissionsClass: model.ClassG},
		{RecordID: "unknown"},
	}
	assert.Len(t, Apply(records, model.SearchQuery{}), 2)

	q := model.SearchQuery{EmissionsClasses: []model.Class{model.ClassG}}
	assert.Equal(t, []string{"g"}, ids(Apply(records, q)))
}

func TestApply_SurfaceRange(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		{RecordID: "small", SurfaceM2: ptr(20.0)},
		{RecordID: "low-edge", SurfaceM2: ptr(30.0)},
		{RecordID: "mid", SurfaceM2: ptr(55.0)},
		{RecordID: "high-edge", SurfaceM2: ptr(80.0)},
		{RecordID: "big", SurfaceM2: ptr(120.0)},
		{RecordID: "unknown"},
	}

	got := Apply(records, model.SearchQuery{SurfaceMin: ptr(30.0), SurfaceMax: ptr(80.0)})
	assert.Equal(t, []string{"low-edge", "mid", "high-edge"}, ids(got))

	got = Apply(records, model.SearchQuery{SurfaceMin: ptr(100.0)})
	assert.Equal(t, []string{"big"}, ids(got))

	// No bounds: unknown surfaces survive.
	assert.Len(t, Apply(records, model.SearchQuery{}), len(records))
}

func TestApply_PostalCodes(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		{RecordID: "1", PostalCode: "69001"},
		{RecordID: "3", PostalCode: "69003"},
		{RecordID: "none"},
	}
	got := Apply(records, model.SearchQuery{PostalCodes: []string{"69003", "69007"}})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestApply_CombinedStages(t *testing.T) {
	t.Parallel()

	near := rec("near-a", 45.7485, 4.8467)
	near.EnergyClass = model.ClassA
	near.SurfaceM2 = ptr(60.0)
	near.PostalCode = "69007"

	nearD := near
	nearD.RecordID = "near-d"
	nearD.EnergyClass = model.ClassD

	far := rec("far-a", 45.1885, 5.7245)
	far.EnergyClass = model.ClassA
	far.SurfaceM2 = ptr(60.0)
	far.PostalCode = "69007"

	q := model.SearchQuery{
		Center:        &lyon,
		RadiusKM:      5,
		EnergyClasses: []model.Class{model.ClassA, model.ClassB},
		SurfaceMin:    ptr(40.0),
		PostalCodes:   []string{"69007"},
	}
	assert.Equal(t, []string{"near-a"}, ids(Apply([]model.CanonicalRecord{near, nearD, far}, q)))
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		rec("a", 45.7485, 4.8467),
		rec("b", 45.1885, 5.7245),
		{RecordID: "c"},
	}
	records[0].EnergyClass = model.ClassB
	q := model.SearchQuery{Center: &lyon, RadiusKM: 5, EnergyClasses: []model.Class{model.ClassB}}

	once := Apply(records, q)
	twice := Apply(once, q)
	assert.Equal(t, once, twice)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		rec("a", 45.1885, 5.7245),
		rec("b", 45.7485, 4.8467),
	}
	snapshot := append([]model.CanonicalRecord(nil), records...)

	got := Apply(records, model.SearchQuery{Center: &lyon, RadiusKM: 5})
	require.Len(t, got, 1)
	assert.Equal(t, snapshot, records)

	got[0].RecordID = "changed"
	assert.Equal(t, "b", records[1].RecordID)
}

func TestApply_EmptyInput(t *testing.T) {
	t.Parallel()

	got := Apply(nil, model.SearchQuery{Center: &lyon, RadiusKM: 5})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
