package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// --- Geocoder Mock ---

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Resolve(ctx context.Context, place string) *model.GeoReference {
	args := m.Called(ctx, place)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.GeoReference)
}

func (m *mockGeocoder) ReversePostalCodes(ctx context.Context, center model.Point, radiusKM float64) []string {
	args := m.Called(ctx, center, radiusKM)
	return args.Get(0).([]string)
}

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchAll(ctx context.Context, queryText string, pageSize, pageCap int) []model.RawRecord {
	args := m.Called(ctx, queryText, pageSize, pageCap)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.RawRecord)
}

// --- Enricher Mock ---

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Enrich(ctx context.Context, addresses []string, maxAddresses int) map[string][]model.TransactionRecord {
	args := m.Called(ctx, addresses, maxAddresses)
	return args.Get(0).(map[string][]model.TransactionRecord)
}
