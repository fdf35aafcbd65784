package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/fetcher"
	"github.com/immo-dpe/dpe-search/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestGetter() fetcher.JSONGetter {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{UserAgent: "dpe-search-test", Timeout: 5 * time.Second})
}

// newJSONServer serves body for every request and records the last query.
func newJSONServer(t *testing.T, status int, body string, got *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			*got = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// stubProvider implements Provider for cascade tests.
type stubProvider struct {
	name      string
	available bool
	ref       *model.GeoReference
	err       error
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Resolve(_ context.Context, _ string) (*model.GeoReference, error) {
	s.calls++
	return s.ref, s.err
}

// countingClient implements Client and counts upstream calls.
type countingClient struct {
	ref          *model.GeoReference
	codes        []string
	resolveCalls int
	reverseCalls int
}

func (c *countingClient) Resolve(_ context.Context, _ string) *model.GeoReference {
	c.resolveCalls++
	return c.ref
}

func (c *countingClient) ReversePostalCodes(_ context.Context, _ model.Point, _ float64) []string {
	c.reverseCalls++
	return c.codes
}
