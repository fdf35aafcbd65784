package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/resilience"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	})
}

func TestHTTPFetcher_GetJSON_MergesParams(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	f := newTestFetcher()
	body, err := f.GetJSON(context.Background(), srv.URL+"/lines?select=a", url.Values{"q": {"Lyon 3e"}, "page": {"2"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(body))
	assert.Equal(t, "Lyon 3e", gotQuery.Get("q"))
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "a", gotQuery.Get("select"))
	assert.Equal(t, "test-agent", gotUA)
}

func TestHTTPFetcher_GetJSON_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestFetcher().GetJSON(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.True(t, resilience.IsTransient(err))
}

func TestHTTPFetcher_GetJSON_NotFoundIsPermanent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().GetJSON(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestHTTPFetcher_GetJSON_RetriesTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
	})
	body, err := f.GetJSON(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcher_GetJSON_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Timeout: 50 * time.Millisecond})
	_, err := f.GetJSON(context.Background(), srv.URL, nil)
	require.Error(t, err)
}

func TestHTTPFetcher_GetJSON_BadURL(t *testing.T) {
	t.Parallel()

	_, err := newTestFetcher().GetJSON(context.Background(), "://nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse url")
}
