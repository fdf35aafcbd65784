package geocode

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/model"
	"github.com/immo-dpe/dpe-search/internal/normalize"
)

// DefaultCacheTTL bounds how long a geocoding answer is reused.
const DefaultCacheTTL = time.Hour

type cacheEntry struct {
	ref     *model.GeoReference
	codes   []string
	expires time.Time
}

// CachedClient memoizes a Client in memory for a fixed TTL. Only positive
// answers are kept, so a place that failed once is retried next time.
type CachedClient struct {
	next Client
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedClient wraps next. A ttl <= 0 selects DefaultCacheTTL.
func NewCachedClient(next Client, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClient{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Resolve implements Client.
func (c *CachedClient) Resolve(ctx context.Context, place string) *model.GeoReference {
	key := "place:" + normalize.Fold(place)
	if e, ok := c.get(key); ok {
		zap.L().Debug("geocode cache hit", zap.String("place", place))
		return cloneRef(e.ref)
	}

	ref := c.next.Resolve(ctx, place)
	if ref != nil {
		c.put(key, cacheEntry{ref: cloneRef(ref)})
	}
	return ref
}

// ReversePostalCodes implements Client.
func (c *CachedClient) ReversePostalCodes(ctx context.Context, center model.Point, radiusKM float64) []string {
	key := fmt.Sprintf("reverse:%.5f,%.5f,%.3f", center.Lat, center.Lon, radiusKM)
	if e, ok := c.get(key); ok {
		return slices.Clone(e.codes)
	}

	codes := c.next.ReversePostalCodes(ctx, center, radiusKM)
	if len(codes) > 0 {
		c.put(key, cacheEntry{codes: slices.Clone(codes)})
	}
	return codes
}

func (c *CachedClient) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *CachedClient) put(key string, e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.expires = c.now().Add(c.ttl)
	c.entries[key] = e
}

func cloneRef(ref *model.GeoReference) *model.GeoReference {
	if ref == nil {
		return nil
	}
	out := *ref
	out.PostalCodes = slices.Clone(ref.PostalCodes)
	if ref.BBox != nil {
		bb := *ref.BBox
		out.BBox = &bb
	}
	return &out
}
