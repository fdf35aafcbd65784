// Package pipeline wires geocoding, paginated fetching, normalization,
// filtering and enrichment into one search.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/filter"
	"github.com/immo-dpe/dpe-search/internal/geo"
	"github.com/immo-dpe/dpe-search/internal/model"
	"github.com/immo-dpe/dpe-search/internal/normalize"
	"github.com/immo-dpe/dpe-search/pkg/geocode"
)

// Fetcher retrieves every raw listing row matching a free-text query.
type Fetcher interface {
	FetchAll(ctx context.Context, queryText string, pageSize, pageCap int) []model.RawRecord
}

// Enricher attaches transactions to addresses.
type Enricher interface {
	Enrich(ctx context.Context, addresses []string, maxAddresses int) map[string][]model.TransactionRecord
}

// Defaults fill query fields left at their zero value.
type Defaults struct {
	PageSize           int
	PageCap            int
	MaxEnrichAddresses int
}

// Pipeline runs searches. It holds no per-search state and may be shared.
type Pipeline struct {
	geocoder   geocode.Client
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	enricher   Enricher
	defaults   Defaults
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEnricher enables transaction enrichment for queries that ask for it.
func WithEnricher(e Enricher) Option {
	return func(p *Pipeline) { p.enricher = e }
}

// WithDefaults sets the query defaults.
func WithDefaults(d Defaults) Option {
	return func(p *Pipeline) { p.defaults = d }
}

// New creates a Pipeline. A nil normalizer uses the default field map.
func New(gc geocode.Client, f Fetcher, n *normalize.Normalizer, opts ...Option) *Pipeline {
	if n == nil {
		n = normalize.New(nil)
	}
	p := &Pipeline{geocoder: gc, fetcher: f, normalizer: n}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search runs one query end to end. It only fails on an invalid query; every
// remote failure degrades to fewer (or zero) records.
func (p *Pipeline) Search(ctx context.Context, query model.SearchQuery) (*model.SearchResult, error) {
	if query.PageSize == 0 {
		query.PageSize = p.defaults.PageSize
	}
	q, err := query.Validate()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: invalid query")
	}
	if q.PageCap == 0 {
		q.PageCap = p.defaults.PageCap
	}
	if q.Enrich && q.MaxEnrichAddresses == 0 {
		q.MaxEnrichAddresses = p.defaults.MaxEnrichAddresses
	}

	result := &model.SearchResult{ID: uuid.NewString()}
	log := zap.L().With(zap.String("search_id", result.ID))
	log.Info("pipeline: starting search",
		zap.Strings("places", q.Places),
		zap.Strings("postal_codes", q.PostalCodes),
		zap.Float64("radius_km", q.RadiusKM),
	)
	start := time.Now()

	timed(log, "geocode", func() {
		result.References, result.Unresolved = p.geocode(ctx, q.Places)
	})

	q.Center = p.center(log, q, result.References)
	result.Center = q.Center

	terms := q.ScopeTerms()
	if q.ExpandRadius && q.HasRadius() && p.geocoder != nil {
		timed(log, "reverse_postal_codes", func() {
			terms = appendNew(terms, p.geocoder.ReversePostalCodes(ctx, *q.Center, q.RadiusKM))
		})
	}

	var raws []model.RawRecord
	timed(log, "fetch", func() {
		raws = p.fetch(ctx, log, terms, q)
	})
	result.RawCount = len(raws)

	var records []model.CanonicalRecord
	timed(log, "normalize_filter", func() {
		records = filter.Apply(p.normalizer.NormalizeAll(raws), q)
	})
	if q.Center != nil {
		annotateDistance(records, *q.Center, q.RadiusKM)
	}

	if q.Enrich && p.enricher != nil && len(records) > 0 {
		timed(log, "enrich", func() {
			p.enrich(ctx, records, q.MaxEnrichAddresses)
		})
	}

	result.Query = q
	result.Records = records
	result.Extent = geo.Extent(result.References)

	log.Info("pipeline: search complete",
		zap.Int("raw", result.RawCount),
		zap.Int("kept", len(records)),
		zap.Strings("unresolved", result.Unresolved),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

func (p *Pipeline) geocode(ctx context.Context, places []string) ([]model.GeoReference, []string) {
	var refs []model.GeoReference
	var unresolved []string
	for _, place := range places {
		var ref *model.GeoReference
		if p.geocoder != nil {
			ref = p.geocoder.Resolve(ctx, place)
		}
		if ref == nil {
			unresolved = append(unresolved, place)
			continue
		}
		refs = append(refs, *ref)
	}
	return refs, unresolved
}

// center picks the radius origin: the explicit point wins, otherwise the
// centroid of the resolved places when a radius is requested.
func (p *Pipeline) center(log *zap.Logger, q model.SearchQuery, refs []model.GeoReference) *model.Point {
	if q.Center != nil {
		return q.Center
	}
	if q.RadiusKM <= 0 {
		return nil
	}
	points := make([]model.Point, 0, len(refs))
	for _, r := range refs {
		points = append(points, r.Point())
	}
	c := geo.Centroid(points)
	if c == nil {
		log.Warn("pipeline: radius requested but no place resolved, radius filter disabled")
	}
	return c
}

// fetch runs each scope term in order and drops rows already seen under an
// earlier term. Rows without a source identifier are always kept.
func (p *Pipeline) fetch(ctx context.Context, log *zap.Logger, terms []string, q model.SearchQuery) []model.RawRecord {
	var out []model.RawRecord
	seen := make(map[string]bool)
	for _, term := range terms {
		if ctx.Err() != nil {
			log.Warn("pipeline: fetch interrupted", zap.String("term", term), zap.Error(ctx.Err()))
			break
		}
		rows := p.fetcher.FetchAll(ctx, term, q.PageSize, q.PageCap)
		dupes := 0
		for _, raw := range rows {
			if id := p.normalizer.SourceID(raw); id != "" {
				if seen[id] {
					dupes++
					continue
				}
				seen[id] = true
			}
			out = append(out, raw)
		}
		log.Debug("pipeline: fetched term",
			zap.String("term", term),
			zap.Int("rows", len(rows)),
			zap.Int("duplicates", dupes),
		)
	}
	return out
}

func (p *Pipeline) enrich(ctx context.Context, records []model.CanonicalRecord, maxAddresses int) {
	addresses := make([]string, 0, len(records))
	for _, r := range records {
		if r.Address != "" {
			addresses = append(addresses, r.Address)
		}
	}
	txs := p.enricher.Enrich(ctx, addresses, maxAddresses)
	for i := range records {
		found := txs[records[i].Address]
		if found == nil {
			found = []model.TransactionRecord{}
		}
		records[i].Transactions = found
	}
}

// annotateDistance sets the distance to center on every locatable record and,
// when a radius is set, its proximity band.
func annotateDistance(records []model.CanonicalRecord, center model.Point, radiusKM float64) {
	for i := range records {
		pt := records[i].Point()
		if pt == nil {
			continue
		}
		d := geo.DistanceBetween(center, *pt)
		if math.IsNaN(d) {
			continue
		}
		records[i].DistanceKM = &d
		if radiusKM > 0 {
			records[i].Proximity = geo.Classify(d, radiusKM)
		}
	}
}

func timed(log *zap.Logger, phase string, fn func()) {
	start := time.Now()
	fn()
	log.Debug("pipeline: phase complete",
		zap.String("phase", phase),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

func appendNew(terms, extra []string) []string {
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		seen[t] = true
	}
	for _, e := range extra {
		if !seen[e] {
			seen[e] = true
			terms = append(terms, e)
		}
	}
	return terms
}
