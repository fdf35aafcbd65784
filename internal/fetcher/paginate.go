package fetcher

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// PaginatorOptions configures a Paginator.
type PaginatorOptions struct {
	// BaseURL is the listing endpoint, e.g. .../datasets/dpe-v2-logements/lines.
	BaseURL string

	// PageDelay is the pause between consecutive page requests. Zero
	// disables it.
	PageDelay time.Duration

	// Envelope overrides ListingEnvelope when non-empty.
	Envelope Envelope
}

// Paginator walks a page-numbered listing endpoint one page at a time.
type Paginator struct {
	getter  JSONGetter
	baseURL string
	limiter *rate.Limiter
	env     Envelope
}

// NewPaginator creates a Paginator reading through getter.
func NewPaginator(getter JSONGetter, opts PaginatorOptions) *Paginator {
	limit := rate.Inf
	if opts.PageDelay > 0 {
		limit = rate.Every(opts.PageDelay)
	}
	env := opts.Envelope
	if len(env.Keys) == 0 {
		env = ListingEnvelope
	}
	return &Paginator{
		getter:  getter,
		baseURL: opts.BaseURL,
		limiter: rate.NewLimiter(limit, 1),
		env:     env,
	}
}

// FetchAll requests pages 1, 2, 3, ... with {q, size, page} and accumulates
// every record. It stops after a page that (a) is empty, (b) reaches pageCap
// when pageCap > 0, or (c) holds fewer than pageSize records. A short page is
// assumed to be the last one; there is no total-count cross-check.
//
// A failed page (transport error, non-2xx, malformed body, cancelled
// context) ends the walk and whatever was accumulated is returned. FetchAll
// never returns an error.
func (p *Paginator) FetchAll(ctx context.Context, queryText string, pageSize, pageCap int) []model.RawRecord {
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}

	log := zap.L().With(zap.String("query", queryText), zap.Int("page_size", pageSize))

	var out []model.RawRecord
	page := 1
	for ; ; page++ {
		if err := p.limiter.Wait(ctx); err != nil {
			log.Warn("paginate: stopped waiting for next page", zap.Int("page", page), zap.Error(err))
			break
		}

		recs, listed, err := p.fetchPage(ctx, queryText, pageSize, page)
		if err != nil {
			log.Warn("paginate: page failed, returning partial result",
				zap.Int("page", page),
				zap.Int("accumulated", len(out)),
				zap.Error(err),
			)
			break
		}

		if listed == 0 {
			break
		}
		out = append(out, recs...)

		if pageCap > 0 && page >= pageCap {
			break
		}
		if listed < pageSize {
			break
		}
	}

	log.Info("paginate: done", zap.Int("pages", page), zap.Int("records", len(out)))
	return out
}

func (p *Paginator) fetchPage(ctx context.Context, queryText string, pageSize, page int) ([]model.RawRecord, int, error) {
	params := url.Values{
		"q":    {queryText},
		"size": {strconv.Itoa(pageSize)},
		"page": {strconv.Itoa(page)},
	}
	body, err := p.getter.GetJSON(ctx, p.baseURL, params)
	if err != nil {
		return nil, 0, err
	}
	return p.env.ExtractPage(body)
}
