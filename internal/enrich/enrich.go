// Package enrich attaches DVF property-sale transactions to record addresses.
package enrich

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/fetcher"
	"github.com/immo-dpe/dpe-search/internal/model"
	"github.com/immo-dpe/dpe-search/internal/normalize"
)

// TransactionEnvelope matches the DVF endpoints: GeoJSON feature collections
// or data-fair style listings.
var TransactionEnvelope = fetcher.Envelope{
	Keys:   []string{"features", "results", "resultats", "data"},
	Unwrap: []string{"properties", "fields"},
}

// Options configures a Joiner.
type Options struct {
	// BaseURL is the DVF search endpoint.
	BaseURL string

	// PerAddressLimit is the maximum number of transactions requested per
	// address. Zero selects 10.
	PerAddressLimit int
}

// Joiner queries the DVF service one address at a time.
type Joiner struct {
	getter fetcher.JSONGetter
	opts   Options
}

// NewJoiner creates a Joiner.
func NewJoiner(getter fetcher.JSONGetter, opts Options) *Joiner {
	if opts.PerAddressLimit <= 0 {
		opts.PerAddressLimit = 10
	}
	return &Joiner{getter: getter, opts: opts}
}

// Enrich returns the transactions found for each address. The result has a
// key for every input address, with an empty, non-nil slice when the lookup
// failed, found nothing or was skipped. Only the first maxAddresses distinct
// addresses (in input order) are queried; maxAddresses <= 0 queries them
// all. Lookups run sequentially, one request per address, so maxAddresses
// is the cost bound.
func (j *Joiner) Enrich(ctx context.Context, addresses []string, maxAddresses int) map[string][]model.TransactionRecord {
	out := make(map[string][]model.TransactionRecord, len(addresses))
	var distinct []string
	for _, a := range addresses {
		if _, seen := out[a]; seen {
			continue
		}
		out[a] = []model.TransactionRecord{}
		distinct = append(distinct, a)
	}

	queried := distinct
	if maxAddresses > 0 && len(queried) > maxAddresses {
		queried = queried[:maxAddresses]
	}

	start := time.Now()
	var hits, failures int
	for _, addr := range queried {
		if strings.TrimSpace(addr) == "" {
			continue
		}
		txs, err := j.lookup(ctx, addr)
		if err != nil {
			failures++
			zap.L().Warn("enrich: address lookup failed", zap.String("address", addr), zap.Error(err))
			continue
		}
		if len(txs) > 0 {
			hits++
		}
		out[addr] = txs
	}

	zap.L().Info("enrich: done",
		zap.Int("addresses", len(distinct)),
		zap.Int("queried", len(queried)),
		zap.Int("with_transactions", hits),
		zap.Int("failures", failures),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

func (j *Joiner) lookup(ctx context.Context, addr string) ([]model.TransactionRecord, error) {
	body, err := j.getter.GetJSON(ctx, j.opts.BaseURL, url.Values{
		"q":    {addr},
		"size": {strconv.Itoa(j.opts.PerAddressLimit)},
	})
	if err != nil {
		return nil, err
	}
	rows, err := TransactionEnvelope.Extract(body)
	if err != nil {
		return nil, err
	}
	txs := make([]model.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, toTransaction(row))
	}
	return txs, nil
}

func toTransaction(row model.RawRecord) model.TransactionRecord {
	return model.TransactionRecord{
		Date:         normalize.Text(first(row, "date_mutation", "date")),
		Amount:       normalize.ParseFloat(first(row, "valeur_fonciere", "prix", "valeur")),
		PropertyType: normalize.Text(first(row, "type_local", "libelle_type_local")),
		SurfaceM2:    normalize.ParseFloat(first(row, "surface_reelle_bati", "surface_bati", "surface")),
		Nature:       normalize.Text(first(row, "nature_mutation")),
		Rooms:        normalize.ParseInt(first(row, "nombre_pieces_principales")),
	}
}

func first(row model.RawRecord, keys ...string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
