package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/enrich"
	"github.com/immo-dpe/dpe-search/internal/fetcher"
	"github.com/immo-dpe/dpe-search/internal/normalize"
	"github.com/immo-dpe/dpe-search/internal/pipeline"
	"github.com/immo-dpe/dpe-search/internal/resilience"
	"github.com/immo-dpe/dpe-search/internal/store"
	"github.com/immo-dpe/dpe-search/pkg/geocode"
)

// initPipeline builds the HTTP client, the geocoder cascade, the paginator
// and the optional DVF joiner from cfg.
func initPipeline() (*pipeline.Pipeline, error) {
	if err := cfg.Validate("search"); err != nil {
		return nil, err
	}

	fields, err := loadFieldMap(cfg.Normalize.FieldMapFile)
	if err != nil {
		return nil, err
	}

	getter := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
		Retry:     resilience.FromSettings(cfg.HTTP.MaxAttempts, cfg.HTTP.InitialBackoffMS, cfg.HTTP.MaxBackoffMS),
	})

	paginator := fetcher.NewPaginator(getter, fetcher.PaginatorOptions{
		BaseURL:   cfg.ADEME.BaseURL,
		PageDelay: time.Duration(cfg.ADEME.PageDelayMS) * time.Millisecond,
	})

	providers := []geocode.Provider{geocode.NewBANProvider(getter, cfg.Geocode.BANURL)}
	if cfg.Geocode.NominatimURL != "" {
		providers = append(providers, geocode.NewNominatimProvider(getter, cfg.Geocode.NominatimURL))
	} else {
		zap.L().Debug("DPE_GEOCODE_NOMINATIM_URL not set, nominatim fallback disabled")
	}

	var cascadeOpts []geocode.CascadeOption
	if cfg.Geocode.GeoAPIURL != "" {
		cascadeOpts = append(cascadeOpts, geocode.WithCommunes(geocode.NewCommunesClient(getter, cfg.Geocode.GeoAPIURL)))
	}

	var gc geocode.Client = geocode.NewCascadeClient(providers, cascadeOpts...)
	if cfg.Geocode.CacheTTLMinutes > 0 {
		gc = geocode.NewCachedClient(gc, time.Duration(cfg.Geocode.CacheTTLMinutes)*time.Minute)
	}

	opts := []pipeline.Option{pipeline.WithDefaults(pipeline.Defaults{
		PageSize:           cfg.ADEME.PageSize,
		PageCap:            cfg.Search.PageCap,
		MaxEnrichAddresses: cfg.DVF.MaxAddresses,
	})}
	if cfg.DVF.BaseURL != "" {
		opts = append(opts, pipeline.WithEnricher(enrich.NewJoiner(getter, enrich.Options{
			BaseURL:         cfg.DVF.BaseURL,
			PerAddressLimit: cfg.DVF.PerAddressLimit,
		})))
	} else {
		zap.L().Debug("DPE_DVF_BASE_URL not set, enrichment disabled")
	}

	return pipeline.New(gc, paginator, normalize.New(fields), opts...), nil
}

// loadFieldMap reads the optional field-map override file. An empty path
// keeps the built-in map.
func loadFieldMap(path string) (normalize.FieldMap, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open field map")
	}
	defer f.Close() //nolint:errcheck

	fields, err := normalize.LoadFieldMap(f)
	if err != nil {
		return nil, eris.Wrapf(err, "load field map %s", path)
	}
	return fields, nil
}

// initStore opens and migrates the saved-filter store. Callers should defer
// Close.
func initStore(ctx context.Context) (store.FilterStore, error) {
	if err := cfg.Validate("filters"); err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		Table:       cfg.Store.Table,
		Pool:        cfg.Store.Pool,
	})
}
