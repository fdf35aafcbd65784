package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/immo-dpe/dpe-search/internal/model"
	"github.com/immo-dpe/dpe-search/internal/store"
)

var servePort int

// searcher runs one search; *pipeline.Pipeline implements it.
type searcher interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error)
}

// api serves searches and saved filters over HTTP.
type api struct {
	search  searcher
	filters store.FilterStore
	timeout time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP search API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a := &api{
			search:  p,
			filters: st,
			timeout: time.Duration(cfg.Server.SearchTimeoutSecs) * time.Second,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           a.routes(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func (a *api) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/search", a.handleSearch)
	r.Route("/filters", func(r chi.Router) {
		r.Get("/", a.handleListFilters)
		r.Get("/{name}", a.handleGetFilter)
		r.Put("/{name}", a.handlePutFilter)
		r.Delete("/{name}", a.handleDeleteFilter)
		r.Post("/{name}/search", a.handleSearchFilter)
	})
	return r
}

func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q model.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.runSearch(w, r, q)
}

func (a *api) handleSearchFilter(w http.ResponseWriter, r *http.Request) {
	f, ok := a.lookupFilter(w, r)
	if !ok {
		return
	}
	a.runSearch(w, r, f.Query)
}

func (a *api) runSearch(w http.ResponseWriter, r *http.Request, q model.SearchQuery) {
	ctx := r.Context()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	res, err := a.search.Search(ctx, q)
	if err != nil {
		// Search only fails on an invalid query.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) handleListFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := a.filters.List(r.Context())
	if err != nil {
		zap.L().Error("list filters", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list filters")
		return
	}
	if filters == nil {
		filters = []store.SavedFilter{}
	}
	writeJSON(w, http.StatusOK, filters)
}

func (a *api) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	if f, ok := a.lookupFilter(w, r); ok {
		writeJSON(w, http.StatusOK, f)
	}
}

func (a *api) handlePutFilter(w http.ResponseWriter, r *http.Request) {
	name, err := store.CleanName(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var q model.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := q.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := a.filters.Save(r.Context(), name, q)
	if err != nil {
		zap.L().Error("save filter", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save filter")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *api) handleDeleteFilter(w http.ResponseWriter, r *http.Request) {
	f, ok := a.lookupFilter(w, r)
	if !ok {
		return
	}
	if err := a.filters.Delete(r.Context(), f.Name); err != nil {
		zap.L().Error("delete filter", zap.String("name", f.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete filter")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupFilter loads the filter named in the URL, writing a 404 or 500 when
// it cannot.
func (a *api) lookupFilter(w http.ResponseWriter, r *http.Request) (*store.SavedFilter, bool) {
	name := chi.URLParam(r, "name")
	f, err := a.filters.Get(r.Context(), name)
	if err != nil {
		zap.L().Error("get filter", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load filter")
		return nil, false
	}
	if f == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("filter %q not found", name))
		return nil, false
	}
	return f, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
