package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/export"
	"github.com/immo-dpe/dpe-search/internal/model"
)

var (
	searchQuery   queryFlags
	searchFilter  string
	searchSaveAs  string
	searchExport  string
	searchJSON    bool
	searchTimeout time.Duration
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search DPE diagnostics by place, postal code and radius",
	Example: `  dpe-search search --place Lyon --radius 5 --energy A,B
  dpe-search search --postal-code 69003 --surface-min 40 --export out.xlsx
  dpe-search search --filter lyon-passoires --enrich --json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		q, err := buildSearchQuery(cmd)
		if err != nil {
			return err
		}

		p, err := initPipeline()
		if err != nil {
			return err
		}

		if searchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, searchTimeout)
			defer cancel()
		}

		res, err := p.Search(ctx, q)
		if err != nil {
			return err
		}

		if searchSaveAs != "" {
			if err := saveFilter(ctx, searchSaveAs, q); err != nil {
				return err
			}
		}

		if searchExport != "" {
			if err := export.WriteFile(searchExport, res.Records); err != nil {
				return eris.Wrap(err, "search export")
			}
			zap.L().Info("search: exported records", zap.String("path", searchExport), zap.Int("count", len(res.Records)))
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		formatSearchResult(os.Stdout, res)
		return nil
	},
}

// buildSearchQuery starts from the saved filter named by --filter, if any,
// and overlays the explicit flags.
func buildSearchQuery(cmd *cobra.Command) (model.SearchQuery, error) {
	var base model.SearchQuery
	if searchFilter != "" {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return base, err
		}
		defer st.Close() //nolint:errcheck

		saved, err := st.Get(ctx, searchFilter)
		if err != nil {
			return base, eris.Wrap(err, "search load filter")
		}
		if saved == nil {
			return base, eris.Errorf("filter %q not found", searchFilter)
		}
		base = saved.Query
	}
	return searchQuery.apply(cmd, base)
}

func saveFilter(ctx context.Context, name string, q model.SearchQuery) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	saved, err := st.Save(ctx, name, q)
	if err != nil {
		return eris.Wrap(err, "search save filter")
	}
	fmt.Fprintf(os.Stderr, "Saved filter %q.\n", saved.Name)
	return nil
}

// formatSearchResult writes a summary and a table of the kept records to w.
func formatSearchResult(out io.Writer, res *model.SearchResult) {
	_, _ = fmt.Fprintf(out, "Search %s: %d fetched, %d kept\n", truncateID(res.ID), res.RawCount, len(res.Records))
	for _, ref := range res.References {
		_, _ = fmt.Fprintf(out, "  %s (%.4f, %.4f) [%s] via %s\n",
			ref.Label, ref.Latitude, ref.Longitude, strings.Join(ref.PostalCodes, ","), ref.Source)
	}
	if len(res.Unresolved) > 0 {
		_, _ = fmt.Fprintf(out, "  unresolved: %s\n", strings.Join(res.Unresolved, ", "))
	}
	if len(res.Records) == 0 {
		_, _ = fmt.Fprintln(out, "No records.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tADDRESS\tDPE\tGES\tSURFACE\tDATE\tSALES")
	_, _ = fmt.Fprintln(w, "--\t-------\t---\t---\t-------\t----\t-----")
	for _, r := range res.Records {
		addr := clipRunes(r.Address, 45)
		surface := ""
		if r.SurfaceM2 != nil {
			surface = fmt.Sprintf("%.1f", *r.SurfaceM2)
		}
		sales := ""
		if r.Transactions != nil {
			sales = fmt.Sprintf("%d", len(r.Transactions))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RecordID, addr, orDash(string(r.EnergyClass)), orDash(string(r.EmissionsClass)),
			surface, r.AssessmentDate, sales)
	}
	_ = w.Flush()
}

// clipRunes shortens s to at most n runes, marking the cut with "...".
func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	searchQuery.register(searchCmd)
	searchCmd.Flags().StringVar(&searchFilter, "filter", "", "start from a saved filter")
	searchCmd.Flags().StringVar(&searchSaveAs, "save", "", "save the query as a named filter")
	searchCmd.Flags().StringVar(&searchExport, "export", "", "write records to a .csv, .xlsx, .geojson or .shp file")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the full result as JSON")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 0, "overall search deadline, e.g. 2m (0 = none)")
	rootCmd.AddCommand(searchCmd)
}
