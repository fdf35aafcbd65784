package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/immo-dpe/dpe-search/internal/model"
	"github.com/immo-dpe/dpe-search/internal/store"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage saved search filters",
	Long:  "Commands for saving, listing, showing, and deleting named search parameter sets.",
}

// -- filters save --

var filtersSaveQuery queryFlags

var filtersSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save (or replace) a named filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := filtersSaveQuery.apply(cmd, model.SearchQuery{})
		if err != nil {
			return err
		}
		if _, err := q.Validate(); err != nil {
			return err
		}
		return saveFilter(cmd.Context(), args[0], q)
	},
}

// -- filters list --

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filters, err := st.List(ctx)
		if err != nil {
			return eris.Wrap(err, "filters list")
		}
		if len(filters) == 0 {
			fmt.Fprintln(os.Stderr, "No saved filters.")
			return nil
		}
		formatFiltersList(os.Stdout, filters)
		return nil
	},
}

// -- filters show --

var filtersShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved filter as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := st.Get(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "filters show")
		}
		if f == nil {
			return eris.Errorf("filter %q not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	},
}

// -- filters delete --

var filtersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Delete(ctx, args[0]); err != nil {
			return eris.Wrap(err, "filters delete")
		}
		fmt.Fprintf(os.Stderr, "Deleted filter %q.\n", args[0])
		return nil
	},
}

func init() {
	filtersSaveQuery.register(filtersSaveCmd)

	filtersCmd.AddCommand(filtersSaveCmd)
	filtersCmd.AddCommand(filtersListCmd)
	filtersCmd.AddCommand(filtersShowCmd)
	filtersCmd.AddCommand(filtersDeleteCmd)
	rootCmd.AddCommand(filtersCmd)
}

// formatFiltersList writes a tabular list of saved filters to w.
func formatFiltersList(out io.Writer, filters []store.SavedFilter) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSCOPE\tRADIUS\tCLASSES\tUPDATED")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t-------\t-------")

	for _, f := range filters {
		scope := strings.Join(f.Query.ScopeTerms(), ",")
		if len(scope) > 30 {
			scope = scope[:27] + "..."
		}
		radius := "-"
		if f.Query.RadiusKM > 0 {
			radius = fmt.Sprintf("%gkm", f.Query.RadiusKM)
		}
		classes := make([]string, 0, len(f.Query.EnergyClasses))
		for _, c := range f.Query.EnergyClasses {
			classes = append(classes, string(c))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			f.Name,
			scope,
			radius,
			orDash(strings.Join(classes, "")),
			f.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
