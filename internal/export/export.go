// Package export writes search results to CSV, XLSX, GeoJSON and shapefile.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// Columns is the tabular export layout.
var Columns = []string{
	"record_id",
	"address",
	"postal_code",
	"city",
	"energy_class",
	"emissions_class",
	"surface_m2",
	"latitude",
	"longitude",
	"distance_km",
	"proximity",
	"assessment_date",
	"transactions",
}

// row renders r in Columns order. Nil numbers become empty cells.
func row(r model.CanonicalRecord) []string {
	return []string{
		r.RecordID,
		r.Address,
		r.PostalCode,
		r.City,
		string(r.EnergyClass),
		string(r.EmissionsClass),
		formatFloat(r.SurfaceM2),
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		formatFloat(r.DistanceKM),
		r.Proximity,
		r.AssessmentDate,
		summarizeTransactions(r.Transactions),
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// summarizeTransactions renders sales as "date:amount" pairs separated by
// " | ", most useful for a spreadsheet glance.
func summarizeTransactions(txs []model.TransactionRecord) string {
	parts := make([]string, 0, len(txs))
	for _, tx := range txs {
		amount := "?"
		if tx.Amount != nil {
			amount = strconv.FormatFloat(*tx.Amount, 'f', -1, 64)
		}
		parts = append(parts, fmt.Sprintf("%s:%s", tx.Date, amount))
	}
	return strings.Join(parts, " | ")
}

// WriteFile exports records to path, choosing the format from its extension
// (.csv, .xlsx, .geojson/.json, .shp).
func WriteFile(path string, records []model.CanonicalRecord) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".shp" {
		return WriteShapefile(path, records)
	}

	var write func(io.Writer, []model.CanonicalRecord) error
	switch ext {
	case ".csv":
		write = WriteCSV
	case ".xlsx":
		write = WriteXLSX
	case ".geojson", ".json":
		write = WriteGeoJSON
	default:
		return eris.Errorf("export: unsupported format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := write(f, records); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
