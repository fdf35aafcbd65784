package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// SheetName is the worksheet holding exported records.
const SheetName = "DPE"

// WriteXLSX writes a single-sheet workbook. Numeric columns are stored as
// numbers so spreadsheet filters and sorts work on them.
func WriteXLSX(w io.Writer, records []model.CanonicalRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, r := range records {
		xr := sheet.AddRow()
		for i, v := range row(r) {
			cell := xr.AddCell()
			if num := numericValue(r, Columns[i]); num != nil {
				cell.SetFloat(*num)
				continue
			}
			cell.SetString(v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func numericValue(r model.CanonicalRecord, column string) *float64 {
	switch column {
	case "surface_m2":
		return r.SurfaceM2
	case "latitude":
		return r.Latitude
	case "longitude":
		return r.Longitude
	case "distance_km":
		return r.DistanceKM
	default:
		return nil
	}
}
