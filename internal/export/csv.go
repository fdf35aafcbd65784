package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, records []model.CanonicalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return eris.Wrapf(err, "csv: write record %s", r.RecordID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}
