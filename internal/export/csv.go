package export

import (
	"encoding/csv"
	"io"

	"github.com/gridb/gridb/internal/errors"
)

// CSV writes the dataset as RFC 4180 rows with a header line. NULL
// cells become empty fields; there is no way to tell a NULL from an
// empty string on the way back, which matches what spreadsheet tools
// expect from this format.
func CSV(w io.Writer, d Dataset) error {
	if err := d.check(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return errors.StorageError("export: write csv header", err)
	}
	record := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		for i, col := range d.Columns {
			v := row[col]
			if v.IsNull() {
				record[i] = ""
			} else {
				record[i] = v.String()
			}
		}
		if err := cw.Write(record); err != nil {
			return errors.StorageError("export: write csv row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.StorageError("export: flush csv", err)
	}
	return nil
}
