package export

import (
	"encoding/json"
	"io"

	"github.com/gridb/gridb/internal/errors"
)

// JSON writes the dataset as an indented array of objects, one per
// row. NULL cells serialize as JSON null. An empty table is an error
// here rather than an empty array: an export of nothing is almost
// always a mistake the caller wants surfaced.
func JSON(w io.Writer, d Dataset) error {
	if err := d.check(); err != nil {
		return err
	}
	if len(d.Rows) == 0 {
		return errors.SchemaErrorf("table %s has no rows to export", d.Table)
	}
	out := make([]map[string]interface{}, 0, len(d.Rows))
	for _, row := range d.Rows {
		obj := make(map[string]interface{}, len(d.Columns))
		for _, col := range d.Columns {
			obj[col] = row[col].Arg()
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.StorageError("export: encode json", err)
	}
	return nil
}
