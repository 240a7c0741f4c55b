// Package export renders the loaded table, or the whole database, to
// interchange formats: CSV, JSON, SQL insert scripts, XLSX workbooks,
// a textual relationship diagram, full SQL dumps, and file backups.
//
// The synthetic rowid column is an addressing detail of the editor and
// never appears in exported output.
package export

import (
	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
)

// Dataset is the exportable view of a loaded table: its name, its
// declared columns in order, and the rows currently materialized.
type Dataset struct {
	Table   string
	Columns []string
	Rows    []store.Row
}

// NewDataset builds a dataset from a table schema and a row slice,
// dropping the rowid column when the caller's row source included it.
func NewDataset(tab *schema.Table, rows []store.Row) Dataset {
	cols := make([]string, 0, len(tab.Columns))
	for _, c := range tab.Columns {
		if c.Name == schema.RowIDColumn {
			continue
		}
		cols = append(cols, c.Name)
	}
	return Dataset{Table: tab.Name, Columns: cols, Rows: rows}
}

func (d Dataset) check() error {
	if len(d.Columns) == 0 {
		return errors.SchemaErrorf("table %s has no columns to export", d.Table)
	}
	return nil
}
