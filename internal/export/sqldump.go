package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/store"
)

// SQLDump writes a complete textual dump of the database: schema
// statements straight from sqlite_master, table contents as INSERT
// statements, then views, indexes, and triggers. The output replays
// into an empty database to reproduce the original.
func SQLDump(ctx context.Context, w io.Writer, acc *store.Accessor) error {
	if _, err := io.WriteString(w, "BEGIN TRANSACTION;\n"); err != nil {
		return errors.StorageError("export: write dump", err)
	}

	tables, err := acc.Query(ctx,
		"SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return err
	}
	for _, row := range tables.Rows {
		name := row["name"].Str()
		if _, err := fmt.Fprintf(w, "%s;\n", row["sql"].Str()); err != nil {
			return errors.StorageError("export: write dump", err)
		}
		if err := dumpRows(ctx, w, acc, name); err != nil {
			return err
		}
	}

	others, err := acc.Query(ctx,
		"SELECT sql FROM sqlite_master WHERE type IN ('view', 'index', 'trigger') AND sql IS NOT NULL ORDER BY name")
	if err != nil {
		return err
	}
	for _, row := range others.Rows {
		if _, err := fmt.Fprintf(w, "%s;\n", row["sql"].Str()); err != nil {
			return errors.StorageError("export: write dump", err)
		}
	}

	if _, err := io.WriteString(w, "COMMIT;\n"); err != nil {
		return errors.StorageError("export: write dump", err)
	}
	return nil
}

func dumpRows(ctx context.Context, w io.Writer, acc *store.Accessor, table string) error {
	rs, err := acc.Query(ctx, fmt.Sprintf("SELECT * FROM %s", quoteName(table)))
	if err != nil {
		return err
	}
	d := Dataset{Table: quoteName(table), Columns: rs.Columns, Rows: rs.Rows}
	if len(d.Rows) == 0 {
		return nil
	}
	return SQLScript(w, d)
}

// quoteName double-quotes an identifier from sqlite_master, which can
// contain characters the editor's own validator rejects.
func quoteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
