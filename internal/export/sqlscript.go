package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/pkg/value"
)

// SQLScript writes one INSERT statement per row. Integer and real
// cells are emitted as bare literals, text is single-quoted with
// doubled embedded quotes, NULL is the keyword.
func SQLScript(w io.Writer, d Dataset) error {
	if err := d.check(); err != nil {
		return err
	}
	colList := strings.Join(d.Columns, ", ")
	vals := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		for i, col := range d.Columns {
			vals[i] = sqlLiteral(row[col])
		}
		line := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);\n", d.Table, colList, strings.Join(vals, ", "))
		if _, err := io.WriteString(w, line); err != nil {
			return errors.StorageError("export: write sql script", err)
		}
	}
	return nil
}

func sqlLiteral(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "NULL"
	case value.KindInteger, value.KindReal:
		return v.String()
	default:
		return "'" + strings.ReplaceAll(v.Str(), "'", "''") + "'"
	}
}
