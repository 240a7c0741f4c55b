package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/gridb/gridb/internal/store"
)

// showPage prints the current snapshot page as an aligned table with
// a leading row-index column, the handle used by set and delrow.
func (c *Console) showPage() {
	if c.eng == nil || !c.eng.Loaded() {
		return
	}
	snap := c.eng.Snapshot()
	renderRows(c.out, snap.Columns, snap.Rows, snap.Offset)
}

func renderResultSet(w io.Writer, rs *store.ResultSet) {
	renderRows(w, rs.Columns, rs.Rows, -1)
}

// renderRows aligns columns to their widest cell. An offset >= 0 adds
// the index column, numbered from zero within the page.
func renderRows(w io.Writer, columns []string, rows []store.Row, offset int) {
	if len(columns) == 0 {
		return
	}
	widths := make([]int, len(columns))
	cells := make([][]string, len(rows))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for i, col := range columns {
			s := row[col].String()
			cells[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	idxWidth := len(fmt.Sprintf("%d", len(rows)))
	if idxWidth < 3 {
		idxWidth = 3
	}

	var b strings.Builder
	if offset >= 0 {
		fmt.Fprintf(&b, "%*s  ", idxWidth, "#")
	}
	for i, col := range columns {
		fmt.Fprintf(&b, "%-*s  ", widths[i], col)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	for r := range cells {
		b.Reset()
		if offset >= 0 {
			fmt.Fprintf(&b, "%*d  ", idxWidth, r)
		}
		for i := range columns {
			fmt.Fprintf(&b, "%-*s  ", widths[i], cells[r][i])
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
	if offset > 0 {
		fmt.Fprintf(w, "(offset %d)\n", offset)
	}
}
