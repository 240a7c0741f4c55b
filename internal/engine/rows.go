package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/history"
	"github.com/gridb/gridb/internal/schema"
)

// AddRow inserts a row using the store's default-value mechanism and
// refreshes the snapshot (the new row's columns are unknown until
// reread). For rowid tables the generated identifier is captured from
// the insert itself (the accessor's single write connection makes the
// capture race-free) and an inverse delete keyed by it is logged.
// Replaying the forward statement after an undo produces a fresh
// rowid; the add-row command trades redo fidelity for simplicity, the
// same trade the delete operation refuses (see DeleteRows).
func (e *Engine) AddRow(ctx context.Context) error {
	if e.table == nil {
		e.sink.Errorf("add row: no table loaded")
		return errors.SchemaErrorf("no table loaded")
	}

	forward := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", e.table.Name)
	res, err := e.acc.Exec(ctx, forward)
	if err != nil {
		e.sink.Errorf("add row to %s: %v", e.table.Name, err)
		return err
	}

	if e.table.HasRowID {
		e.log.Push(history.Command{
			Summary:     fmt.Sprintf("row added to %s", e.table.Name),
			Forward:     forward,
			Inverse:     fmt.Sprintf("DELETE FROM %s WHERE %s = ?", e.table.Name, schema.RowIDColumn),
			InverseArgs: []interface{}{res.LastInsertID},
		})
	}

	if err := e.reload(ctx); err != nil {
		e.sink.Errorf("add row to %s: %v", e.table.Name, err)
		return err
	}
	e.sink.Infof("row added to %s", e.table.Name)
	return nil
}

// DeleteRows deletes the rows at the given snapshot indices. Requires a
// usable row identity; a table with neither a primary key nor a rowid
// cannot address rows for deletion. Deletion is deliberately
// non-invertible: re-inserting a row with its exact prior values is
// not attempted, so no undo entry is pushed; the action is logged and
// the snapshot refreshed.
func (e *Engine) DeleteRows(ctx context.Context, rowIndices []int) error {
	if e.table == nil {
		e.sink.Errorf("delete rows: no table loaded")
		return errors.SchemaErrorf("no table loaded")
	}
	if !e.identity.Usable() {
		err := errors.NoIdentityf("table %s has no primary key or rowid; rows cannot be deleted", e.table.Name)
		e.sink.Errorf("delete rows: %v", err)
		return err
	}

	// Deduplicate and validate before touching storage.
	seen := make(map[int]struct{}, len(rowIndices))
	indices := make([]int, 0, len(rowIndices))
	for _, i := range rowIndices {
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		if i < 0 || i >= len(e.snap.Rows) {
			e.sink.Errorf("delete rows: row %d out of range", i)
			return errors.SchemaErrorf("row index %d out of range", i)
		}
		indices = append(indices, i)
	}
	sort.Ints(indices)

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", e.table.Name, identityClause(e.identity))
	for _, i := range indices {
		row := e.snap.Rows[i]
		args := make([]interface{}, 0, len(e.identity.Columns))
		for _, c := range e.identity.Columns {
			args = append(args, row[c].Arg())
		}
		if _, err := e.acc.Exec(ctx, stmt, args...); err != nil {
			e.sink.Errorf("delete from %s: %v", e.table.Name, err)
			return err
		}
	}

	if err := e.reload(ctx); err != nil {
		e.sink.Errorf("delete from %s: %v", e.table.Name, err)
		return err
	}
	e.sink.Infof("%d row(s) deleted from %s", len(indices), e.table.Name)
	return nil
}

func identityClause(id schema.RowIdentity) string {
	clause := ""
	for i, c := range id.Columns {
		if i > 0 {
			clause += " AND "
		}
		clause += c + " = ?"
	}
	return clause
}
