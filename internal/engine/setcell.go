package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/history"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
	"github.com/gridb/gridb/pkg/value"
)

// SetCell applies one cell edit. The input is the external string form
// of the new value and is coerced by the column's type affinity; the
// literal NULL token coerces to NULL.
//
// Returns false without side effect when the column is part of the row
// identity, when the coerced value equals the current one (no-op
// suppression), or when coercion fails (reported to the sink, no error
// crosses the boundary). Returns true after the forward statement
// executed, the command was logged, and the snapshot cell was patched,
// atomically: a storage failure leaves snapshot and log untouched.
//
// On a table with no usable identity the edit is addressed by a
// NULL-safe full-row predicate; duplicate rows would all match, which
// is the documented limit of editing unaddressable tables.
func (e *Engine) SetCell(ctx context.Context, rowIndex int, column, input string) (bool, error) {
	if e.table == nil {
		e.sink.Errorf("set cell: no table loaded")
		return false, errors.SchemaErrorf("no table loaded")
	}
	if rowIndex < 0 || rowIndex >= len(e.snap.Rows) {
		e.sink.Errorf("set cell: row %d out of range", rowIndex)
		return false, errors.SchemaErrorf("row index %d out of range", rowIndex)
	}
	// Identity columns are never user-editable. Not an error: the
	// caller's grid simply refuses the edit. The rowid is checked by
	// name since table_info never lists it.
	if column == schema.RowIDColumn || e.identity.Contains(column) {
		return false, nil
	}

	col, ok := e.table.Column(column)
	if !ok {
		e.sink.Errorf("set cell: no column %q in %s", column, e.table.Name)
		return false, errors.SchemaErrorf("no column %q in table %s", column, e.table.Name)
	}

	newValue, err := value.Coerce(input, col.Affinity)
	if err != nil {
		// Recovered locally: one sink line, state unchanged.
		e.sink.Errorf("invalid value for %s column %s.%s: %q", col.Affinity, e.table.Name, column, input)
		return false, nil
	}

	row := e.snap.Rows[rowIndex]
	oldValue := row[column]
	if newValue.Equal(oldValue) {
		return false, nil
	}

	fwdWhere, fwdArgs := e.predicate(row, column, oldValue)
	invWhere, invArgs := e.predicate(row, column, newValue)

	cmd := history.Command{
		Summary:     fmt.Sprintf("%s.%s updated", e.table.Name, column),
		Forward:     fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s", e.table.Name, column, fwdWhere),
		ForwardArgs: append([]interface{}{newValue.Arg()}, fwdArgs...),
		Inverse:     fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s", e.table.Name, column, invWhere),
		InverseArgs: append([]interface{}{oldValue.Arg()}, invArgs...),
	}

	if _, err := e.acc.Exec(ctx, cmd.Forward, cmd.ForwardArgs...); err != nil {
		e.sink.Errorf("update %s.%s: %v", e.table.Name, column, err)
		return false, err
	}

	// Execution succeeded: record the command, then patch the single
	// cell in place; no full refresh needed for a one-cell change.
	e.log.Push(cmd)
	row[column] = newValue
	e.snap.Fingerprint = fingerprint(&store.ResultSet{Columns: e.snap.Columns, Rows: e.snap.Rows})

	e.sink.Infof("%s.%s updated", e.table.Name, column)
	return true, nil
}

// predicate builds the WHERE clause addressing one snapshot row. For a
// usable identity the identity columns address the row. Without one,
// every column of the row participates, NULL-safely via IS; edited is
// the column whose value differs between the forward and inverse
// direction, and editedValue is its value in that direction.
func (e *Engine) predicate(row store.Row, edited string, editedValue value.Value) (string, []interface{}) {
	if e.identity.Usable() {
		clauses := make([]string, 0, len(e.identity.Columns))
		args := make([]interface{}, 0, len(e.identity.Columns))
		for _, c := range e.identity.Columns {
			clauses = append(clauses, c+" = ?")
			args = append(args, row[c].Arg())
		}
		return strings.Join(clauses, " AND "), args
	}

	clauses := make([]string, 0, len(e.table.Columns))
	args := make([]interface{}, 0, len(e.table.Columns))
	for _, c := range e.table.Columns {
		v := row[c.Name]
		if c.Name == edited {
			v = editedValue
		}
		clauses = append(clauses, c.Name+" IS ?")
		args = append(args, v.Arg())
	}
	return strings.Join(clauses, " AND "), args
}
