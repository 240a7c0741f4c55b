package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/logging"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
	"github.com/gridb/gridb/pkg/value"
)

func newTestEngine(t *testing.T, ddl ...string) (*Engine, *logging.MemorySink) {
	t.Helper()
	acc, err := store.Open(filepath.Join(t.TempDir(), "engine.db"), store.Options{ForeignKeys: true})
	assert.NoError(t, err)

	for _, stmt := range ddl {
		_, err := acc.Exec(context.Background(), stmt)
		assert.NoError(t, err)
	}

	sink := logging.NewMemorySink()
	e := New(acc, 100, sink)
	t.Cleanup(func() { e.Close() })
	return e, sink
}

func cellValue(t *testing.T, e *Engine, row int, col string) value.Value {
	t.Helper()
	snap := e.Snapshot()
	assert.NotNil(t, snap)
	assert.Greater(t, len(snap.Rows), row)
	return snap.Rows[row][col]
}

func TestLoadMissingTable(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.Load(context.Background(), "ghost")
	assert.Error(t, err)
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))
	assert.False(t, e.Loaded())
}

func TestSetCellUndoRedoScenario(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t (id, name) VALUES (1, 'a')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))
	assert.Equal(t, schema.IdentityExplicitPK, e.Identity().Kind)

	applied, err := e.SetCell(ctx, 0, "name", "b")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, value.Text("b"), cellValue(t, e, 0, "name"))

	assert.NoError(t, e.Undo(ctx))
	assert.Equal(t, value.Text("a"), cellValue(t, e, 0, "name"))

	assert.NoError(t, e.Redo(ctx))
	assert.Equal(t, value.Text("b"), cellValue(t, e, 0, "name"))

	// The identity column never moved.
	assert.Equal(t, value.Integer(1), cellValue(t, e, 0, "id"))
}

func TestIdentityColumnsAreNotEditable(t *testing.T) {
	e, sink := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t (id, name) VALUES (1, 'a')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))
	before := sink.Len()

	applied, err := e.SetCell(ctx, 0, "id", "99")
	assert.NoError(t, err)
	assert.False(t, applied)

	applied, err = e.SetCell(ctx, 0, "rowid", "99")
	assert.NoError(t, err)
	assert.False(t, applied)

	// Never touched storage, never logged, never pushed.
	undo, _ := e.History()
	assert.Equal(t, 0, undo)
	assert.Equal(t, before, sink.Len())
	assert.Equal(t, value.Integer(1), cellValue(t, e, 0, "id"))
}

func TestNoOpEditIsSuppressed(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t (id, name) VALUES (1, 'a')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	applied, err := e.SetCell(ctx, 0, "name", "a")
	assert.NoError(t, err)
	assert.False(t, applied)

	undo, _ := e.History()
	assert.Equal(t, 0, undo)
}

func TestTypeMismatchIsRecoveredLocally(t *testing.T) {
	e, sink := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, age INTEGER)",
		"INSERT INTO t (id, age) VALUES (1, 5)",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	applied, err := e.SetCell(ctx, 0, "age", "abc")
	assert.NoError(t, err) // recovered locally, no error crosses the boundary
	assert.False(t, applied)
	assert.Len(t, sink.Errors(), 1)

	undo, _ := e.History()
	assert.Equal(t, 0, undo)
	assert.Equal(t, value.Integer(5), cellValue(t, e, 0, "age"))
}

func TestNullCoercionRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, age INTEGER)",
		"INSERT INTO t (id, age) VALUES (1, 5)",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	applied, err := e.SetCell(ctx, 0, "age", "NULL")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, cellValue(t, e, 0, "age").IsNull())

	assert.NoError(t, e.Undo(ctx))
	assert.Equal(t, value.Integer(5), cellValue(t, e, 0, "age"))

	// And the other direction: editing a NULL and undoing restores NULL.
	assert.NoError(t, e.Redo(ctx))
	applied, err = e.SetCell(ctx, 0, "age", "7")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, e.Undo(ctx))
	assert.True(t, cellValue(t, e, 0, "age").IsNull())
}

func TestNewPushInvalidatesFuture(t *testing.T) {
	e, sink := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t (id, name) VALUES (1, 'a')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	_, err := e.SetCell(ctx, 0, "name", "b")
	assert.NoError(t, err)
	assert.NoError(t, e.Undo(ctx))

	_, err = e.SetCell(ctx, 0, "name", "c")
	assert.NoError(t, err)

	errCount := len(sink.Errors())
	assert.NoError(t, e.Redo(ctx)) // empty history is non-fatal
	assert.Len(t, sink.Errors(), errCount+1)
	assert.Equal(t, value.Text("c"), cellValue(t, e, 0, "name"))
}

func TestEditWithoutIdentityUsesFullRowPredicate(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE nopk (a TEXT, b INTEGER)",
		"INSERT INTO nopk (a, b) VALUES ('x', 1), ('y', 2)",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "nopk"))

	// SQLite always gives plain tables a rowid; force the
	// no-identity shape the resolver produces for identity-less
	// relations to exercise the full-row addressing path.
	e.identity = schema.RowIdentity{}
	e.table.HasRowID = false
	assert.NoError(t, e.reload(ctx))

	applied, err := e.SetCell(ctx, 1, "b", "20")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, value.Integer(20), cellValue(t, e, 1, "b"))

	assert.NoError(t, e.Undo(ctx))
	assert.Equal(t, value.Integer(2), cellValue(t, e, 1, "b"))
	assert.Equal(t, value.Text("x"), cellValue(t, e, 0, "a"))

	// Delete still requires a true identity.
	err = e.DeleteRows(ctx, []int{0})
	assert.Error(t, err)
	assert.Equal(t, errors.CodeNoIdentity, errors.GetCode(err))
	assert.Len(t, e.Snapshot().Rows, 2)
}

func TestAddRowAndUndo(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT DEFAULT 'new')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))
	assert.Empty(t, e.Snapshot().Rows)

	assert.NoError(t, e.AddRow(ctx))
	assert.Len(t, e.Snapshot().Rows, 1)
	assert.Equal(t, value.Text("new"), cellValue(t, e, 0, "name"))

	undo, _ := e.History()
	assert.Equal(t, 1, undo)

	assert.NoError(t, e.Undo(ctx))
	assert.Empty(t, e.Snapshot().Rows)
}

func TestDeleteRowsIsNotInvertible(t *testing.T) {
	e, sink := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t (id, name) VALUES (1, 'a'), (2, 'b'), (3, 'c')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	assert.NoError(t, e.DeleteRows(ctx, []int{0, 2, 2}))
	assert.Len(t, e.Snapshot().Rows, 1)
	assert.Equal(t, value.Text("b"), cellValue(t, e, 0, "name"))

	// No undo entry was pushed.
	undo, _ := e.History()
	assert.Equal(t, 0, undo)

	errCount := len(sink.Errors())
	assert.NoError(t, e.Undo(ctx))
	assert.Len(t, sink.Errors(), errCount+1)
	assert.Len(t, e.Snapshot().Rows, 1)
}

func TestAddColumn(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY)",
		"INSERT INTO t (id) VALUES (1)",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	assert.NoError(t, e.AddColumn(ctx, "note", "text"))
	_, ok := e.Table().Column("note")
	assert.True(t, ok)

	applied, err := e.SetCell(ctx, 0, "note", "hello")
	assert.NoError(t, err)
	assert.True(t, applied)

	// Injection attempts die at validation.
	err = e.AddColumn(ctx, "x; DROP TABLE t", "TEXT")
	assert.Error(t, err)
	err = e.AddColumn(ctx, "y", "TEXT) AS SELECT 1")
	assert.Error(t, err)
}

func TestDropColumnKeepsDataAndHistory(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT, junk TEXT)",
		"INSERT INTO t (id, name, junk) VALUES (1, 'a', 'x'), (2, 'b', 'y')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	// An edit before the rebuild must stay undoable after it: the
	// rebuild preserves row addresses.
	applied, err := e.SetCell(ctx, 0, "name", "a2")
	assert.NoError(t, err)
	assert.True(t, applied)

	assert.NoError(t, e.DropColumn(ctx, "junk"))
	_, ok := e.Table().Column("junk")
	assert.False(t, ok)
	assert.Len(t, e.Snapshot().Rows, 2)
	assert.Equal(t, value.Text("a2"), cellValue(t, e, 0, "name"))
	assert.Equal(t, []string{"id"}, e.Table().PKColumns)

	assert.NoError(t, e.Undo(ctx))
	assert.Equal(t, value.Text("a"), cellValue(t, e, 0, "name"))
}

func TestDropColumnRejectsLastColumn(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE solo (only_col TEXT)",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "solo"))

	err := e.DropColumn(ctx, "only_col")
	assert.Error(t, err)
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))

	err = e.DropColumn(ctx, "missing")
	assert.Error(t, err)
}

func TestExecSQLRefreshesSnapshot(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	rs, err := e.ExecSQL(ctx, "INSERT INTO t (name) VALUES ('console')")
	assert.NoError(t, err)
	assert.Empty(t, rs.Rows)
	assert.Len(t, e.Snapshot().Rows, 1)

	rs, err = e.ExecSQL(ctx, "SELECT name FROM t")
	assert.NoError(t, err)
	assert.Len(t, rs.Rows, 1)
	assert.Equal(t, value.Text("console"), rs.Rows[0]["name"])

	_, err = e.ExecSQL(ctx, "   ")
	assert.Error(t, err)
}

func TestRefreshDetectsExternalChange(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t (id, name) VALUES (1, 'a')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))

	changed, err := e.Refresh(ctx)
	assert.NoError(t, err)
	assert.False(t, changed)

	_, err = e.ExecSQL(ctx, "UPDATE t SET name = 'z'")
	assert.NoError(t, err)

	// ExecSQL already reloaded, so the next refresh sees no change...
	changed, err = e.Refresh(ctx)
	assert.NoError(t, err)
	assert.False(t, changed)

	// ...but a change applied behind the engine's back is noticed.
	_, err = e.acc.Exec(ctx, "UPDATE t SET name = 'w'")
	assert.NoError(t, err)
	changed, err = e.Refresh(ctx)
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, value.Text("w"), cellValue(t, e, 0, "name"))
}

func TestTableDDL(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	assert.NoError(t, e.CreateTable(ctx, "fresh"))
	names, err := e.Tables(ctx)
	assert.NoError(t, err)
	assert.Contains(t, names, "fresh")

	assert.NoError(t, e.RenameTable(ctx, "fresh", "renamed"))
	names, _ = e.Tables(ctx)
	assert.Contains(t, names, "renamed")
	assert.NotContains(t, names, "fresh")

	assert.NoError(t, e.Load(ctx, "renamed"))
	assert.NoError(t, e.DropTable(ctx, "renamed"))
	assert.False(t, e.Loaded())

	assert.NoError(t, e.Vacuum(ctx))
}

func TestRenameFollowsLoadedTable(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE old_name (id INTEGER PRIMARY KEY, v TEXT)",
		"INSERT INTO old_name (v) VALUES ('keep')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "old_name"))

	assert.NoError(t, e.RenameTable(ctx, "old_name", "new_name"))
	assert.Equal(t, "new_name", e.Table().Name)
	assert.Equal(t, value.Text("keep"), cellValue(t, e, 0, "v"))

	applied, err := e.SetCell(ctx, 0, "v", "edited")
	assert.NoError(t, err)
	assert.True(t, applied)
}

func TestPagination(t *testing.T) {
	e, _ := newTestEngine(t,
		"CREATE TABLE n (id INTEGER PRIMARY KEY)",
	)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		_, err := e.acc.Exec(ctx, "INSERT INTO n DEFAULT VALUES")
		assert.NoError(t, err)
	}

	e.pageSize = 10
	assert.NoError(t, e.Load(ctx, "n"))
	assert.Len(t, e.Snapshot().Rows, 10)
	assert.Equal(t, 0, e.Snapshot().Offset)

	assert.NoError(t, e.NextPage(ctx))
	assert.Equal(t, 10, e.Snapshot().Offset)
	assert.Equal(t, value.Integer(11), cellValue(t, e, 0, "id"))

	assert.NoError(t, e.NextPage(ctx))
	assert.Len(t, e.Snapshot().Rows, 5)

	assert.NoError(t, e.PrevPage(ctx))
	assert.NoError(t, e.PrevPage(ctx))
	assert.NoError(t, e.PrevPage(ctx)) // clamps at zero
	assert.Equal(t, 0, e.Snapshot().Offset)
}

func TestOneLogLinePerOperation(t *testing.T) {
	e, sink := newTestEngine(t,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t (id, name) VALUES (1, 'a')",
	)
	ctx := context.Background()
	assert.NoError(t, e.Load(ctx, "t"))
	assert.Len(t, sink.Infos(), 1)

	_, err := e.SetCell(ctx, 0, "name", "b")
	assert.NoError(t, err)
	assert.Len(t, sink.Infos(), 2)

	assert.NoError(t, e.Undo(ctx))
	assert.Len(t, sink.Infos(), 3)
	assert.Empty(t, sink.Errors())
}
