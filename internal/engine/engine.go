// Package engine implements the editable table engine: it materializes
// one table's rows as an in-memory snapshot, validates and applies cell
// edits, generates inverse operations, and funnels every reversible
// mutation through the command log.
//
// The engine assumes exactly one logical caller. It performs no
// internal locking; a surrounding system exposing it to concurrent
// callers must serialize access per open database.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/history"
	"github.com/gridb/gridb/internal/logging"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
)

// Engine edits one open database. Table state transitions between
// unloaded and loaded; edits mutate the snapshot in place, they do not
// transition state.
type Engine struct {
	acc      *store.Accessor
	insp     *schema.Inspector
	log      *history.Log
	sink     logging.Sink
	pageSize int

	// Loaded-table state; all nil/zero when unloaded.
	table    *schema.Table
	identity schema.RowIdentity
	snap     *Snapshot
	offset   int
}

// New creates an engine over an open accessor. The engine owns the
// accessor for the rest of its life. Opening a fresh engine starts
// with empty history: undo state never crosses databases.
func New(acc *store.Accessor, pageSize int, sink logging.Sink) *Engine {
	if pageSize <= 0 {
		pageSize = 1000
	}
	if sink == nil {
		sink = logging.NewDefaultSink()
	}
	return &Engine{
		acc:      acc,
		insp:     schema.NewInspector(acc),
		log:      history.NewLog(),
		sink:     sink,
		pageSize: pageSize,
	}
}

// Close clears history, drops the snapshot, and closes the database.
func (e *Engine) Close() error {
	e.log.Clear()
	e.unload()
	return e.acc.Close()
}

// Loaded reports whether a table is currently loaded.
func (e *Engine) Loaded() bool { return e.table != nil }

// Table returns the loaded table's schema, or nil when unloaded.
func (e *Engine) Table() *schema.Table { return e.table }

// Identity returns the loaded table's row identity descriptor.
func (e *Engine) Identity() schema.RowIdentity { return e.identity }

// Accessor exposes the underlying store for whole-database work such
// as dumps and diagrams.
func (e *Engine) Accessor() *store.Accessor { return e.acc }

// History exposes stack depths for callers that surface them.
func (e *Engine) History() (undo, redo int) {
	return e.log.UndoLen(), e.log.RedoLen()
}

// Tables lists user tables in the open database.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	names, err := e.insp.Tables(ctx)
	if err != nil {
		e.sink.Errorf("list tables: %v", err)
		return nil, err
	}
	return names, nil
}

// Load resolves identity for the named table, performs a full read,
// and replaces the snapshot. Fails with a schema error when the table
// does not exist.
func (e *Engine) Load(ctx context.Context, name string) error {
	tab, err := e.insp.Describe(ctx, name)
	if err != nil {
		e.sink.Errorf("load %s: %v", name, err)
		return err
	}

	e.table = tab
	e.identity = schema.ResolveIdentity(tab)
	e.offset = 0

	if err := e.reload(ctx); err != nil {
		e.unload()
		e.sink.Errorf("load %s: %v", name, err)
		return err
	}

	e.sink.Infof("table %s loaded (%d rows, identity: %s)", name, len(e.snap.Rows), e.identity.Kind)
	return nil
}

// Refresh performs a full re-read of the current page, replacing the
// snapshot wholesale. Always safe to call; reports whether the visible
// data changed. Used after raw SQL execution, which can mutate rows the
// engine does not track as commands.
func (e *Engine) Refresh(ctx context.Context) (changed bool, err error) {
	if e.table == nil {
		e.sink.Errorf("refresh: no table loaded")
		return false, errors.SchemaErrorf("no table loaded")
	}
	prev := e.snap.Fingerprint
	if err := e.reload(ctx); err != nil {
		e.sink.Errorf("refresh %s: %v", e.table.Name, err)
		return false, err
	}
	changed = e.snap.Fingerprint != prev
	e.sink.Infof("table %s refreshed (%d rows, changed: %v)", e.table.Name, len(e.snap.Rows), changed)
	return changed, nil
}

// Undo replays the inverse of the most recent command and refreshes the
// snapshot. An empty history is recovered locally: logged, no error.
func (e *Engine) Undo(ctx context.Context) error {
	cmd, err := e.log.Undo(ctx, e.acc)
	if err != nil {
		if errors.HasCode(err, errors.CodeEmptyHistory) {
			e.sink.Errorf("nothing to undo")
			return nil
		}
		e.sink.Errorf("undo: %v", err)
		return err
	}
	if err := e.reloadIfLoaded(ctx); err != nil {
		return err
	}
	e.sink.Infof("undo: %s", cmd.Summary)
	return nil
}

// Redo replays the most recently undone command and refreshes the
// snapshot. An empty history is recovered locally: logged, no error.
func (e *Engine) Redo(ctx context.Context) error {
	cmd, err := e.log.Redo(ctx, e.acc)
	if err != nil {
		if errors.HasCode(err, errors.CodeEmptyHistory) {
			e.sink.Errorf("nothing to redo")
			return nil
		}
		e.sink.Errorf("redo: %v", err)
		return err
	}
	if err := e.reloadIfLoaded(ctx); err != nil {
		return err
	}
	e.sink.Infof("redo: %s", cmd.Summary)
	return nil
}

// ExecSQL runs one raw console statement. Statements that yield rows
// return them; mutations return an empty result set. The snapshot is
// re-read afterwards since the console can touch anything.
func (e *Engine) ExecSQL(ctx context.Context, text string) (*store.ResultSet, error) {
	if len(text) == 0 || allBlank(text) {
		e.sink.Errorf("sql input is empty")
		return nil, errors.SchemaErrorf("sql input is empty")
	}
	rs, err := e.acc.Query(ctx, text)
	if err != nil {
		e.sink.Errorf("sql: %v", err)
		return nil, err
	}
	if err := e.reloadIfLoaded(ctx); err != nil {
		return nil, err
	}
	if len(rs.Rows) > 0 {
		e.sink.Infof("sql executed (%d rows)", len(rs.Rows))
	} else {
		e.sink.Infof("sql executed (no results)")
	}
	return rs, nil
}

func allBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// unload drops the loaded-table state.
func (e *Engine) unload() {
	e.table = nil
	e.identity = schema.RowIdentity{}
	e.snap = nil
	e.offset = 0
}

// reloadIfLoaded refreshes the snapshot without emitting a sink line;
// used inside operations that already account for their own line.
func (e *Engine) reloadIfLoaded(ctx context.Context) error {
	if e.table == nil {
		return nil
	}
	if err := e.reload(ctx); err != nil {
		e.sink.Errorf("refresh %s: %v", e.table.Name, err)
		return err
	}
	return nil
}

// tempName derives a collision-free temporary table name.
func tempName(base string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_rebuild_%x", base, id[:6])
}
