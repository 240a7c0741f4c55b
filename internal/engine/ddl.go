package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
)

// AddColumn appends a column to the loaded table. Schema-level and not
// undoable; the table schema and snapshot are rebuilt afterwards.
func (e *Engine) AddColumn(ctx context.Context, name, declaredType string) error {
	if e.table == nil {
		e.sink.Errorf("add column: no table loaded")
		return errors.SchemaErrorf("no table loaded")
	}
	if err := store.ValidateIdentifier(name); err != nil {
		e.sink.Errorf("add column: %v", err)
		return err
	}
	typ, err := store.ValidateTypeName(declaredType)
	if err != nil {
		e.sink.Errorf("add column: %v", err)
		return err
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", e.table.Name, name, typ)
	if _, err := e.acc.Exec(ctx, stmt); err != nil {
		e.sink.Errorf("add column %s to %s: %v", name, e.table.Name, err)
		return err
	}

	if err := e.rebuildLoaded(ctx); err != nil {
		return err
	}
	e.sink.Infof("column %s %s added to %s", name, typ, e.table.Name)
	return nil
}

// DropColumn removes a column by rebuilding the table: create a
// temporary table with the remaining columns, copy all rows projected
// onto them (preserving rowids, so logged commands stay addressable),
// drop the original, and rename the temporary into place.
//
// The sequence is one logical operation with best-effort rollback: a
// failure before the original is dropped leaves it untouched and only
// a temporary orphan may need cleanup, which is attempted and logged
// as a warning if it too fails.
func (e *Engine) DropColumn(ctx context.Context, name string) error {
	if e.table == nil {
		e.sink.Errorf("drop column: no table loaded")
		return errors.SchemaErrorf("no table loaded")
	}
	if _, ok := e.table.Column(name); !ok {
		err := errors.SchemaErrorf("no column %q in table %s", name, e.table.Name)
		e.sink.Errorf("drop column: %v", err)
		return err
	}

	var remaining []schema.ColumnDef
	for _, c := range e.table.Columns {
		if c.Name != name {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		err := errors.SchemaErrorf("cannot drop the last column of %s", e.table.Name)
		e.sink.Errorf("drop column: %v", err)
		return err
	}

	table := e.table.Name
	temp := tempName(table)

	if _, err := e.acc.Exec(ctx, createFrom(temp, remaining)); err != nil {
		e.sink.Errorf("drop column %s from %s: %v", name, table, err)
		return err
	}

	cols := make([]string, len(remaining))
	for i, c := range remaining {
		cols[i] = c.Name
	}
	colList := strings.Join(cols, ", ")

	var copyStmt string
	if e.table.HasRowID && !hasRowIDAlias(remaining) {
		copyStmt = fmt.Sprintf("INSERT INTO %s (%s, %s) SELECT %s, %s FROM %s",
			temp, schema.RowIDColumn, colList, schema.RowIDColumn, colList, table)
	} else {
		copyStmt = fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", temp, colList, colList, table)
	}

	if _, err := e.acc.Exec(ctx, copyStmt); err != nil {
		e.cleanupTemp(ctx, temp)
		e.sink.Errorf("drop column %s from %s: %v", name, table, err)
		return err
	}
	if _, err := e.acc.Exec(ctx, "DROP TABLE "+table); err != nil {
		e.cleanupTemp(ctx, temp)
		e.sink.Errorf("drop column %s from %s: %v", name, table, err)
		return err
	}
	if _, err := e.acc.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", temp, table)); err != nil {
		// The original is gone and the rename failed; the data now
		// lives under the temporary name. Surface that loudly instead
		// of hiding it.
		e.sink.Errorf("drop column %s: rename failed, data remains in table %s: %v", name, temp, err)
		return err
	}

	if err := e.rebuildLoaded(ctx); err != nil {
		return err
	}
	e.sink.Infof("column %s dropped from %s", name, table)
	return nil
}

// cleanupTemp drops an orphaned rebuild table, logging a warning when
// even the cleanup fails. Never silent.
func (e *Engine) cleanupTemp(ctx context.Context, temp string) {
	if _, err := e.acc.Exec(ctx, "DROP TABLE "+temp); err != nil {
		e.sink.Errorf("warning: temporary table %s left behind: %v", temp, err)
	}
}

// hasRowIDAlias reports whether the column set declares a lone INTEGER
// PRIMARY KEY, which SQLite treats as an alias of the rowid. Copying
// rows through the alias preserves rowids on its own; naming rowid
// alongside it in an INSERT would assign the same storage twice.
func hasRowIDAlias(cols []schema.ColumnDef) bool {
	pkCount := 0
	var pk schema.ColumnDef
	for _, c := range cols {
		if c.PrimaryKey {
			pkCount++
			pk = c
		}
	}
	return pkCount == 1 && strings.EqualFold(pk.DeclaredType, "INTEGER")
}

// createFrom composes a CREATE TABLE from column definitions. A single
// surviving primary-key column keeps its declaration; composite keys
// cannot be expressed per-column and are dropped by the rebuild.
func createFrom(name string, cols []schema.ColumnDef) string {
	pkCount := 0
	for _, c := range cols {
		if c.PrimaryKey {
			pkCount++
		}
	}

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		def := c.Name
		if c.DeclaredType != "" {
			def += " " + c.DeclaredType
		}
		if c.NotNull {
			def += " NOT NULL"
		}
		if c.PrimaryKey && pkCount == 1 {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
}

// CreateTable creates a new table with an integer primary key skeleton.
func (e *Engine) CreateTable(ctx context.Context, name string) error {
	if err := store.ValidateIdentifier(name); err != nil {
		e.sink.Errorf("create table: %v", err)
		return err
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (id INTEGER PRIMARY KEY)", name)
	if _, err := e.acc.Exec(ctx, stmt); err != nil {
		e.sink.Errorf("create table %s: %v", name, err)
		return err
	}
	e.sink.Infof("table %s created", name)
	return nil
}

// DropTable removes a table. If it is the loaded one the engine
// unloads; logged commands that target it will surface schema errors
// if replayed, which is the documented cost of destroying their table.
func (e *Engine) DropTable(ctx context.Context, name string) error {
	if err := store.ValidateIdentifier(name); err != nil {
		e.sink.Errorf("drop table: %v", err)
		return err
	}
	if _, err := e.acc.Exec(ctx, "DROP TABLE "+name); err != nil {
		e.sink.Errorf("drop table %s: %v", name, err)
		return err
	}
	if e.table != nil && e.table.Name == name {
		e.unload()
	}
	e.sink.Infof("table %s dropped", name)
	return nil
}

// RenameTable renames a table, following the loaded table to its new
// name when it is the one renamed.
func (e *Engine) RenameTable(ctx context.Context, oldName, newName string) error {
	if err := store.ValidateIdentifier(oldName); err != nil {
		e.sink.Errorf("rename table: %v", err)
		return err
	}
	if err := store.ValidateIdentifier(newName); err != nil {
		e.sink.Errorf("rename table: %v", err)
		return err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", oldName, newName)
	if _, err := e.acc.Exec(ctx, stmt); err != nil {
		e.sink.Errorf("rename table %s: %v", oldName, err)
		return err
	}
	if e.table != nil && e.table.Name == oldName {
		e.table.Name = newName
		if err := e.rebuildLoaded(ctx); err != nil {
			return err
		}
	}
	e.sink.Infof("table %s renamed to %s", oldName, newName)
	return nil
}

// Vacuum rebuilds the database file, reclaiming free pages.
func (e *Engine) Vacuum(ctx context.Context) error {
	if _, err := e.acc.Exec(ctx, "VACUUM"); err != nil {
		e.sink.Errorf("vacuum: %v", err)
		return err
	}
	e.sink.Infof("database vacuumed")
	return nil
}

// rebuildLoaded re-describes the loaded table after a schema change and
// refreshes the snapshot.
func (e *Engine) rebuildLoaded(ctx context.Context) error {
	tab, err := e.insp.Describe(ctx, e.table.Name)
	if err != nil {
		e.sink.Errorf("reload schema of %s: %v", e.table.Name, err)
		return err
	}
	e.table = tab
	e.identity = schema.ResolveIdentity(tab)
	if err := e.reload(ctx); err != nil {
		e.sink.Errorf("refresh %s: %v", e.table.Name, err)
		return err
	}
	return nil
}
