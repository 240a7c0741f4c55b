// Package schema reads table structure from an open database and
// resolves row identity. The inspector is a pure read: it holds no
// state beyond the accessor it queries through.
package schema

import (
	"context"
	"sort"
	"strings"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/store"
	"github.com/gridb/gridb/pkg/value"
)

// ColumnDef describes one declared column.
type ColumnDef struct {
	Name         string
	DeclaredType string
	Affinity     value.Affinity
	NotNull      bool
	PrimaryKey   bool
}

// ForeignKey is one edge of the schema graph: FromColumn in this table
// references Table.ToColumn.
type ForeignKey struct {
	FromColumn string
	Table      string
	ToColumn   string
}

// Table is the materialized schema of one table. It is immutable for
// the session; schema-level operations invalidate it and the caller
// rebuilds via Describe.
type Table struct {
	Name        string
	HasRowID    bool
	Columns     []ColumnDef
	PKColumns   []string
	ForeignKeys []ForeignKey
}

// Column returns the definition of the named column, if declared.
func (t *Table) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// Inspector reads schema information through the accessor.
type Inspector struct {
	acc *store.Accessor
}

// NewInspector creates an inspector over the given accessor.
func NewInspector(acc *store.Accessor) *Inspector {
	return &Inspector{acc: acc}
}

// Tables lists user table names, excluding SQLite's internal tables.
func (in *Inspector) Tables(ctx context.Context) ([]string, error) {
	rs, err := in.acc.Query(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		names = append(names, row["name"].Str())
	}
	return names, nil
}

// Describe reads the full schema of one table. Fails with a schema
// error when the table does not exist.
func (in *Inspector) Describe(ctx context.Context, table string) (*Table, error) {
	if err := store.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	rs, err := in.acc.Query(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 {
		return nil, errors.SchemaErrorf("table %q does not exist", table)
	}

	t := &Table{Name: table}

	// pk in table_info is the 1-based position of the column within
	// the declared primary key, or 0 when it is not part of it.
	type pkEntry struct {
		pos  int64
		name string
	}
	var pks []pkEntry

	for _, row := range rs.Rows {
		col := ColumnDef{
			Name:         row["name"].Str(),
			DeclaredType: row["type"].Str(),
			Affinity:     value.AffinityOf(row["type"].Str()),
			NotNull:      row["notnull"].Int() != 0,
			PrimaryKey:   row["pk"].Int() != 0,
		}
		t.Columns = append(t.Columns, col)
		if col.PrimaryKey {
			pks = append(pks, pkEntry{pos: row["pk"].Int(), name: col.Name})
		}
	}
	sort.Slice(pks, func(i, j int) bool { return pks[i].pos < pks[j].pos })
	for _, pk := range pks {
		t.PKColumns = append(t.PKColumns, pk.name)
	}

	t.HasRowID = in.probeRowID(ctx, table)

	fks, err := in.foreignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	t.ForeignKeys = fks

	return t, nil
}

// probeRowID checks whether the table exposes the implicit rowid.
// WITHOUT ROWID tables and views reject the probe with a column error.
func (in *Inspector) probeRowID(ctx context.Context, table string) bool {
	_, err := in.acc.Query(ctx, "SELECT rowid FROM "+table+" LIMIT 1")
	return err == nil
}

func (in *Inspector) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rs, err := in.acc.Query(ctx, "PRAGMA foreign_key_list("+table+")")
	if err != nil {
		// Some older builds error on tables without foreign keys;
		// treat that as an empty edge set.
		if strings.Contains(err.Error(), "foreign_key_list") {
			return nil, nil
		}
		return nil, err
	}
	var fks []ForeignKey
	for _, row := range rs.Rows {
		fks = append(fks, ForeignKey{
			FromColumn: row["from"].Str(),
			Table:      row["table"].Str(),
			ToColumn:   row["to"].Str(),
		})
	}
	return fks, nil
}
