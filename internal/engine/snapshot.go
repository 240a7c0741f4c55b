package engine

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/spaolacci/murmur3"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
)

// Snapshot is the engine's materialized copy of one page of the loaded
// table. It is replaced wholesale on every refresh; the single-cell
// patch after a verified write is the only in-place mutation. Callers
// must treat it as read-only.
type Snapshot struct {
	Columns []string
	Rows    []store.Row
	Offset  int

	// Fingerprint is a murmur3 hash of the page contents, used to
	// detect mutations made outside the engine (the SQL console).
	Fingerprint uint64
}

// Snapshot returns the current page, or nil when no table is loaded.
func (e *Engine) Snapshot() *Snapshot { return e.snap }

// PageSize returns the configured page size.
func (e *Engine) PageSize() int { return e.pageSize }

// Seek repositions the page window at the given row offset and
// re-reads. Negative offsets clamp to zero.
func (e *Engine) Seek(ctx context.Context, offset int) error {
	if e.table == nil {
		e.sink.Errorf("seek: no table loaded")
		return errors.SchemaErrorf("no table loaded")
	}
	if offset < 0 {
		offset = 0
	}
	e.offset = offset
	if err := e.reload(ctx); err != nil {
		e.sink.Errorf("seek %s: %v", e.table.Name, err)
		return err
	}
	e.sink.Infof("table %s: showing %d rows from offset %d", e.table.Name, len(e.snap.Rows), offset)
	return nil
}

// NextPage advances the window by one page.
func (e *Engine) NextPage(ctx context.Context) error {
	return e.Seek(ctx, e.offset+e.pageSize)
}

// PrevPage moves the window back by one page.
func (e *Engine) PrevPage(ctx context.Context) error {
	return e.Seek(ctx, e.offset-e.pageSize)
}

// reload performs the page read and replaces the snapshot. The rowid
// is selected alongside user columns whenever the table exposes one,
// so the implicit identity is always addressable from the snapshot.
func (e *Engine) reload(ctx context.Context) error {
	var stmt string
	if e.table.HasRowID {
		stmt = fmt.Sprintf("SELECT %s, * FROM %s LIMIT ? OFFSET ?", schema.RowIDColumn, e.table.Name)
	} else {
		stmt = fmt.Sprintf("SELECT * FROM %s LIMIT ? OFFSET ?", e.table.Name)
	}

	rs, err := e.acc.Query(ctx, stmt, e.pageSize, e.offset)
	if err != nil {
		return err
	}

	e.snap = &Snapshot{
		Columns:     rs.Columns,
		Rows:        rs.Rows,
		Offset:      e.offset,
		Fingerprint: fingerprint(rs),
	}
	return nil
}

// fingerprint hashes column names and every cell of the page.
func fingerprint(rs *store.ResultSet) uint64 {
	h := murmur3.New64()
	var kind [1]byte
	var count [8]byte

	for _, col := range rs.Columns {
		h.Write([]byte(col))
		h.Write([]byte{0})
	}
	binary.LittleEndian.PutUint64(count[:], uint64(len(rs.Rows)))
	h.Write(count[:])

	for _, row := range rs.Rows {
		for _, col := range rs.Columns {
			v := row[col]
			kind[0] = byte(v.Kind())
			h.Write(kind[:])
			h.Write([]byte(v.String()))
			h.Write([]byte{0})
		}
	}
	return h.Sum64()
}
