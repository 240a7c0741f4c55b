package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
	"github.com/gridb/gridb/pkg/value"
)

func sampleDataset() Dataset {
	return Dataset{
		Table:   "people",
		Columns: []string{"id", "name", "score"},
		Rows: []store.Row{
			{"id": value.Integer(1), "name": value.Text("Ada"), "score": value.Real(9.5)},
			{"id": value.Integer(2), "name": value.Null(), "score": value.Integer(7)},
			{"id": value.Integer(3), "name": value.Text("O'Brien"), "score": value.Null()},
		},
	}
}

func TestNewDatasetDropsRowID(t *testing.T) {
	tab := &schema.Table{
		Name: "t",
		Columns: []schema.ColumnDef{
			{Name: "rowid"},
			{Name: "a", DeclaredType: "TEXT"},
		},
	}
	d := NewDataset(tab, nil)
	assert.Equal(t, []string{"a"}, d.Columns)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, CSV(&buf, sampleDataset()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "id,name,score", lines[0])
	assert.Equal(t, "1,Ada,9.5", lines[1])
	assert.Equal(t, "2,,7", lines[2]) // NULL as empty field

	err := CSV(io.Discard, Dataset{Table: "empty"})
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, JSON(&buf, sampleDataset()))

	var out []map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out, 3)
	assert.Equal(t, "Ada", out[0]["name"])
	assert.Nil(t, out[1]["name"])
	assert.Equal(t, float64(7), out[1]["score"])

	d := sampleDataset()
	d.Rows = nil
	err := JSON(io.Discard, d)
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))
}

func TestSQLScript(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, SQLScript(&buf, sampleDataset()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "INSERT INTO people (id, name, score) VALUES (1, 'Ada', 9.5);", lines[0])
	assert.Equal(t, "INSERT INTO people (id, name, score) VALUES (2, NULL, 7);", lines[1])
	assert.Equal(t, "INSERT INTO people (id, name, score) VALUES (3, 'O''Brien', NULL);", lines[2])
}

func TestXLSXProducesReadableArchive(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, XLSX(&buf, sampleDataset()))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["xl/workbook.xml"])
	assert.True(t, names["xl/worksheets/sheet1.xml"])

	for _, f := range zr.File {
		if f.Name != "xl/worksheets/sheet1.xml" {
			continue
		}
		rc, err := f.Open()
		assert.NoError(t, err)
		body, err := io.ReadAll(rc)
		assert.NoError(t, err)
		rc.Close()
		sheet := string(body)
		assert.Contains(t, sheet, "Ada")
		assert.Contains(t, sheet, "O&#39;Brien")
		assert.Contains(t, sheet, `<c r="A2"><v>1</v></c>`)
	}
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "A1", cellRef(0, 1))
	assert.Equal(t, "Z5", cellRef(25, 5))
	assert.Equal(t, "AA2", cellRef(26, 2))
	assert.Equal(t, "AB10", cellRef(27, 10))
}

func TestERDiagramAndSQLDump(t *testing.T) {
	acc, err := store.Open(filepath.Join(t.TempDir(), "er.db"), store.Options{ForeignKeys: true})
	assert.NoError(t, err)
	defer acc.Close()

	ctx := context.Background()
	stmts := []string{
		"CREATE TABLE author (id INTEGER PRIMARY KEY, name TEXT)",
		"CREATE TABLE book (id INTEGER PRIMARY KEY, title TEXT, author_id INTEGER REFERENCES author(id))",
		"INSERT INTO author (id, name) VALUES (1, 'Ada')",
		"INSERT INTO book (id, title, author_id) VALUES (1, 'Notes', 1)",
	}
	for _, s := range stmts {
		_, err := acc.Exec(ctx, s)
		assert.NoError(t, err)
	}

	var diagram bytes.Buffer
	assert.NoError(t, ERDiagram(ctx, &diagram, schema.NewInspector(acc)))
	out := diagram.String()
	assert.Contains(t, out, "author\n")
	assert.Contains(t, out, "* id (INTEGER) PK")
	assert.Contains(t, out, "> FK: author_id -> author.id")

	var dump bytes.Buffer
	assert.NoError(t, SQLDump(ctx, &dump, acc))
	text := dump.String()
	assert.True(t, strings.HasPrefix(text, "BEGIN TRANSACTION;\n"))
	assert.True(t, strings.HasSuffix(text, "COMMIT;\n"))
	assert.Contains(t, text, "CREATE TABLE author")
	assert.Contains(t, text, `INSERT INTO "author" (id, name) VALUES (1, 'Ada');`)
}

func TestBackupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	assert.NoError(t, os.WriteFile(src, []byte("not really a database, but bytes"), 0o644))

	plain := filepath.Join(dir, "copy.db")
	sum1, err := Backup(src, plain)
	assert.NoError(t, err)
	copied, err := os.ReadFile(plain)
	assert.NoError(t, err)
	assert.Equal(t, "not really a database, but bytes", string(copied))

	packed := filepath.Join(dir, "copy.db.sz")
	sum2, err := CompressedBackup(src, packed)
	assert.NoError(t, err)
	assert.Equal(t, sum1, sum2) // checksums cover uncompressed bytes

	restored := filepath.Join(dir, "restored.db")
	assert.NoError(t, RestoreCompressed(packed, restored))
	back, err := os.ReadFile(restored)
	assert.NoError(t, err)
	assert.Equal(t, copied, back)

	_, err = Backup(filepath.Join(dir, "missing.db"), plain)
	assert.Equal(t, errors.CodeStorageError, errors.GetCode(err))
}
