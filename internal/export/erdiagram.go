package export

import (
	"context"
	"fmt"
	"io"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/schema"
)

// ERDiagram writes a plain-text entity overview of the whole database:
// every table with its columns and declared types, plus one line per
// outgoing foreign key.
func ERDiagram(ctx context.Context, w io.Writer, insp *schema.Inspector) error {
	names, err := insp.Tables(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		tab, err := insp.Describe(ctx, name)
		if err != nil {
			return err
		}
		if err := writeEntity(w, tab); err != nil {
			return err
		}
	}
	return nil
}

func writeEntity(w io.Writer, tab *schema.Table) error {
	if _, err := fmt.Fprintf(w, "%s\n", tab.Name); err != nil {
		return errors.StorageError("export: write diagram", err)
	}
	for _, c := range tab.Columns {
		marker := ""
		if c.PrimaryKey {
			marker = " PK"
		}
		if _, err := fmt.Fprintf(w, "  * %s (%s)%s\n", c.Name, c.DeclaredType, marker); err != nil {
			return errors.StorageError("export: write diagram", err)
		}
	}
	for _, fk := range tab.ForeignKeys {
		if _, err := fmt.Fprintf(w, "  > FK: %s -> %s.%s\n", fk.FromColumn, fk.Table, fk.ToColumn); err != nil {
			return errors.StorageError("export: write diagram", err)
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return errors.StorageError("export: write diagram", err)
	}
	return nil
}
