// Package console implements the interactive command loop. Each input
// line is one operation; operations log their outcome through the
// shared sink and the loop keeps running no matter what an operation
// does, including panicking.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gridb/gridb/internal/config"
	"github.com/gridb/gridb/internal/engine"
	"github.com/gridb/gridb/internal/export"
	"github.com/gridb/gridb/internal/logging"
	"github.com/gridb/gridb/internal/schema"
	"github.com/gridb/gridb/internal/store"
)

// Console owns at most one open database at a time and dispatches
// commands against it.
type Console struct {
	cfg  *config.Config
	sink logging.Sink
	out  io.Writer

	eng  *engine.Engine
	path string
}

// New creates a console. Output that is data (query results, table
// pages, diagrams) goes to out; operational status goes to the sink.
func New(cfg *config.Config, sink logging.Sink, out io.Writer) *Console {
	return &Console{cfg: cfg, sink: sink, out: out}
}

// Close releases the open database, if any.
func (c *Console) Close() error {
	if c.eng == nil {
		return nil
	}
	err := c.eng.Close()
	c.eng = nil
	c.path = ""
	return err
}

// Run reads commands line by line until EOF or the quit command.
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if c.Execute(ctx, scanner.Text()) {
			break
		}
	}
	return scanner.Err()
}

// Execute runs one command line and reports whether the loop should
// stop. This is the recovery boundary: a panicking operation is
// logged and the console carries on.
func (c *Console) Execute(ctx context.Context, line string) (quit bool) {
	defer func() {
		if r := recover(); r != nil {
			c.sink.Errorf("internal error: %v", r)
		}
	}()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.printHelp()
		return false
	}

	if err := c.dispatch(ctx, cmd, args, line); err != nil {
		c.sink.Errorf("%v", err)
	}
	return false
}

// dispatch routes one command. Engine operations report their own
// outcome through the sink, so their errors are not re-logged here;
// only usage problems come back as errors.
func (c *Console) dispatch(ctx context.Context, cmd string, args []string, line string) error {
	switch cmd {
	case "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: open <path>")
		}
		return c.open(args[0])
	case "close":
		if err := c.Close(); err != nil {
			return err
		}
		c.sink.Infof("database closed")
		return nil
	}

	if c.eng == nil {
		return fmt.Errorf("no database open (use: open <path>)")
	}

	switch cmd {
	case "tables":
		names, err := c.eng.Tables(ctx)
		if err != nil {
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(c.out, n)
		}
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load <table>")
		}
		if err := c.eng.Load(ctx, args[0]); err == nil {
			c.showPage()
		}
	case "show":
		c.showPage()
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: set <row> <column> <value>")
		}
		row, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("set: row index %q is not a number", args[0])
		}
		// The value is everything after the column token, spaces kept.
		input := valueArg(line, 3)
		if applied, err := c.eng.SetCell(ctx, row, args[1], input); err == nil && applied {
			c.showPage()
		}
	case "addrow":
		if err := c.eng.AddRow(ctx); err == nil {
			c.showPage()
		}
	case "delrow":
		if len(args) == 0 {
			return fmt.Errorf("usage: delrow <row> [row...]")
		}
		rows := make([]int, len(args))
		for i, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("delrow: row index %q is not a number", a)
			}
			rows[i] = n
		}
		if err := c.eng.DeleteRows(ctx, rows); err == nil {
			c.showPage()
		}
	case "addcol":
		if len(args) != 2 {
			return fmt.Errorf("usage: addcol <name> <type>")
		}
		if err := c.eng.AddColumn(ctx, args[0], args[1]); err == nil {
			c.showPage()
		}
	case "dropcol":
		if len(args) != 1 {
			return fmt.Errorf("usage: dropcol <name>")
		}
		if err := c.eng.DropColumn(ctx, args[0]); err == nil {
			c.showPage()
		}
	case "undo":
		if err := c.eng.Undo(ctx); err == nil {
			c.showPage()
		}
	case "redo":
		if err := c.eng.Redo(ctx); err == nil {
			c.showPage()
		}
	case "history":
		undo, redo := c.eng.History()
		fmt.Fprintf(c.out, "undo: %d  redo: %d\n", undo, redo)
	case "refresh":
		if changed, err := c.eng.Refresh(ctx); err == nil && changed {
			c.showPage()
		}
	case "sql":
		stmt := valueArg(line, 1)
		rs, err := c.eng.ExecSQL(ctx, stmt)
		if err == nil && len(rs.Rows) > 0 {
			renderResultSet(c.out, rs)
		}
	case "seek":
		if len(args) != 1 {
			return fmt.Errorf("usage: seek <offset>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("seek: offset %q is not a number", args[0])
		}
		if err := c.eng.Seek(ctx, n); err == nil {
			c.showPage()
		}
	case "next":
		if err := c.eng.NextPage(ctx); err == nil {
			c.showPage()
		}
	case "prev":
		if err := c.eng.PrevPage(ctx); err == nil {
			c.showPage()
		}
	case "create":
		if len(args) != 1 {
			return fmt.Errorf("usage: create <table>")
		}
		_ = c.eng.CreateTable(ctx, args[0])
	case "drop":
		if len(args) != 1 {
			return fmt.Errorf("usage: drop <table>")
		}
		_ = c.eng.DropTable(ctx, args[0])
	case "rename":
		if len(args) != 2 {
			return fmt.Errorf("usage: rename <old> <new>")
		}
		_ = c.eng.RenameTable(ctx, args[0], args[1])
	case "vacuum":
		_ = c.eng.Vacuum(ctx)
	case "export":
		if len(args) != 2 {
			return fmt.Errorf("usage: export <csv|json|sql|xlsx|dump> <path>")
		}
		return c.export(ctx, args[0], args[1])
	case "er":
		return c.erDiagram(ctx, args)
	case "backup":
		if len(args) != 1 {
			return fmt.Errorf("usage: backup <path>")
		}
		return c.backup(args[0])
	default:
		return fmt.Errorf("unknown command %q (try: help)", cmd)
	}
	return nil
}

func (c *Console) open(path string) error {
	if err := c.Close(); err != nil {
		return err
	}
	acc, err := store.Open(path, store.Options{
		BusyTimeout: c.cfg.BusyTimeout,
		ForeignKeys: c.cfg.ForeignKeys,
	})
	if err != nil {
		return err
	}
	c.eng = engine.New(acc, c.cfg.PageSize, c.sink)
	c.path = path
	c.sink.Infof("database %s opened", path)
	return nil
}

func (c *Console) export(ctx context.Context, format, path string) error {
	path = c.resolvePath(path)

	if format == "dump" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.SQLDump(ctx, f, c.eng.Accessor()); err != nil {
			return err
		}
		c.sink.Infof("sql dump exported to %s", path)
		return nil
	}

	if !c.eng.Loaded() {
		return fmt.Errorf("no table loaded")
	}
	d := export.NewDataset(c.eng.Table(), c.eng.Snapshot().Rows)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "csv":
		err = export.CSV(f, d)
	case "json":
		err = export.JSON(f, d)
	case "sql":
		err = export.SQLScript(f, d)
	case "xlsx":
		err = export.XLSX(f, d)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return err
	}
	c.sink.Infof("%s exported to %s", format, path)
	return nil
}

func (c *Console) erDiagram(ctx context.Context, args []string) error {
	insp := schema.NewInspector(c.eng.Accessor())
	if len(args) == 0 || args[0] == "-" {
		return export.ERDiagram(ctx, c.out, insp)
	}
	path := c.resolvePath(args[0])
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.ERDiagram(ctx, f, insp); err != nil {
		return err
	}
	c.sink.Infof("diagram exported to %s", path)
	return nil
}

func (c *Console) backup(path string) error {
	path = c.resolvePath(path)
	var (
		sum string
		err error
	)
	if c.cfg.Export.CompressBackups {
		sum, err = export.CompressedBackup(c.path, path)
	} else {
		sum, err = export.Backup(c.path, path)
	}
	if err != nil {
		return err
	}
	c.sink.Infof("database backed up to %s (md5 %s)", path, sum)
	return nil
}

func (c *Console) resolvePath(path string) string {
	if filepath.IsAbs(path) || c.cfg.Export.Dir == "" {
		return path
	}
	return filepath.Join(c.cfg.Export.Dir, path)
}

// valueArg returns the input line from the nth whitespace-separated
// token onward, preserving interior spacing. Cell values and SQL text
// must survive untouched.
func valueArg(line string, n int) string {
	rest := line
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		cut := strings.IndexAny(rest, " \t")
		if cut < 0 {
			return ""
		}
		rest = rest[cut:]
	}
	return strings.TrimLeft(rest, " \t")
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `commands:
  open <path>                open or create a database
  close                      close the current database
  tables                     list tables
  load <table>               load a table for editing
  show                       print the current page
  set <row> <col> <value>    edit one cell
  addrow                     append an empty row
  delrow <row> [row...]      delete rows by index
  addcol <name> <type>       add a column
  dropcol <name>             drop a column
  undo / redo                walk the edit history
  history                    show history depths
  refresh                    re-read the current page
  sql <statement>            run raw SQL
  seek <offset> / next / prev  page through rows
  create / drop / rename     table management
  vacuum                     compact the database file
  export <format> <path>     csv, json, sql, xlsx, or dump
  er [path]                  entity diagram (stdout with no path)
  backup <path>              copy the database file
  quit                       leave
`)
}
