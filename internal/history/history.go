// Package history provides the transactional undo/redo log: a two-stack
// LIFO of reversible commands. The log is table-agnostic: commands
// carry fully qualified statements, so undoing after switching tables
// still targets the table the command was built for.
package history

import (
	"context"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/store"
)

// Executor runs a statement with bound parameters. *store.Accessor
// satisfies this.
type Executor interface {
	Exec(ctx context.Context, stmt string, args ...interface{}) (store.Result, error)
}

// Command is one reversible mutation: a forward statement and the
// inverse that restores the exact prior observable state of every
// affected row. Commands are immutable once created; ownership
// transfers to the log on Push.
type Command struct {
	// Summary is the one-line description used for log output.
	Summary string

	Forward     string
	ForwardArgs []interface{}
	Inverse     string
	InverseArgs []interface{}
}

// Log holds the undo and redo stacks, most-recent-last. It is not safe
// for concurrent use; the editor has exactly one logical caller.
type Log struct {
	undo []Command
	redo []Command
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Push records a successfully executed command. New history always
// invalidates the old future: the redo stack is cleared.
func (l *Log) Push(cmd Command) {
	l.undo = append(l.undo, cmd)
	l.redo = l.redo[:0]
}

// Undo pops the most recent command, executes its inverse, and moves
// the command to the redo stack. Returns EmptyHistory when there is
// nothing to undo. On execution failure the command stays on the undo
// stack so the log never claims a replay that did not happen.
func (l *Log) Undo(ctx context.Context, ex Executor) (Command, error) {
	if len(l.undo) == 0 {
		return Command{}, errors.EmptyHistory("nothing to undo")
	}
	cmd := l.undo[len(l.undo)-1]
	if _, err := ex.Exec(ctx, cmd.Inverse, cmd.InverseArgs...); err != nil {
		return Command{}, err
	}
	l.undo = l.undo[:len(l.undo)-1]
	l.redo = append(l.redo, cmd)
	return cmd, nil
}

// Redo pops the most recently undone command, executes its forward
// statement, and moves the command back to the undo stack. Returns
// EmptyHistory when there is nothing to redo.
func (l *Log) Redo(ctx context.Context, ex Executor) (Command, error) {
	if len(l.redo) == 0 {
		return Command{}, errors.EmptyHistory("nothing to redo")
	}
	cmd := l.redo[len(l.redo)-1]
	if _, err := ex.Exec(ctx, cmd.Forward, cmd.ForwardArgs...); err != nil {
		return Command{}, err
	}
	l.redo = l.redo[:len(l.redo)-1]
	l.undo = append(l.undo, cmd)
	return cmd, nil
}

// UndoLen returns the number of undoable commands.
func (l *Log) UndoLen() int { return len(l.undo) }

// RedoLen returns the number of redoable commands.
func (l *Log) RedoLen() int { return len(l.redo) }

// Clear truncates both stacks. Called when a database is opened or
// closed: history must never cross unrelated databases.
func (l *Log) Clear() {
	l.undo = nil
	l.redo = nil
}
