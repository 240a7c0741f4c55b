package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/internal/store"
)

// recordingExec captures executed statements and can be told to fail.
type recordingExec struct {
	stmts []string
	args  [][]interface{}
	fail  error
}

func (r *recordingExec) Exec(_ context.Context, stmt string, args ...interface{}) (store.Result, error) {
	if r.fail != nil {
		return store.Result{}, r.fail
	}
	r.stmts = append(r.stmts, stmt)
	r.args = append(r.args, args)
	return store.Result{RowsAffected: 1}, nil
}

func cmd(n int) Command {
	return Command{
		Summary:     fmt.Sprintf("edit %d", n),
		Forward:     fmt.Sprintf("FWD %d", n),
		ForwardArgs: []interface{}{n},
		Inverse:     fmt.Sprintf("INV %d", n),
		InverseArgs: []interface{}{-n},
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	l := NewLog()
	ex := &recordingExec{}
	ctx := context.Background()

	l.Push(cmd(1))
	assert.Equal(t, 1, l.UndoLen())
	assert.Equal(t, 0, l.RedoLen())

	got, err := l.Undo(ctx, ex)
	assert.NoError(t, err)
	assert.Equal(t, "INV 1", ex.stmts[len(ex.stmts)-1])
	assert.Equal(t, []interface{}{-1}, ex.args[len(ex.args)-1])
	assert.Equal(t, "edit 1", got.Summary)
	assert.Equal(t, 0, l.UndoLen())
	assert.Equal(t, 1, l.RedoLen())

	got, err = l.Redo(ctx, ex)
	assert.NoError(t, err)
	assert.Equal(t, "FWD 1", ex.stmts[len(ex.stmts)-1])
	assert.Equal(t, 1, l.UndoLen())
	assert.Equal(t, 0, l.RedoLen())
	assert.Equal(t, "edit 1", got.Summary)
}

func TestEmptyHistory(t *testing.T) {
	l := NewLog()
	ex := &recordingExec{}
	ctx := context.Background()

	_, err := l.Undo(ctx, ex)
	assert.Equal(t, errors.CodeEmptyHistory, errors.GetCode(err))

	_, err = l.Redo(ctx, ex)
	assert.Equal(t, errors.CodeEmptyHistory, errors.GetCode(err))
	assert.Empty(t, ex.stmts)
}

func TestPushClearsRedo(t *testing.T) {
	l := NewLog()
	ex := &recordingExec{}
	ctx := context.Background()

	l.Push(cmd(1))
	l.Push(cmd(2))
	_, err := l.Undo(ctx, ex)
	assert.NoError(t, err)
	assert.Equal(t, 1, l.RedoLen())

	// A new push invalidates the old future.
	l.Push(cmd(3))
	assert.Equal(t, 0, l.RedoLen())

	_, err = l.Redo(ctx, ex)
	assert.Equal(t, errors.CodeEmptyHistory, errors.GetCode(err))
}

func TestFailedReplayLeavesStacksUntouched(t *testing.T) {
	l := NewLog()
	ctx := context.Background()

	l.Push(cmd(1))
	failing := &recordingExec{fail: fmt.Errorf("disk broke")}

	_, err := l.Undo(ctx, failing)
	assert.Error(t, err)
	assert.Equal(t, 1, l.UndoLen())
	assert.Equal(t, 0, l.RedoLen())
}

func TestLIFOOrder(t *testing.T) {
	l := NewLog()
	ex := &recordingExec{}
	ctx := context.Background()

	l.Push(cmd(1))
	l.Push(cmd(2))
	l.Push(cmd(3))

	_, err := l.Undo(ctx, ex)
	assert.NoError(t, err)
	_, err = l.Undo(ctx, ex)
	assert.NoError(t, err)
	assert.Equal(t, []string{"INV 3", "INV 2"}, ex.stmts)

	_, err = l.Redo(ctx, ex)
	assert.NoError(t, err)
	assert.Equal(t, "FWD 2", ex.stmts[len(ex.stmts)-1])
}

func TestClear(t *testing.T) {
	l := NewLog()
	l.Push(cmd(1))
	l.Push(cmd(2))
	l.Clear()
	assert.Equal(t, 0, l.UndoLen())
	assert.Equal(t, 0, l.RedoLen())
}
