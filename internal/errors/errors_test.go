package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCategoryHistory, CodeEmptyHistory, "nothing to undo")
	assert.Equal(t, "[HISTORY:EMPTY_HISTORY] nothing to undo", err.Error())

	wrapped := Wrap(ErrCategoryStorage, CodeStorageError, "update failed", fmt.Errorf("disk full"))
	assert.Contains(t, wrapped.Error(), "update failed")
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestUnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(ErrCategoryStorage, CodeBusy, "database locked", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, New(ErrCategoryStorage, CodeBusy, "anything")))
	assert.False(t, stderrors.Is(err, New(ErrCategoryStorage, CodeStorageError, "anything")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Busy("locked", nil)))
	assert.False(t, IsRetryable(StorageError("boom", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestCodeExtraction(t *testing.T) {
	err := NoIdentityf("table %s has no identity", "t")
	assert.Equal(t, CodeNoIdentity, GetCode(err))
	assert.True(t, HasCode(err, CodeNoIdentity))

	// Codes survive wrapping in plain errors.
	outer := fmt.Errorf("while deleting: %w", err)
	assert.Equal(t, CodeNoIdentity, GetCode(outer))

	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
}
