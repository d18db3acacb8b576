package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := Conflict("bk-42", "interval overlaps booking bk-42")
	wrapped := fmt.Errorf("reserving: %w", err)

	assert.Equal(t, KindConflict, KindOf(wrapped))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "bk-42", e.ConflictID)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("connection refused")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestErrorMessageIncludesField(t *testing.T) {
	err := InvalidArgument("latitude", "must be within [-90, 90], got %g", 95.0)
	assert.Contains(t, err.Error(), "latitude")
	assert.Contains(t, err.Error(), "invalid_argument")
}
