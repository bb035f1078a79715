package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{
			"entity and key",
			NotFoundError("booking", "7"),
			"NOT_FOUND: no such row (entity=booking, key=7)",
		},
		{
			"entity only",
			ValidationErrorf("booking", "unknown field %q", "rating"),
			`VALIDATION: unknown field "rating" (entity=booking)`,
		},
		{
			"bare",
			schemaError("init failed", nil),
			"SCHEMA: init failed",
		},
		{
			"conflict carries both versions",
			ConflictError("account", "1", 1, 3),
			"CONFLICT: version mismatch: supplied 1, current 3 (entity=account, key=1)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(ValidationErrorf("b", "bad")))
	assert.Equal(t, CodeNotFound, CodeOf(NotFoundError("b", "1")))
	assert.Equal(t, CodeConflict, CodeOf(ConflictError("b", "1", 1, 2)))
	assert.Equal(t, CodeStorage, CodeOf(errors.New("plain")))

	// Wrapping preserves the code.
	wrapped := fmt.Errorf("while handling request: %w", NotFoundError("b", "1"))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := storageError("booking", "insert row", cause)
	assert.True(t, errors.Is(err, cause))
}
