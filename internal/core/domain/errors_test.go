package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrToolNotFound", ErrToolNotFound},
		{"ErrToolTimeout", ErrToolTimeout},
		{"ErrDecode", ErrDecode},
		{"ErrInsufficientText", ErrInsufficientText},
		{"ErrCheckpointMismatch", ErrCheckpointMismatch},
		{"ErrIndexLocked", ErrIndexLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that sentinel errors do not match each other
func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrToolNotFound, ErrToolTimeout))
	assert.False(t, errors.Is(ErrDecode, ErrInsufficientText))
	assert.False(t, errors.Is(ErrCheckpointMismatch, ErrInvalidInput))
}

// TestErrors_Wrapping tests that wrapped errors still match
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("djvutxt: %w", ErrToolTimeout)
	assert.True(t, errors.Is(wrapped, ErrToolTimeout))
	assert.Contains(t, wrapped.Error(), "djvutxt")
}
