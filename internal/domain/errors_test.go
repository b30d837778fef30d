package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateError(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		operation string
		err       error
		wantMsg   string
	}{
		{
			name:      "basic state error",
			key:       KeyMoves.name,
			operation: "Get",
			err:       ErrKeyNotFound,
			wantMsg:   "state error: operation=Get, key=moves, err=key not found",
		},
		{
			name:      "with wrapped error",
			key:       KeyRankings.name,
			operation: "With",
			err:       ErrInvalidState,
			wantMsg:   "state error: operation=With, key=rankings, err=invalid state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStateError(tt.key, tt.operation, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error(), "Error message mismatch")
			assert.Equal(t, tt.key, err.Key, "Key mismatch")
			assert.Equal(t, tt.operation, err.Operation, "Operation mismatch")
			assert.True(t, errors.Is(err, tt.err), "Should unwrap to underlying error")
		})
	}
}

func TestMissingKey(t *testing.T) {
	err := MissingKey(KeyComparisons, "btl_rank")

	assert.Equal(t, "comparisons", err.Key)
	assert.Equal(t, "btl_rank", err.Operation)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("Unit")
		err.AddError("missing configuration")

		assert.Equal(t, "validation error for Unit: missing configuration", err.Error())
		assert.True(t, err.HasErrors(), "Should have errors")
		assert.Len(t, err.Errors, 1, "Should have one error")
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("Pipeline")
		err.AddError("invalid units")
		err.AddError("missing dependencies")

		assert.Contains(t, err.Error(), "validation errors for Pipeline")
		assert.Len(t, err.Errors, 2, "Should have two errors")
	})

	t.Run("no errors", func(t *testing.T) {
		err := NewValidationError("Config")

		assert.False(t, err.HasErrors(), "Should not have errors")
		assert.Empty(t, err.Errors, "Errors slice should be empty")
		assert.NoError(t, err.Unwrap())
	})
}

func TestInvalid(t *testing.T) {
	err := Invalid("solver", ErrInvalidIterations, "iterations=%d", 0)

	assert.Equal(t, "validation error for solver: iterations=0", err.Error())
	assert.ErrorIs(t, err, ErrInvalidIterations)
	assert.NotErrorIs(t, err, ErrInvalidThreshold)

	wrapped := fmt.Errorf("rank: %w", err)
	var verr *ValidationError
	assert.ErrorAs(t, wrapped, &verr)
	assert.Equal(t, "solver", verr.Entity)
	assert.ErrorIs(t, wrapped, ErrInvalidIterations)
}

func TestCommonDomainErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrInvalidState, "invalid state"},
		{ErrKeyNotFound, "key not found"},
		{ErrInvalidIterations, "iterations must be at least 1"},
		{ErrInvalidThreshold, "convergence threshold must be a positive finite number"},
		{ErrNilComparator, "comparison function is nil"},
		{ErrInvalidConfiguration, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error(), "Error message mismatch")
		})
	}
}
