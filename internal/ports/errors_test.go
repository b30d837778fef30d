package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheError(t *testing.T) {
	base := errors.New("connection refused")
	err := NewCacheError("rank:abc", "Get", base)

	assert.Equal(t, "cache error: operation=Get, key=rank:abc, err=connection refused", err.Error())
	assert.Equal(t, "rank:abc", err.Key)
	assert.True(t, errors.Is(err, base))

	var cerr *CacheError
	assert.ErrorAs(t, fmt.Errorf("lookup: %w", err), &cerr)
	assert.Equal(t, "Get", cerr.Operation)
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("framerank.yaml", ErrConfigNotFound)

	assert.Equal(t, "config error: key=framerank.yaml, err=configuration not found", err.Error())
	assert.ErrorIs(t, err, ErrConfigNotFound)

	var cerr *ConfigError
	assert.ErrorAs(t, fmt.Errorf("load: %w", err), &cerr)
	assert.Equal(t, "framerank.yaml", cerr.ConfigKey)
}

func TestCommonInfrastructureErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrRateLimited, "rate limited"},
		{ErrServiceUnavailable, "service unavailable"},
		{ErrTimeout, "operation timed out"},
		{ErrConfigNotFound, "configuration not found"},
		{ErrUnknownUnitType, "unknown unit type"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}
