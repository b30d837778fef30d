package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ranking"
	"github.com/ahrav/framerank/internal/testutils"
)

func TestNewPairwiseCompareUnit(t *testing.T) {
	tests := []struct {
		name        string
		unitName    string
		config      PairwiseCompareConfig
		expectedErr string
	}{
		{name: "default config", unitName: "compare", config: DefaultPairwiseCompareConfig()},
		{name: "empty criteria fall back to defaults", unitName: "compare", config: PairwiseCompareConfig{}},
		{name: "empty name", unitName: "", config: DefaultPairwiseCompareConfig(), expectedErr: "unit name cannot be empty"},
		{
			name:        "unknown missing policy",
			unitName:    "compare",
			config:      PairwiseCompareConfig{Missing: "guess"},
			expectedErr: "configuration validation failed",
		},
		{
			name:        "parallelism out of range",
			unitName:    "compare",
			config:      PairwiseCompareConfig{Parallelism: 1000},
			expectedErr: "configuration validation failed",
		},
		{
			name:     "bad criterion",
			unitName: "compare",
			config: PairwiseCompareConfig{Criteria: []ranking.Criterion{
				{Name: "reach", Weight: 1, Better: ranking.BetterHigher, Attribute: "reach"},
			}},
			expectedErr: "unknown attribute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewPairwiseCompareUnit(tt.unitName, tt.config)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				assert.Nil(t, unit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.unitName, unit.Name())
			assert.NoError(t, unit.Validate())
		})
	}
}

func TestPairwiseCompareUnit_Execute(t *testing.T) {
	unit, err := NewPairwiseCompareUnit("compare", DefaultPairwiseCompareConfig())
	require.NoError(t, err)

	moves := testutils.SampleMoves()
	state := domain.With(domain.NewState(), domain.KeyMoves, moves)

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	matrix, ok := domain.Get(out, domain.KeyComparisons)
	require.True(t, ok)
	require.Equal(t, len(moves), matrix.Size())

	wantJabRow := []float64{0, 0.8, 0.8, 0.55, 0.8}
	for j, want := range wantJabRow {
		assert.InDelta(t, want, matrix[0][j].Wins, 1e-12)
	}
	assert.False(t, domain.Has(state, domain.KeyComparisons), "input state must be untouched")

	t.Run("missing moves", func(t *testing.T) {
		_, err := unit.Execute(context.Background(), domain.NewState())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		dup := append(testutils.SampleMoves(), testutils.SampleMoves()[0])
		_, err := unit.Execute(context.Background(), domain.With(domain.NewState(), domain.KeyMoves, dup))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate move id")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := unit.Execute(ctx, state)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewPairwiseCompareFromConfig(t *testing.T) {
	unit, err := NewPairwiseCompareFromConfig("compare", map[string]any{
		"missing":     "tie",
		"parallelism": 4,
		"criteria": []any{
			map[string]any{"name": "speed", "weight": 1.0, "better": "lower", "attribute": "startup_frames"},
		},
	})
	require.NoError(t, err)

	pc, ok := unit.(*PairwiseCompareUnit)
	require.True(t, ok)
	assert.Equal(t, ranking.MissingTie, pc.config.Missing)
	assert.Equal(t, 4, pc.config.Parallelism)
	require.Len(t, pc.config.Criteria, 1)
	assert.Equal(t, domain.AttrStartupFrames, pc.config.Criteria[0].Attribute)

	t.Run("nil config uses defaults", func(t *testing.T) {
		unit, err := NewPairwiseCompareFromConfig("compare", nil)
		require.NoError(t, err)
		assert.Len(t, unit.(*PairwiseCompareUnit).config.Criteria, 5)
	})

	t.Run("bad type", func(t *testing.T) {
		_, err := NewPairwiseCompareFromConfig("compare", map[string]any{"parallelism": "many"})
		assert.Error(t, err)
	})
}
