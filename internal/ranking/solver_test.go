package ranking

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/testutils"
)

// fourCriteria is the speed/safety/damage/endlag weight set without the
// upstream rating criterion.
func fourCriteria() []Criterion {
	return DefaultCriteria()[:4]
}

func rankSample(t *testing.T, criteria []Criterion, opts Options) ([]domain.RankedMove, domain.SolverReport) {
	t.Helper()
	cmp, err := NewWeightedComparator(criteria, MissingSkip)
	require.NoError(t, err)

	results, report, err := Rank(context.Background(), testutils.SampleMoves(), cmp.Compare, opts)
	require.NoError(t, err)
	return results, report
}

func ids(results []domain.RankedMove) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Item.ID
	}
	return out
}

// TestRank_SampleMoves checks the ranking of the five-move sample against
// scores produced by an independent run of the same update rule.
func TestRank_SampleMoves(t *testing.T) {
	tests := []struct {
		name       string
		criteria   []Criterion
		wantOrder  []string
		wantScores []float64
	}{
		{
			name:      "default criteria",
			criteria:  DefaultCriteria(),
			wantOrder: []string{"mario-jab-1", "mario-nair", "mario-ftilt", "mario-fair", "mario-fsmash"},
			wantScores: []float64{
				0.2777491569259822, 0.23682854790031158, 0.21636824337252467,
				0.15089526842597434, 0.11815878337520737,
			},
		},
		{
			name:      "four criteria without rating",
			criteria:  fourCriteria(),
			wantOrder: []string{"mario-jab-1", "mario-ftilt", "mario-nair", "mario-fair", "mario-fsmash"},
			wantScores: []float64{
				0.2775755061372164, 0.2365061200929437, 0.22281632471754995,
				0.1543673468302545, 0.10873470222203553,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, report := rankSample(t, tt.criteria, DefaultOptions())

			assert.Equal(t, tt.wantOrder, ids(results))
			for i, r := range results {
				assert.InDelta(t, tt.wantScores[i], r.Score, 1e-9, "score of %s", r.Item.ID)
				assert.Equal(t, i+1, r.Rank)
			}
			assert.True(t, report.Converged)
			assert.Equal(t, 18, report.Iterations)
		})
	}
}

// TestRank_SmallestThreshold runs the sample to the threshold floor. Raw
// scores shrink to around the floor, yet normalization still recovers the
// default ranking.
func TestRank_SmallestThreshold(t *testing.T) {
	opts := Options{Iterations: 100000, ConvergenceThreshold: MinConvergenceThreshold}
	results, report := rankSample(t, DefaultCriteria(), opts)

	assert.True(t, report.Converged)
	assert.Greater(t, report.Iterations, 18)
	assert.Equal(t, []string{"mario-jab-1", "mario-nair", "mario-ftilt", "mario-fair", "mario-fsmash"}, ids(results))

	var sum float64
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
		sum += r.Score
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.2777491569259822, results[0].Score, 1e-6)
}

func TestRank_Normalization(t *testing.T) {
	results, _ := rankSample(t, DefaultCriteria(), DefaultOptions())

	var sum float64
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		sum += r.Score
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRank_RankOrdering(t *testing.T) {
	results, _ := rankSample(t, DefaultCriteria(), DefaultOptions())

	seen := make(map[int]bool, len(results))
	for i, r := range results {
		seen[r.Rank] = true
		if i > 0 {
			assert.Less(t, results[i-1].Rank, r.Rank)
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
		}
	}
	for rank := 1; rank <= len(results); rank++ {
		assert.True(t, seen[rank], "rank %d missing", rank)
	}
}

func TestRank_Determinism(t *testing.T) {
	opts := DefaultOptions()
	first, firstReport := rankSample(t, fourCriteria(), opts)
	second, secondReport := rankSample(t, fourCriteria(), opts)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)

	opts.Parallelism = 4
	parallel, parallelReport := rankSample(t, fourCriteria(), opts)
	assert.Equal(t, first, parallel, "parallel matrix build must not change results")
	assert.Equal(t, firstReport, parallelReport)
}

func TestRank_EdgeCases(t *testing.T) {
	ctx := context.Background()
	never := func(a, b domain.Move) domain.Comparison {
		t.Fatal("compare must not be called")
		return domain.Comparison{}
	}

	t.Run("empty input returns empty result", func(t *testing.T) {
		results, _, err := Rank(ctx, []domain.Move{}, never, DefaultOptions())
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("single item gets rank one", func(t *testing.T) {
		moves := testutils.SampleMoves()[:1]
		results, report, err := Rank(ctx, moves, never, DefaultOptions())
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, results[0].Rank)
		assert.Equal(t, 1.0, results[0].Score)
		assert.Equal(t, moves[0].ID, results[0].Item.ID)
		assert.True(t, report.Converged)
	})

	t.Run("identical items tie", func(t *testing.T) {
		moves := testutils.SampleMoves()
		twins := []domain.Move{moves[0], moves[0]}
		twins[1].ID = "mario-jab-1-copy"

		cmp, err := NewWeightedComparator(DefaultCriteria(), MissingSkip)
		require.NoError(t, err)

		results, _, err := Rank(ctx, twins, cmp.Compare, DefaultOptions())
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, results[0].Score, results[1].Score)
		assert.InDelta(t, 0.5, results[0].Score, 1e-12)
		// Stable tie-break keeps input order.
		assert.Equal(t, "mario-jab-1", results[0].Item.ID)
		assert.Equal(t, 0, results[0].Index)
	})

	t.Run("dominated items collapse without dividing by zero", func(t *testing.T) {
		values := []int{3, 2, 1}
		higher := func(a, b int) domain.Comparison {
			return Tally([]Contest{{Weight: 1, Better: BetterHigher, A: float64(a), B: float64(b)}})
		}
		results, report, err := Rank(ctx, values, higher, DefaultOptions())
		require.NoError(t, err)

		assert.Equal(t, []float64{1, 0, 0}, []float64{results[0].Score, results[1].Score, results[2].Score})
		assert.Equal(t, 3, results[0].Item)
		for _, r := range results {
			assert.False(t, math.IsNaN(r.Score) || math.IsInf(r.Score, 0))
		}
		assert.True(t, report.Converged)
		assert.Equal(t, 3, report.Iterations)
	})

	t.Run("zero evidence keeps uniform scores", func(t *testing.T) {
		none := func(a, b string) domain.Comparison { return domain.Comparison{} }
		results, report, err := Rank(ctx, []string{"a", "b", "c", "d"}, none, DefaultOptions())
		require.NoError(t, err)
		for i, r := range results {
			assert.InDelta(t, 0.25, r.Score, 1e-12)
			assert.Equal(t, i, r.Index)
		}
		assert.Equal(t, 1, report.Iterations)
	})
}

func TestRank_EarlyTermination(t *testing.T) {
	var calls atomic.Int64
	tie := func(a, b string) domain.Comparison {
		calls.Add(1)
		return domain.Comparison{Wins: 0.5, Total: 1}
	}

	opts := Options{Iterations: 100, ConvergenceThreshold: 0.6}
	results, report, err := Rank(context.Background(), []string{"a", "b"}, tie, opts)
	require.NoError(t, err)

	assert.True(t, report.Converged)
	assert.Less(t, report.Iterations, 5)
	assert.Equal(t, 1, report.Iterations)
	assert.InDelta(t, 0.5, report.MaxChange, 1e-12)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(2), calls.Load(), "matrix is built once")

	t.Run("exhausts the budget when the threshold is never reached", func(t *testing.T) {
		opts := Options{Iterations: 3, ConvergenceThreshold: 1e-12}
		_, report, err := Rank(context.Background(), []string{"a", "b"}, tie, opts)
		require.NoError(t, err)
		assert.False(t, report.Converged)
		assert.Equal(t, 3, report.Iterations)
	})
}

func TestRank_Validation(t *testing.T) {
	cmp := func(a, b int) domain.Comparison { return domain.Comparison{} }

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"zero iterations", Options{Iterations: 0, ConvergenceThreshold: 1e-6}, domain.ErrInvalidIterations},
		{"negative iterations", Options{Iterations: -3, ConvergenceThreshold: 1e-6}, domain.ErrInvalidIterations},
		{"zero threshold", Options{Iterations: 10, ConvergenceThreshold: 0}, domain.ErrInvalidThreshold},
		{"negative threshold", Options{Iterations: 10, ConvergenceThreshold: -1}, domain.ErrInvalidThreshold},
		{"NaN threshold", Options{Iterations: 10, ConvergenceThreshold: math.NaN()}, domain.ErrInvalidThreshold},
		{"infinite threshold", Options{Iterations: 10, ConvergenceThreshold: math.Inf(1)}, domain.ErrInvalidThreshold},
		{"subnormal threshold", Options{Iterations: 10, ConvergenceThreshold: math.SmallestNonzeroFloat64}, domain.ErrInvalidThreshold},
		{"threshold below floor", Options{Iterations: 10, ConvergenceThreshold: MinConvergenceThreshold / 10}, domain.ErrInvalidThreshold},
		{"negative parallelism", Options{Iterations: 10, ConvergenceThreshold: 1e-6, Parallelism: -1}, domain.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Rank(context.Background(), []int{1, 2}, cmp, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	t.Run("nil comparator", func(t *testing.T) {
		_, _, err := Rank[int](context.Background(), []int{1, 2}, nil, DefaultOptions())
		assert.ErrorIs(t, err, domain.ErrNilComparator)
	})
}

func TestRank_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmp := func(a, b int) domain.Comparison { return domain.Comparison{Wins: 1, Total: 2} }
	_, _, err := Rank(ctx, []int{1, 2, 3}, cmp, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimate_MatrixMismatch(t *testing.T) {
	matrix := domain.Matrix{
		{{}, {Wins: 1, Total: 1}},
		{{}},
	}
	_, _, err := Estimate(context.Background(), matrix, DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrMatrixMismatch)
}

func TestBuildMatrix(t *testing.T) {
	cmp, err := NewWeightedComparator(fourCriteria(), MissingSkip)
	require.NoError(t, err)
	moves := testutils.SampleMoves()

	matrix, err := BuildMatrix(context.Background(), moves, cmp.Compare, 0)
	require.NoError(t, err)
	require.Equal(t, len(moves), matrix.Size())

	for i := range moves {
		assert.Equal(t, domain.Comparison{}, matrix[i][i], "diagonal must be empty")
		for j := range moves {
			if i == j {
				continue
			}
			// Both directions share the same total mass.
			assert.InDelta(t, matrix[i][j].Total, matrix[j][i].Total, 1e-12)
			assert.InDelta(t, matrix[i][j].Total, matrix[i][j].Wins+matrix[j][i].Wins, 1e-12)
		}
	}
}

func TestOrder_StableTies(t *testing.T) {
	results := Order([]string{"a", "b", "c", "d"}, []float64{0.2, 0.3, 0.2, 0.3})

	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Item
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
}
