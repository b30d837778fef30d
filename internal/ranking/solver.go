// Package ranking implements the iterative Bradley-Terry-Luce solver that
// estimates a latent strength score for each item from pairwise win/loss
// evidence, and the weighted-criteria comparator that produces that
// evidence for moves.
package ranking

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/framerank/internal/domain"
)

// validate is the package-level validator for option and criterion structs.
var validate = validator.New()

// Default solver parameters.
const (
	DefaultIterations           = 100
	DefaultConvergenceThreshold = 1e-6

	// MinConvergenceThreshold is the smallest accepted threshold. Raw scores
	// shrink every round, so a threshold near the subnormal range lets them
	// underflow to zero before the loop stops.
	MinConvergenceThreshold = 1e-300
)

// CompareFunc returns the evidence for a against b.
type CompareFunc[T any] func(a, b T) domain.Comparison

// Options controls the fixed-point iteration.
type Options struct {
	// Iterations caps the number of update rounds. Must be at least 1.
	Iterations int `yaml:"iterations" json:"iterations"`

	// ConvergenceThreshold stops the loop once the largest score change in a
	// round falls below it. Must be finite and at least
	// MinConvergenceThreshold.
	ConvergenceThreshold float64 `yaml:"convergence_threshold" json:"convergence_threshold"`

	// Parallelism is the number of goroutines used to build the comparison
	// matrix. Zero or one builds it on the calling goroutine.
	Parallelism int `yaml:"parallelism" json:"parallelism" validate:"min=0,max=256"`
}

// DefaultOptions returns 100 iterations, a 1e-6 threshold and a sequential
// matrix build.
func DefaultOptions() Options {
	return Options{
		Iterations:           DefaultIterations,
		ConvergenceThreshold: DefaultConvergenceThreshold,
	}
}

// Validate rejects caller contract violations before any work is done.
func (o Options) Validate() error {
	if o.Iterations < 1 {
		return domain.Invalid("solver", domain.ErrInvalidIterations, "iterations=%d", o.Iterations)
	}
	t := o.ConvergenceThreshold
	if math.IsNaN(t) || math.IsInf(t, 0) || t < MinConvergenceThreshold {
		return domain.Invalid("solver", domain.ErrInvalidThreshold, "convergence_threshold=%g", t)
	}
	if err := validate.Struct(o); err != nil {
		return domain.Invalid("solver", domain.ErrInvalidConfiguration, "%v", err)
	}
	return nil
}

// Rank estimates a strength score for every item and returns the items
// sorted best first. Items are never modified. Exact score ties keep their
// input order.
//
// An empty input returns an empty result. A single item is returned with
// score 1 and rank 1, since no pairwise evidence exists.
func Rank[T any](
	ctx context.Context,
	items []T,
	compare CompareFunc[T],
	opts Options,
) ([]domain.RankedResult[T], domain.SolverReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, domain.SolverReport{}, err
	}
	if compare == nil {
		return nil, domain.SolverReport{}, domain.ErrNilComparator
	}

	matrix, err := BuildMatrix(ctx, items, compare, opts.Parallelism)
	if err != nil {
		return nil, domain.SolverReport{}, err
	}

	scores, report, err := Estimate(ctx, matrix, opts)
	if err != nil {
		return nil, report, err
	}

	return Order(items, scores), report, nil
}

// BuildMatrix invokes compare for every ordered pair i != j. The diagonal
// is left as the zero Comparison. With parallelism > 1 rows are computed
// concurrently; compare must then be safe for concurrent use.
func BuildMatrix[T any](
	ctx context.Context,
	items []T,
	compare CompareFunc[T],
	parallelism int,
) (domain.Matrix, error) {
	if compare == nil {
		return nil, domain.ErrNilComparator
	}

	n := len(items)
	matrix := make(domain.Matrix, n)
	row := func(i int) {
		matrix[i] = make([]domain.Comparison, n)
		for j := range n {
			if i != j {
				matrix[i][j] = compare(items[i], items[j])
			}
		}
	}

	if parallelism <= 1 || n < 2 {
		for i := range n {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			row(i)
		}
		return matrix, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matrix, nil
}

// Estimate runs the fixed-point update over a prebuilt matrix and returns
// the normalized scores in input order.
//
// Each round computes, for every item i,
//
//	new[i] = Σ_j C[i][j].Wins / Σ_j (C[i][j].Total / s[j])
//
// over partners j != i with s[j] > 0. When the denominator is zero the
// score is carried over unchanged. Partners whose score has reached zero are
// skipped in both sums because they cannot contribute a finite term.
//
// After the loop scores are divided by their sum when the sum is positive.
func Estimate(ctx context.Context, matrix domain.Matrix, opts Options) ([]float64, domain.SolverReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, domain.SolverReport{}, err
	}

	n := matrix.Size()
	for i, row := range matrix {
		if len(row) != n {
			return nil, domain.SolverReport{}, fmt.Errorf("%w: row %d has %d entries, want %d",
				domain.ErrMatrixMismatch, i, len(row), n)
		}
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0
	}

	var report domain.SolverReport
	next := make([]float64, n)
	for round := 0; round < opts.Iterations; round++ {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		maxChange := 0.0
		for i := range n {
			next[i] = update(matrix[i], scores, i)
			maxChange = math.Max(maxChange, math.Abs(next[i]-scores[i]))
		}
		scores, next = next, scores

		report.Iterations = round + 1
		report.MaxChange = maxChange
		if maxChange < opts.ConvergenceThreshold {
			report.Converged = true
			break
		}
	}

	normalize(scores)
	return scores, report, nil
}

// update computes the next score for item i from its matrix row.
func update(row []domain.Comparison, scores []float64, i int) float64 {
	var num, den float64
	for j, c := range row {
		if j == i || scores[j] <= 0 {
			continue
		}
		num += c.Wins
		den += c.Total / scores[j]
	}
	if den > 0 {
		return num / den
	}
	return scores[i]
}

// normalize scales scores in place to sum to one. A non-positive total is
// left untouched.
func normalize(scores []float64) {
	var total float64
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return
	}
	for i := range scores {
		scores[i] /= total
	}
}

// Order pairs items with their scores and sorts them best first. The sort
// is stable, so equal scores keep ascending input order. Ranks are the
// 1-based positions after sorting.
func Order[T any](items []T, scores []float64) []domain.RankedResult[T] {
	results := make([]domain.RankedResult[T], len(items))
	for i, item := range items {
		results[i] = domain.RankedResult[T]{Item: item, Score: scores[i], Rank: i + 1, Index: i}
	}

	slices.SortStableFunc(results, func(a, b domain.RankedResult[T]) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
