package units

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ports"
	"github.com/ahrav/framerank/internal/ranking"
)

var _ ports.Unit = (*BTLRankUnit)(nil)

// BTLRankUnit runs the Bradley-Terry-Luce fixed-point iteration over the
// comparison matrix in state and produces the overall ranking.
//
// State requirements:
//   - domain.KeyMoves: the moves, in the order the matrix was built
//   - domain.KeyComparisons: the matrix from pairwise_compare
//
// Writes domain.KeyRankings and domain.KeySolverReport.
type BTLRankUnit struct {
	name   string
	config BTLRankConfig
	tracer trace.Tracer
}

// BTLRankConfig holds the solver parameters.
type BTLRankConfig struct {
	// Iterations caps the number of update rounds.
	Iterations int `yaml:"iterations" json:"iterations" validate:"min=1"`

	// ConvergenceThreshold stops iteration once the largest score change in
	// a round falls below it.
	ConvergenceThreshold float64 `yaml:"convergence_threshold" json:"convergence_threshold" validate:"gt=0"`
}

// DefaultBTLRankConfig returns 100 iterations and a 1e-6 threshold.
func DefaultBTLRankConfig() BTLRankConfig {
	return BTLRankConfig{
		Iterations:           ranking.DefaultIterations,
		ConvergenceThreshold: ranking.DefaultConvergenceThreshold,
	}
}

func (c BTLRankConfig) options() ranking.Options {
	return ranking.Options{Iterations: c.Iterations, ConvergenceThreshold: c.ConvergenceThreshold}
}

// NewBTLRankUnit validates config and returns the unit.
func NewBTLRankUnit(name string, config BTLRankConfig) (*BTLRankUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := config.options().Validate(); err != nil {
		return nil, err
	}
	return &BTLRankUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("btl-rank-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *BTLRankUnit) Name() string { return u.name }

// Execute estimates scores from the matrix and orders the moves.
func (u *BTLRankUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	ctx, span := u.tracer.Start(ctx, "BTLRankUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeBTLRank),
			attribute.String("unit.id", u.name),
			attribute.Int("config.iterations", u.config.Iterations),
			attribute.Float64("config.convergence_threshold", u.config.ConvergenceThreshold),
		),
	)
	defer span.End()

	fail := func(err error) (domain.State, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}

	moves, err := loadMoves(state, u.name)
	if err != nil {
		return fail(err)
	}
	matrix, ok := domain.Get(state, domain.KeyComparisons)
	if !ok {
		return fail(domain.MissingKey(domain.KeyComparisons, u.name))
	}
	if matrix.Size() != len(moves) {
		return fail(fmt.Errorf("%w: matrix covers %d items, state has %d moves",
			domain.ErrMatrixMismatch, matrix.Size(), len(moves)))
	}

	scores, report, err := ranking.Estimate(ctx, matrix, u.config.options())
	if err != nil {
		return fail(err)
	}
	results := ranking.Order(moves, scores)

	span.SetAttributes(
		attribute.Int("solver.iterations", report.Iterations),
		attribute.Bool("solver.converged", report.Converged),
		attribute.Float64("solver.max_change", report.MaxChange),
	)

	return state.WithMultiple(map[string]any{
		domain.KeyRankings.Name():     results,
		domain.KeySolverReport.Name(): report,
	}), nil
}

// Validate re-checks the solver parameters.
func (u *BTLRankUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return u.config.options().Validate()
}

// NewBTLRankFromConfig creates a BTLRankUnit from a configuration map.
func NewBTLRankFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultBTLRankConfig()
	if err := decodeParams(config, &cfg); err != nil {
		return nil, err
	}
	return NewBTLRankUnit(id, cfg)
}
