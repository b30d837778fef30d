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

var _ ports.Unit = (*PairwiseCompareUnit)(nil)

// PairwiseCompareUnit builds the pairwise comparison matrix for the moves in
// state using a weighted criteria comparator. The matrix is what the BTL
// solver consumes, so this unit always runs before btl_rank.
//
// The unit is stateless and thread-safe for concurrent execution.
type PairwiseCompareUnit struct {
	name       string
	config     PairwiseCompareConfig
	comparator *ranking.WeightedComparator
	tracer     trace.Tracer
}

// PairwiseCompareConfig defines the criteria and matrix build settings.
type PairwiseCompareConfig struct {
	// Criteria are the weighted attribute comparisons. Empty selects
	// ranking.DefaultCriteria.
	Criteria []ranking.Criterion `yaml:"criteria" json:"criteria"`

	// Missing is the policy for criteria whose attribute is absent on either
	// move.
	Missing ranking.MissingPolicy `yaml:"missing" json:"missing" validate:"omitempty,oneof=skip tie zero"`

	// Parallelism is the number of goroutines building matrix rows.
	Parallelism int `yaml:"parallelism" json:"parallelism" validate:"min=0,max=256"`
}

// DefaultPairwiseCompareConfig returns the default criteria with the skip
// policy and a sequential build.
func DefaultPairwiseCompareConfig() PairwiseCompareConfig {
	return PairwiseCompareConfig{
		Criteria: ranking.DefaultCriteria(),
		Missing:  ranking.MissingSkip,
	}
}

// NewPairwiseCompareUnit validates config and builds the comparator.
func NewPairwiseCompareUnit(name string, config PairwiseCompareConfig) (*PairwiseCompareUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if len(config.Criteria) == 0 {
		config.Criteria = ranking.DefaultCriteria()
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cmp, err := ranking.NewWeightedComparator(config.Criteria, config.Missing)
	if err != nil {
		return nil, err
	}

	return &PairwiseCompareUnit{
		name:       name,
		config:     config,
		comparator: cmp,
		tracer:     otel.Tracer("pairwise-compare-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *PairwiseCompareUnit) Name() string { return u.name }

// Execute reads domain.KeyMoves and writes domain.KeyComparisons.
func (u *PairwiseCompareUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	ctx, span := u.tracer.Start(ctx, "PairwiseCompareUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypePairwiseCompare),
			attribute.String("unit.id", u.name),
			attribute.Int("config.criteria", len(u.config.Criteria)),
			attribute.String("config.missing", string(u.config.Missing)),
		),
	)
	defer span.End()

	moves, err := loadMoves(state, u.name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}

	matrix, err := ranking.BuildMatrix(ctx, moves, u.comparator.Compare, u.config.Parallelism)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, fmt.Errorf("build comparison matrix: %w", err)
	}

	span.SetAttributes(attribute.Int("rank.items", len(moves)))
	return domain.With(state, domain.KeyComparisons, matrix), nil
}

// Validate re-checks the configuration.
func (u *PairwiseCompareUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return ranking.ValidateCriteria(u.config.Criteria)
}

// NewPairwiseCompareFromConfig creates a PairwiseCompareUnit from a
// configuration map. This is the boundary adapter for YAML/JSON configuration.
func NewPairwiseCompareFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultPairwiseCompareConfig()
	if err := decodeParams(config, &cfg); err != nil {
		return nil, err
	}
	return NewPairwiseCompareUnit(id, cfg)
}
