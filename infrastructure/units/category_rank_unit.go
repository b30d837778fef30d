package units

import (
	"context"
	"fmt"
	"math"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/framerank/internal/category"
	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ports"
	"github.com/ahrav/framerank/internal/ranking"
)

var _ ports.Unit = (*CategoryRankUnit)(nil)

// CategoryRankUnit ranks moves against other moves of the same category,
// such as smashes against smashes, each category with its own criteria
// weights. Categories are solved independently in sorted name order.
//
// Reads domain.KeyMoves and writes domain.KeyCategoryRankings.
type CategoryRankUnit struct {
	name        string
	config      CategoryRankConfig
	comparators map[category.Category]*ranking.WeightedComparator
	fallback    *ranking.WeightedComparator
	tracer      trace.Tracer
}

// CategoryRankConfig holds the solver parameters and per-category weights.
type CategoryRankConfig struct {
	Iterations           int     `yaml:"iterations" json:"iterations" validate:"min=1"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold" json:"convergence_threshold" validate:"gt=0"`

	// Missing is the policy for criteria whose attribute is absent.
	Missing ranking.MissingPolicy `yaml:"missing" json:"missing" validate:"omitempty,oneof=skip tie zero"`

	// Criteria is used for categories without an override.
	Criteria []ranking.Criterion `yaml:"criteria" json:"criteria"`

	// Weights overrides the criteria for individual categories. Entries in a
	// config file are merged over the built-in overrides.
	Weights map[category.Category][]ranking.Criterion `yaml:"weights" json:"weights"`
}

// DefaultCategoryRankConfig returns the default solver parameters with the
// built-in category weights.
func DefaultCategoryRankConfig() CategoryRankConfig {
	return CategoryRankConfig{
		Iterations:           ranking.DefaultIterations,
		ConvergenceThreshold: ranking.DefaultConvergenceThreshold,
		Missing:              ranking.MissingSkip,
		Criteria:             ranking.DefaultCriteria(),
		Weights:              category.DefaultWeights(),
	}
}

func (c CategoryRankConfig) options() ranking.Options {
	return ranking.Options{Iterations: c.Iterations, ConvergenceThreshold: c.ConvergenceThreshold}
}

// NewCategoryRankUnit validates config and prebuilds one comparator per
// overridden category.
func NewCategoryRankUnit(name string, config CategoryRankConfig) (*CategoryRankUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if len(config.Criteria) == 0 {
		config.Criteria = ranking.DefaultCriteria()
	}
	if err := config.options().Validate(); err != nil {
		return nil, err
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	weights, err := category.NewWeights(config.Criteria, config.Weights)
	if err != nil {
		return nil, err
	}
	fallback, err := ranking.NewWeightedComparator(config.Criteria, config.Missing)
	if err != nil {
		return nil, err
	}
	comparators := make(map[category.Category]*ranking.WeightedComparator, len(config.Weights))
	for c := range config.Weights {
		cmp, err := ranking.NewWeightedComparator(weights.For(c), config.Missing)
		if err != nil {
			return nil, err
		}
		comparators[c] = cmp
	}

	return &CategoryRankUnit{
		name:        name,
		config:      config,
		comparators: comparators,
		fallback:    fallback,
		tracer:      otel.Tracer("category-rank-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *CategoryRankUnit) Name() string { return u.name }

// Execute groups moves by category and ranks each group.
func (u *CategoryRankUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	ctx, span := u.tracer.Start(ctx, "CategoryRankUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeCategoryRank),
			attribute.String("unit.id", u.name),
		),
	)
	defer span.End()

	moves, err := loadMoves(state, u.name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}

	groups := Group(moves)
	keys := make([]category.Category, 0, len(groups))
	for c := range groups {
		keys = append(keys, c)
	}
	slices.Sort(keys)

	out := make([]domain.CategoryRanking, 0, len(moves))
	for _, c := range keys {
		group := groups[c]
		results, _, err := ranking.Rank(ctx, group, u.comparatorFor(c).Compare, u.config.options())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return state, fmt.Errorf("rank category %s: %w", c, err)
		}
		for _, r := range results {
			pct := domain.Percentile(r.Rank, len(group))
			out = append(out, domain.CategoryRanking{
				MoveID:     r.Item.ID,
				Category:   string(c),
				Score:      r.Score,
				Rank:       r.Rank,
				Total:      len(group),
				Percentile: math.Round(pct*10) / 10,
				Tier:       domain.TierFor(pct),
			})
		}
	}

	span.SetAttributes(
		attribute.Int("rank.items", len(moves)),
		attribute.Int("rank.categories", len(keys)),
	)
	return domain.With(state, domain.KeyCategoryRankings, out), nil
}

func (u *CategoryRankUnit) comparatorFor(c category.Category) *ranking.WeightedComparator {
	if cmp, ok := u.comparators[c]; ok {
		return cmp
	}
	return u.fallback
}

// Group partitions moves by category, keeping input order within a group.
func Group(moves []domain.Move) map[category.Category][]domain.Move {
	groups := make(map[category.Category][]domain.Move)
	for _, m := range moves {
		c := category.Of(m)
		groups[c] = append(groups[c], m)
	}
	return groups
}

// Validate re-checks the configuration.
func (u *CategoryRankUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return u.config.options().Validate()
}

// NewCategoryRankFromConfig creates a CategoryRankUnit from a configuration map.
func NewCategoryRankFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultCategoryRankConfig()
	if err := decodeParams(config, &cfg); err != nil {
		return nil, err
	}
	return NewCategoryRankUnit(id, cfg)
}
