package application

import (
	"fmt"
	"maps"

	"github.com/rs/zerolog"

	"github.com/ahrav/framerank/infrastructure/middleware"
	"github.com/ahrav/framerank/infrastructure/units"
	"github.com/ahrav/framerank/internal/ports"
)

// BuildPipeline validates cfg and constructs its pipeline. Each unit is
// wrapped in a middleware.ObservedUnit that traces it, records metrics
// (when metrics is non-nil), and logs to logger.
func BuildPipeline(
	cfg RunConfig,
	registry ports.UnitRegistry,
	metrics ports.MetricsCollector,
	logger zerolog.Logger,
) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	observers := []middleware.UnitObserver{
		middleware.NewOTelObserver(metrics),
		middleware.NewLogObserver(logger),
	}

	pipeline := NewPipeline(cfg.Name)
	for _, uc := range cfg.Pipeline {
		unit, err := registry.CreateUnit(uc.Type, uc.ID, unitParams(cfg, uc))
		if err != nil {
			return nil, err
		}
		if err := pipeline.Add(middleware.NewObservedUnit(unit, observers...)); err != nil {
			return nil, err
		}
	}

	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline validation failed: %w", err)
	}
	return pipeline, nil
}

// unitParams derives a unit's parameters from the shared solver and
// criteria sections, then overlays the unit's own parameters.
func unitParams(cfg RunConfig, uc UnitConfig) map[string]any {
	base := map[string]any{}
	switch uc.Type {
	case units.TypePairwiseCompare:
		base["criteria"] = cfg.Criteria
		base["missing"] = cfg.Solver.MissingPolicy
		base["parallelism"] = cfg.Solver.Parallelism
	case units.TypeBTLRank:
		base["iterations"] = cfg.Solver.Iterations
		base["convergence_threshold"] = cfg.Solver.ConvergenceThreshold
	case units.TypeCategoryRank:
		base["iterations"] = cfg.Solver.Iterations
		base["convergence_threshold"] = cfg.Solver.ConvergenceThreshold
		base["missing"] = cfg.Solver.MissingPolicy
		base["criteria"] = cfg.Criteria
		if len(cfg.CategoryWeights) > 0 {
			base["weights"] = cfg.CategoryWeights
		}
	}
	maps.Copy(base, uc.Parameters)
	return base
}
