package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ahrav/framerank/internal/domain"
)

// RunResult is everything a ranking run produced. Fields whose unit was
// not configured are left empty.
type RunResult struct {
	RunID      string                    `json:"run_id"`
	Rankings   []domain.RankedMove       `json:"rankings"`
	Categories []domain.CategoryRanking  `json:"categories"`
	Summaries  []domain.CharacterSummary `json:"summaries"`
	Report     domain.SolverReport       `json:"report"`
	Matrix     domain.Matrix             `json:"-"`
	Elapsed    time.Duration             `json:"-"`
}

// Runner executes a pipeline over move sets. It is safe for concurrent use.
type Runner struct {
	pipeline   *Pipeline
	configName string
	logger     zerolog.Logger
	newID      func() string
	now        func() time.Time
}

// NewRunner creates a runner for pipeline.
func NewRunner(pipeline *Pipeline, configName string, logger zerolog.Logger) *Runner {
	return &Runner{
		pipeline:   pipeline,
		configName: configName,
		logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Run seeds a state with moves and a fresh run ID, executes the pipeline,
// and collects the outputs. moves is not modified.
func (r *Runner) Run(ctx context.Context, moves []domain.Move) (*RunResult, error) {
	rc := domain.RunContext{
		RunID:      r.newID(),
		ConfigName: r.configName,
		StartedAt:  r.now(),
	}
	if moves == nil {
		moves = []domain.Move{}
	}
	state := domain.With(domain.NewState(), domain.KeyMoves, moves).WithRunContext(rc)

	logger := r.logger.With().Str("run_id", rc.RunID).Logger()
	logger.Debug().Int("moves", len(moves)).Msg("run started")

	out, err := r.pipeline.Execute(ctx, state)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return nil, err
	}

	result := collect(out, rc.RunID)
	result.Elapsed = time.Since(rc.StartedAt)
	logger.Info().
		Int("moves", len(moves)).
		Int("iterations", result.Report.Iterations).
		Bool("converged", result.Report.Converged).
		Dur("elapsed", result.Elapsed).
		Msg("run finished")
	return result, nil
}

func collect(state domain.State, runID string) *RunResult {
	result := &RunResult{RunID: runID}
	result.Rankings, _ = domain.Get(state, domain.KeyRankings)
	result.Categories, _ = domain.Get(state, domain.KeyCategoryRankings)
	result.Summaries, _ = domain.Get(state, domain.KeySummaries)
	result.Report, _ = domain.Get(state, domain.KeySolverReport)
	result.Matrix, _ = domain.Get(state, domain.KeyComparisons)
	return result
}
