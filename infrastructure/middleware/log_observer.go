package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahrav/framerank/internal/domain"
)

var _ UnitObserver = (*LogObserver)(nil)

// LogObserver writes one structured line per unit execution.
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver creates an observer writing to logger.
func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// PreExecute logs the unit start at debug level.
func (o *LogObserver) PreExecute(ctx context.Context, unit string, in domain.State) context.Context {
	o.event(o.logger.Debug(), unit, in).Msg("unit started")
	return ctx
}

// PostExecute logs success at debug level and failure at error level.
func (o *LogObserver) PostExecute(
	ctx context.Context,
	unit string,
	in, out domain.State,
	elapsed time.Duration,
	err error,
) {
	if err != nil {
		o.event(o.logger.Error(), unit, in).Err(err).Dur("elapsed", elapsed).Msg("unit failed")
		return
	}
	ev := o.event(o.logger.Debug(), unit, in).Dur("elapsed", elapsed)
	if !domain.Has(in, domain.KeySolverReport) {
		if report, ok := domain.Get(out, domain.KeySolverReport); ok {
			ev = ev.Int("iterations", report.Iterations).Bool("converged", report.Converged)
		}
	}
	ev.Msg("unit finished")
}

func (o *LogObserver) event(ev *zerolog.Event, unit string, state domain.State) *zerolog.Event {
	ev = ev.Str("unit", unit)
	if rc, ok := state.RunContext(); ok {
		ev = ev.Str("run_id", rc.RunID)
	}
	return ev
}
