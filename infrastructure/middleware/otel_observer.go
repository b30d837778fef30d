package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ports"
)

var _ UnitObserver = (*OTelObserver)(nil)

// Metric names emitted by OTelObserver.
const (
	MetricUnitExecution    = "unit_execution"
	MetricUnitOutcomes     = "unit_executions_total"
	MetricSolverIterations = "solver_iterations"
	MetricSolverConverged  = "solver_converged"
	MetricRankedItems      = "ranked_items"
)

// OTelObserver traces each unit with an OpenTelemetry span and forwards
// latency, outcome, and solver figures to a metrics collector.
type OTelObserver struct {
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewOTelObserver creates an observer. metrics may be nil.
func NewOTelObserver(metrics ports.MetricsCollector) *OTelObserver {
	return &OTelObserver{
		metrics: metrics,
		tracer:  otel.Tracer("framerank-pipeline"),
	}
}

// PreExecute starts the unit span.
func (o *OTelObserver) PreExecute(ctx context.Context, unit string, in domain.State) context.Context {
	attrs := []attribute.KeyValue{attribute.String("unit.id", unit)}
	if rc, ok := in.RunContext(); ok {
		attrs = append(attrs, attribute.String("run.id", rc.RunID))
	}
	ctx, _ = o.tracer.Start(ctx, "Unit.Execute", trace.WithAttributes(attrs...))
	return ctx
}

// PostExecute finishes the span and records metrics. Solver figures are
// recorded only by the unit that produced the solver report.
func (o *OTelObserver) PostExecute(
	ctx context.Context,
	unit string,
	in, out domain.State,
	elapsed time.Duration,
	err error,
) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	labels := map[string]string{"unit": unit}
	if o.metrics != nil {
		o.metrics.RecordLatency(MetricUnitExecution, elapsed, labels)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.count(unit, "error")
		return
	}
	o.count(unit, "success")

	if !domain.Has(in, domain.KeySolverReport) {
		if report, ok := domain.Get(out, domain.KeySolverReport); ok {
			span.AddEvent("solver.finished", trace.WithAttributes(
				attribute.Int("iterations", report.Iterations),
				attribute.Bool("converged", report.Converged),
				attribute.Float64("max_change", report.MaxChange),
			))
			if o.metrics != nil {
				o.metrics.RecordHistogram(MetricSolverIterations, float64(report.Iterations), labels)
				converged := 0.0
				if report.Converged {
					converged = 1
				}
				o.metrics.RecordGauge(MetricSolverConverged, converged, labels)
			}
		}
	}
	if n, ok := domain.Len(out, domain.KeyMoves); ok {
		span.SetAttributes(attribute.Int("rank.items", n))
		if o.metrics != nil {
			o.metrics.RecordGauge(MetricRankedItems, float64(n), labels)
		}
	}
	span.SetStatus(codes.Ok, "")
}

func (o *OTelObserver) count(unit, status string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordCounter(MetricUnitOutcomes, 1, map[string]string{"unit": unit, "status": status})
}
