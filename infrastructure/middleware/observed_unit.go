// Package middleware provides cross-cutting concerns for the ranking engine.
// It implements the middleware/wrapper pattern to keep ranking logic clean
// while adding tracing, metrics, and logging around every unit.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ports"
)

// UnitObserver provides observability hooks around unit execution.
// Implementations can add tracing, metrics, and logging without coupling
// those concerns to the units themselves.
type UnitObserver interface {
	// PreExecute is called before the unit runs. The returned context is
	// passed to the unit and to PostExecute.
	PreExecute(ctx context.Context, unit string, in domain.State) context.Context

	// PostExecute is called after the unit returns with both states, the
	// elapsed time and the unit's error.
	PostExecute(ctx context.Context, unit string, in, out domain.State, elapsed time.Duration, err error)
}

var _ ports.Unit = (*ObservedUnit)(nil)

// ObservedUnit wraps a unit and notifies observers around each execution.
// It keeps no mutable state and is safe for concurrent use.
type ObservedUnit struct {
	next      ports.Unit
	observers []UnitObserver
}

// NewObservedUnit wraps next. Nil observers are dropped.
func NewObservedUnit(next ports.Unit, observers ...UnitObserver) *ObservedUnit {
	if next == nil {
		panic("observed unit: next unit is required")
	}
	kept := make([]UnitObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			kept = append(kept, o)
		}
	}
	return &ObservedUnit{next: next, observers: kept}
}

// Name returns the wrapped unit's name so metrics and logs stay keyed by
// the configured unit ID.
func (u *ObservedUnit) Name() string { return u.next.Name() }

// Unwrap returns the wrapped unit.
func (u *ObservedUnit) Unwrap() ports.Unit { return u.next }

// Execute runs the wrapped unit. A context that is already done fails
// before the unit starts.
func (u *ObservedUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	name := u.next.Name()
	for _, o := range u.observers {
		ctx = o.PreExecute(ctx, name, state)
	}

	start := time.Now()
	out, err := u.next.Execute(ctx, state)
	elapsed := time.Since(start)

	for i := len(u.observers) - 1; i >= 0; i-- {
		u.observers[i].PostExecute(ctx, name, state, out, elapsed, err)
	}
	if err != nil {
		return state, fmt.Errorf("unit %s: %w", name, err)
	}
	return out, nil
}

// Validate checks the wrapped unit.
func (u *ObservedUnit) Validate() error {
	if u.next == nil {
		return fmt.Errorf("observed unit: next unit is required")
	}
	return u.next.Validate()
}
