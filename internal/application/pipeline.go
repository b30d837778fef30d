package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ports"
)

// Pipeline is a sequential execution container that runs units in strict
// order, where each unit's output state becomes the input of the next.
type Pipeline struct {
	// id identifies the pipeline in errors.
	id string
	// units contains the ordered list of units.
	units []ports.Unit
	// idSet tracks unit names for O(1) duplicate detection.
	idSet map[string]struct{}
	// mu provides thread-safe access to the units slice.
	mu sync.RWMutex
}

// NewPipeline creates a new empty pipeline.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:    id,
		units: make([]ports.Unit, 0),
		idSet: make(map[string]struct{}),
	}
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string { return p.id }

// Add appends a unit. It returns an error if the unit is nil or a unit
// with the same name already exists. Add is safe for concurrent use with
// Execute.
func (p *Pipeline) Add(unit ports.Unit) error {
	if unit == nil {
		return fmt.Errorf("cannot add nil unit to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	name := unit.Name()
	if _, exists := p.idSet[name]; exists {
		return fmt.Errorf("unit with ID %s already exists in pipeline", name)
	}

	p.units = append(p.units, unit)
	p.idSet[name] = struct{}{}
	return nil
}

// Units returns a copy of the ordered unit list.
func (p *Pipeline) Units() []ports.Unit {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ports.Unit, len(p.units))
	copy(result, p.units)
	return result
}

// Execute runs every unit sequentially. Cancellation is checked before
// each unit; on failure the state produced so far is returned with the
// error.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	units := p.Units()

	current := state
	for _, unit := range units {
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		default:
		}

		next, err := unit.Execute(ctx, current)
		if err != nil {
			return current, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, unit.Name(), err)
		}
		current = next
	}

	return current, nil
}

// Validate validates every unit.
func (p *Pipeline) Validate() error {
	for _, unit := range p.Units() {
		if err := unit.Validate(); err != nil {
			return fmt.Errorf("pipeline %s: unit %s: %w", p.id, unit.Name(), err)
		}
	}
	return nil
}
