// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/framerank/internal/domain"
)

// Unit represents the fundamental building block of the ranking pipeline.
// Each Unit performs a specific transformation on the ranking State, such as
// building the comparison matrix or solving for scores.
// Units should be stateless and thread-safe for concurrent execution.
type Unit interface {
	// Name returns a unique identifier for this unit.
	// The name is used for logging, metrics labels, and configuration.
	Name() string

	// Execute performs the unit's transformation on the provided State.
	// It returns a new State containing the results of the transformation.
	// The original State must not be modified.
	//
	// The context parameter allows for cancellation and deadline propagation.
	// Units should respect context cancellation and return promptly.
	//
	// Example:
	//
	//	next, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return domain.State{}, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the unit is properly configured and ready for execution.
	// It is typically called during pipeline construction.
	Validate() error
}

// UnitFactory builds a unit from its identifier and raw configuration
// parameters as they appear in a config file.
type UnitFactory func(id string, params map[string]any) (Unit, error)

// UnitRegistry resolves unit type names to factories.
type UnitRegistry interface {
	// CreateUnit builds a unit of the given type.
	CreateUnit(unitType, id string, params map[string]any) (Unit, error)

	// SupportedTypes lists the registered unit types in sorted order.
	SupportedTypes() []string
}
