package application

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ahrav/framerank/infrastructure/units"
	"github.com/ahrav/framerank/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// DefaultUnitRegistry implements the UnitRegistry interface providing
// a factory for creating ranking units based on type and configuration.
// It supports dynamic registration of additional unit factories.
type DefaultUnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultUnitRegistry creates a registry with the built-in unit types
// pre-registered.
func NewDefaultUnitRegistry() *DefaultUnitRegistry {
	return &DefaultUnitRegistry{
		factories: map[string]ports.UnitFactory{
			units.TypePairwiseCompare:  units.NewPairwiseCompareFromConfig,
			units.TypeBTLRank:          units.NewBTLRankFromConfig,
			units.TypeCategoryRank:     units.NewCategoryRankFromConfig,
			units.TypeCharacterSummary: units.NewCharacterSummaryFromConfig,
		},
	}
}

// CreateUnit creates a new unit instance based on the provided type,
// identifier, and configuration.
func (r *DefaultUnitRegistry) CreateUnit(
	unitType string,
	id string,
	params map[string]any,
) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ports.ErrUnknownUnitType, unitType)
	}

	if id == "" {
		return nil, units.ErrEmptyUnitName
	}

	if params == nil {
		params = make(map[string]any)
	}

	unit, err := factory(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}

	return unit, nil
}

// RegisterUnitFactory registers a new factory function for a specific unit
// type, replacing any existing registration.
func (r *DefaultUnitRegistry) RegisterUnitFactory(
	unitType string,
	factory ports.UnitFactory,
) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[unitType] = factory
	return nil
}

// SupportedTypes returns all registered unit types in sorted order.
func (r *DefaultUnitRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.factories))
}
