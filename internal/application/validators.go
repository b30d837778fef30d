package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/framerank/infrastructure/units"
	"github.com/ahrav/framerank/internal/domain"
)

// validate is the package-level validator for configuration structs.
var validate = validator.New()

// requires lists, per unit type, the unit types whose output it reads.
// A pipeline must run at least one unit of each required type first.
var requires = map[string][]string{
	units.TypePairwiseCompare:  nil,
	units.TypeBTLRank:          {units.TypePairwiseCompare},
	units.TypeCategoryRank:     nil,
	units.TypeCharacterSummary: {units.TypeBTLRank},
}

// ValidatePipeline checks that unit IDs are unique, every type is known,
// and each unit runs after the units producing its inputs.
func ValidatePipeline(pipeline []UnitConfig) error {
	verr := domain.NewValidationError("pipeline")
	verr.Cause = domain.ErrInvalidConfiguration

	if len(pipeline) == 0 {
		verr.AddError("at least one unit is required")
		return verr
	}

	ids := make(map[string]int, len(pipeline))
	seen := make(map[string]bool, len(requires))
	for i, u := range pipeline {
		if prev, dup := ids[u.ID]; dup {
			verr.AddError(fmt.Sprintf("duplicate unit id %q at positions %d and %d", u.ID, prev, i))
		}
		ids[u.ID] = i

		deps, known := requires[u.Type]
		if !known {
			verr.AddError(fmt.Sprintf("unit %q: unknown type %q", u.ID, u.Type))
			continue
		}
		for _, dep := range deps {
			if !seen[dep] {
				verr.AddError(fmt.Sprintf("unit %q (%s) needs a %s unit before it", u.ID, u.Type, dep))
			}
		}
		seen[u.Type] = true
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
