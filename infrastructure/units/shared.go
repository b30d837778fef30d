// Package units provides the ranking pipeline units that implement the
// ports.Unit interface for the framerank engine.
package units

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/framerank/internal/domain"
)

// Registered unit type names.
const (
	TypePairwiseCompare  = "pairwise_compare"
	TypeBTLRank          = "btl_rank"
	TypeCategoryRank     = "category_rank"
	TypeCharacterSummary = "character_summary"
)

// MaxMoves bounds the input size. The comparison matrix is quadratic in the
// number of moves.
const MaxMoves = 5000

// Common errors returned by ranking units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrTooManyMoves is returned when the input exceeds MaxMoves.
	ErrTooManyMoves = errors.New("too many moves")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// decodeParams overlays raw config parameters onto cfg, which must already
// hold the unit's defaults. Round-tripping through YAML lets config files
// and API payloads share the unit's yaml tags.
func decodeParams(params map[string]any, cfg any) error {
	if len(params) == 0 {
		return nil
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// loadMoves reads and checks the moves a unit operates on.
func loadMoves(state domain.State, unit string) ([]domain.Move, error) {
	moves, ok := domain.Get(state, domain.KeyMoves)
	if !ok {
		return nil, domain.MissingKey(domain.KeyMoves, unit)
	}
	if len(moves) > MaxMoves {
		return nil, fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyMoves, len(moves), MaxMoves)
	}
	if err := domain.ValidateMoves(moves); err != nil {
		return nil, err
	}
	return moves, nil
}
