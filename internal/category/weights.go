package category

import (
	"maps"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ranking"
)

func criterion(name string, weight float64, better ranking.Better, attr domain.Attribute) ranking.Criterion {
	return ranking.Criterion{Name: name, Weight: weight, Better: better, Attribute: attr}
}

// DefaultWeights returns the per-category criteria overrides. Categories
// absent from the map are compared with ranking.DefaultCriteria.
func DefaultWeights() map[Category][]ranking.Criterion {
	lower, higher := ranking.BetterLower, ranking.BetterHigher
	return map[Category][]ranking.Criterion{
		Jab: {
			criterion("speed", 0.40, lower, domain.AttrStartupFrames),
			criterion("safety", 0.30, higher, domain.AttrOnShield),
			criterion("endlag", 0.20, lower, domain.AttrEndLag),
			criterion("damage", 0.10, higher, domain.AttrDamage),
		},
		Tilt: {
			criterion("speed", 0.25, lower, domain.AttrStartupFrames),
			criterion("safety", 0.25, higher, domain.AttrOnShield),
			criterion("damage", 0.20, higher, domain.AttrDamage),
			criterion("endlag", 0.15, lower, domain.AttrEndLag),
			criterion("shieldstun", 0.15, higher, domain.AttrShieldStun),
		},
		Smash: {
			criterion("damage", 0.65, higher, domain.AttrDamage),
			criterion("speed", 0.15, lower, domain.AttrStartupFrames),
			criterion("safety", 0.10, higher, domain.AttrOnShield),
			criterion("endlag", 0.10, lower, domain.AttrEndLag),
		},
		Aerial: {
			criterion("speed", 0.30, lower, domain.AttrStartupFrames),
			criterion("landing", 0.25, lower, domain.AttrLandingLag),
			criterion("safety", 0.20, higher, domain.AttrOnShield),
			criterion("damage", 0.15, higher, domain.AttrDamage),
			criterion("endlag", 0.10, lower, domain.AttrEndLag),
		},
		Grab: {
			criterion("speed", 0.60, lower, domain.AttrStartupFrames),
			criterion("endlag", 0.40, lower, domain.AttrEndLag),
		},
		Throw: {
			criterion("damage", 0.60, higher, domain.AttrDamage),
			criterion("endlag", 0.40, lower, domain.AttrEndLag),
		},
	}
}

// Weights resolves criteria per category, falling back to a base set.
type Weights struct {
	base      []ranking.Criterion
	overrides map[Category][]ranking.Criterion
}

// NewWeights validates every criteria set and returns a resolver. A nil
// base selects ranking.DefaultCriteria.
func NewWeights(base []ranking.Criterion, overrides map[Category][]ranking.Criterion) (*Weights, error) {
	if base == nil {
		base = ranking.DefaultCriteria()
	}
	if err := ranking.ValidateCriteria(base); err != nil {
		return nil, err
	}
	for c, criteria := range overrides {
		if err := ranking.ValidateCriteria(criteria); err != nil {
			return nil, domain.Invalid("category_weights", err, "category %q: %v", c, err)
		}
	}
	return &Weights{base: base, overrides: maps.Clone(overrides)}, nil
}

// For returns the criteria used to compare moves within c.
func (w *Weights) For(c Category) []ranking.Criterion {
	if criteria, ok := w.overrides[c]; ok && len(criteria) > 0 {
		return criteria
	}
	return w.base
}
