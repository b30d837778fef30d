package ranking

import (
	"fmt"
	"math"

	"github.com/ahrav/framerank/internal/domain"
)

// Better states which end of an attribute's scale wins a criterion.
type Better string

// Supported directions.
const (
	BetterLower  Better = "lower"
	BetterHigher Better = "higher"
)

// MissingPolicy decides how a criterion is scored when either move lacks
// the criterion's attribute.
type MissingPolicy string

// Supported missing-attribute policies.
const (
	// MissingSkip drops the criterion for the pair; neither move gets mass.
	MissingSkip MissingPolicy = "skip"

	// MissingTie splits the criterion's weight evenly.
	MissingTie MissingPolicy = "tie"

	// MissingZero treats an absent attribute as a recorded zero.
	MissingZero MissingPolicy = "zero"
)

// Criterion is one weighted attribute comparison.
type Criterion struct {
	// Name labels the criterion in reports and configuration.
	Name string `yaml:"name" json:"name" validate:"required,min=1,max=64"`

	// Weight is the win mass awarded to the favored move.
	Weight float64 `yaml:"weight" json:"weight" validate:"gte=0"`

	// Better is the favorable direction of the attribute's scale.
	Better Better `yaml:"better" json:"better" validate:"required,oneof=lower higher"`

	// Attribute is the move field the criterion reads.
	Attribute domain.Attribute `yaml:"attribute" json:"attribute" validate:"required"`
}

// DefaultCriteria returns the standard five-criterion weight set used to
// compare moves across all categories.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Name: "speed", Weight: 0.30, Better: BetterLower, Attribute: domain.AttrStartupFrames},
		{Name: "safety", Weight: 0.25, Better: BetterHigher, Attribute: domain.AttrOnShield},
		{Name: "damage", Weight: 0.20, Better: BetterHigher, Attribute: domain.AttrDamage},
		{Name: "endlag", Weight: 0.15, Better: BetterLower, Attribute: domain.AttrEndLag},
		{Name: "rating", Weight: 0.10, Better: BetterHigher, Attribute: domain.AttrOverallRating},
	}
}

// Contest is a single criterion evaluated for a pair: the weight at stake,
// the favorable direction, and both values.
type Contest struct {
	Weight float64
	Better Better
	A, B   float64
}

// Tally accumulates win mass over contests. The favored side takes the full
// weight and an exact tie splits it. The result is from A's perspective.
func Tally(contests []Contest) domain.Comparison {
	var massA, massB float64
	for _, c := range contests {
		switch winner(c) {
		case 1:
			massA += c.Weight
		case 2:
			massB += c.Weight
		default:
			massA += c.Weight / 2
			massB += c.Weight / 2
		}
	}
	return domain.Comparison{Wins: massA, Total: massA + massB}
}

// winner returns 1 when A is favored, 2 when B is favored, 0 on a tie.
func winner(c Contest) int {
	switch {
	case c.A == c.B:
		return 0
	case c.Better == BetterLower:
		if c.A < c.B {
			return 1
		}
		return 2
	default:
		if c.A > c.B {
			return 1
		}
		return 2
	}
}

// WeightedComparator compares moves by an ordered list of criteria.
// It is immutable after construction and safe for concurrent use.
type WeightedComparator struct {
	criteria []Criterion
	missing  MissingPolicy
}

// NewWeightedComparator validates criteria and returns a comparator. An
// empty missing policy selects MissingSkip.
func NewWeightedComparator(criteria []Criterion, missing MissingPolicy) (*WeightedComparator, error) {
	if missing == "" {
		missing = MissingSkip
	}
	if err := ValidateCriteria(criteria); err != nil {
		return nil, err
	}
	switch missing {
	case MissingSkip, MissingTie, MissingZero:
	default:
		return nil, domain.Invalid("comparator", domain.ErrInvalidConfiguration,
			"unknown missing policy %q", missing)
	}

	return &WeightedComparator{
		criteria: append([]Criterion(nil), criteria...),
		missing:  missing,
	}, nil
}

// ValidateCriteria checks names, weights, directions and attributes.
func ValidateCriteria(criteria []Criterion) error {
	verr := criteriaError()
	if len(criteria) == 0 {
		verr.AddError("at least one criterion is required")
	}
	seen := make(map[string]struct{}, len(criteria))
	for i, c := range criteria {
		if err := validate.Struct(c); err != nil {
			verr.AddError(fmt.Sprintf("criterion %d: %v", i, err))
			continue
		}
		if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			verr.AddError(fmt.Sprintf("criterion %q: weight must be finite", c.Name))
		}
		if !c.Attribute.Valid() {
			verr.AddError(fmt.Sprintf("criterion %q: unknown attribute %q", c.Name, c.Attribute))
		}
		if _, dup := seen[c.Name]; dup {
			verr.AddError(fmt.Sprintf("duplicate criterion %q", c.Name))
		}
		seen[c.Name] = struct{}{}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func criteriaError() *domain.ValidationError {
	verr := domain.NewValidationError("criteria")
	verr.Cause = domain.ErrInvalidConfiguration
	return verr
}

// Criteria returns a copy of the comparator's criteria.
func (c *WeightedComparator) Criteria() []Criterion {
	return append([]Criterion(nil), c.criteria...)
}

// Compare scores a against b. Wins is a's accumulated mass and Total the
// combined mass of both moves.
func (c *WeightedComparator) Compare(a, b domain.Move) domain.Comparison {
	contests := make([]Contest, 0, len(c.criteria))
	for _, cr := range c.criteria {
		va, okA := a.Attr(cr.Attribute)
		vb, okB := b.Attr(cr.Attribute)
		if !okA || !okB {
			switch c.missing {
			case MissingSkip:
				continue
			case MissingTie:
				va, vb = 0, 0
			case MissingZero:
				// Absent values already read as zero.
			}
		}
		contests = append(contests, Contest{Weight: cr.Weight, Better: cr.Better, A: va, B: vb})
	}
	return Tally(contests)
}
