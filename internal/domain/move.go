package domain

import "fmt"

// Attribute names a numeric frame-data field of a Move that a comparison
// criterion can read.
type Attribute string

// Supported move attributes.
const (
	AttrStartupFrames Attribute = "startup_frames"
	AttrActiveFrames  Attribute = "active_frames"
	AttrEndLag        Attribute = "end_lag"
	AttrOnShield      Attribute = "on_shield"
	AttrShieldStun    Attribute = "shield_stun"
	AttrTotalFrames   Attribute = "total_frames"
	AttrLandingLag    Attribute = "landing_lag"
	AttrDamage        Attribute = "damage"
	AttrOverallRating Attribute = "overall_rating"
)

// Attributes lists every supported attribute in declaration order.
func Attributes() []Attribute {
	return []Attribute{
		AttrStartupFrames,
		AttrActiveFrames,
		AttrEndLag,
		AttrOnShield,
		AttrShieldStun,
		AttrTotalFrames,
		AttrLandingLag,
		AttrDamage,
		AttrOverallRating,
	}
}

// Valid reports whether a is one of the supported attributes.
func (a Attribute) Valid() bool {
	for _, known := range Attributes() {
		if a == known {
			return true
		}
	}
	return false
}

// Rating carries an externally assigned quality rating for a move.
type Rating struct {
	// OverallRating is a 0-100 score produced upstream of this system.
	OverallRating float64 `json:"overall_rating" yaml:"overall_rating"`

	// Tier is the letter tier assigned alongside the rating.
	Tier string `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// Move is a single attack or action of a character together with its frame
// data. Numeric fields are optional: a nil pointer means the value was not
// present in the source data, which is distinct from a recorded zero.
type Move struct {
	// ID uniquely identifies the move, typically "<character>-<slug>".
	ID string `json:"id" yaml:"id"`

	// Name is the display name of the move.
	Name string `json:"name" yaml:"name"`

	// Character is the slug of the character that owns the move.
	Character string `json:"character,omitempty" yaml:"character,omitempty"`

	// Type is the specific move type such as "forward tilt" or "nair".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	StartupFrames *float64 `json:"startupFrames,omitempty" yaml:"startup_frames,omitempty"`
	ActiveFrames  *float64 `json:"activeFrames,omitempty" yaml:"active_frames,omitempty"`
	EndLag        *float64 `json:"endLag,omitempty" yaml:"end_lag,omitempty"`
	OnShield      *float64 `json:"onShieldLag,omitempty" yaml:"on_shield,omitempty"`
	ShieldStun    *float64 `json:"shieldStun,omitempty" yaml:"shield_stun,omitempty"`
	TotalFrames   *float64 `json:"totalFrames,omitempty" yaml:"total_frames,omitempty"`
	LandingLag    *float64 `json:"landingLag,omitempty" yaml:"landing_lag,omitempty"`
	Damage        *float64 `json:"damage,omitempty" yaml:"damage,omitempty"`

	// Rating is the optional upstream rating of the move.
	Rating *Rating `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// Attr returns the value of attribute a and whether it is present.
func (m Move) Attr(a Attribute) (float64, bool) {
	var p *float64
	switch a {
	case AttrStartupFrames:
		p = m.StartupFrames
	case AttrActiveFrames:
		p = m.ActiveFrames
	case AttrEndLag:
		p = m.EndLag
	case AttrOnShield:
		p = m.OnShield
	case AttrShieldStun:
		p = m.ShieldStun
	case AttrTotalFrames:
		p = m.TotalFrames
	case AttrLandingLag:
		p = m.LandingLag
	case AttrDamage:
		p = m.Damage
	case AttrOverallRating:
		if m.Rating == nil {
			return 0, false
		}
		return m.Rating.OverallRating, true
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Label returns the name used for the move in reports, falling back to ID.
func (m Move) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// ValidateMoves checks that every move has an ID and that IDs are unique.
func ValidateMoves(moves []Move) error {
	verr := NewValidationError("moves")
	seen := make(map[string]int, len(moves))
	for i, m := range moves {
		if m.ID == "" {
			verr.AddError(fmt.Sprintf("move at index %d has no id", i))
			continue
		}
		if prev, ok := seen[m.ID]; ok {
			verr.AddError(fmt.Sprintf("duplicate move id %q at indexes %d and %d", m.ID, prev, i))
			continue
		}
		seen[m.ID] = i
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Float returns a pointer to v. It keeps move literals readable.
func Float(v float64) *float64 { return &v }
