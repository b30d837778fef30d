// Package category maps move types to the broad categories moves are
// ranked within.
package category

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/framerank/internal/domain"
)

// Category is a broad move family.
type Category string

// Known categories.
const (
	Jab     Category = "jab"
	Tilt    Category = "tilt"
	Smash   Category = "smash"
	Aerial  Category = "aerial"
	Special Category = "special"
	Grab    Category = "grab"
	Throw   Category = "throw"
	Ground  Category = "ground"
	Unknown Category = "unknown"
)

// MaxDistance is the largest edit distance at which a type name is still
// matched to a canonical type.
const MaxDistance = 2

// minFuzzyLen keeps very short names like "up" from snapping to "up b".
const minFuzzyLen = 4

// All returns every category except Unknown in sorted order.
func All() []Category {
	return []Category{Aerial, Grab, Ground, Jab, Smash, Special, Throw, Tilt}
}

// foldCaser is shared so every call folds case the same way.
var foldCaser = cases.Fold()

// rule matches when any of its keywords is a substring of the folded type.
type rule struct {
	keywords []string
	exclude  string
	category Category
}

// rules are evaluated in order. Aerials come first so "fair" is never read
// as a tilt, specials before smashes so "final smash" stays a special, and
// grabs exclude names mentioning a throw.
var rules = []rule{
	{keywords: []string{"nair", "neutral air"}, category: Aerial},
	{keywords: []string{"fair", "forward air"}, category: Aerial},
	{keywords: []string{"bair", "back air"}, category: Aerial},
	{keywords: []string{"uair", "up air"}, category: Aerial},
	{keywords: []string{"dair", "down air"}, category: Aerial},

	{keywords: []string{"neutral b", "neutral special"}, category: Special},
	{keywords: []string{"side b", "side special"}, category: Special},
	{keywords: []string{"up b", "up special"}, category: Special},
	{keywords: []string{"down b", "down special"}, category: Special},
	{keywords: []string{"final smash"}, category: Special},

	{keywords: []string{"grab"}, exclude: "throw", category: Grab},
	{keywords: []string{"pummel"}, category: Grab},
	{keywords: []string{"forward throw", "fthrow"}, category: Throw},
	{keywords: []string{"backward throw", "back throw", "bthrow"}, category: Throw},
	{keywords: []string{"up throw", "uthrow"}, category: Throw},
	{keywords: []string{"down throw", "dthrow"}, category: Throw},

	{keywords: []string{"jab"}, category: Jab},
	{keywords: []string{"forward tilt", "ftilt"}, category: Tilt},
	{keywords: []string{"up tilt", "utilt"}, category: Tilt},
	{keywords: []string{"down tilt", "dtilt"}, category: Tilt},
	{keywords: []string{"forward smash", "fsmash"}, category: Smash},
	{keywords: []string{"up smash", "usmash"}, category: Smash},
	{keywords: []string{"down smash", "dsmash"}, category: Smash},
	{keywords: []string{"dash attack"}, category: Ground},
}

// canonical maps every canonical type name, plus the generic section names,
// to a category. It backs the fuzzy fallback.
var canonical = map[string]Category{
	"nair": Aerial, "fair": Aerial, "bair": Aerial, "uair": Aerial, "dair": Aerial,
	"aerial": Aerial,

	"neutral b": Special, "side b": Special, "up b": Special, "down b": Special,
	"final smash": Special, "special": Special,

	"grab": Grab, "pummel": Grab,
	"forward throw": Throw, "back throw": Throw, "up throw": Throw, "down throw": Throw,
	"throw": Throw,

	"jab":          Jab,
	"forward tilt": Tilt, "up tilt": Tilt, "down tilt": Tilt, "tilt": Tilt,
	"forward smash": Smash, "up smash": Smash, "down smash": Smash, "smash": Smash,
	"dash attack": Ground, "ground attack": Ground, "ground": Ground,
}

// Classify returns the category of a specific move type such as
// "forward tilt", "ftilt" or "nair". Keyword rules are tried first, then
// the nearest canonical name within MaxDistance. Anything else is Unknown.
func Classify(moveType string) Category {
	name := strings.TrimSpace(foldCaser.String(moveType))
	if name == "" {
		return Unknown
	}
	if c, ok := canonical[name]; ok {
		return c
	}

	for _, r := range rules {
		if r.exclude != "" && strings.Contains(name, r.exclude) {
			continue
		}
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r.category
			}
		}
	}

	return nearest(name)
}

// nearest returns the category of the closest canonical name. Ties on
// distance go to the lexically smaller name so the result does not depend
// on map iteration order.
func nearest(name string) Category {
	if utf8.RuneCountInString(name) < minFuzzyLen {
		return Unknown
	}
	best, bestName, bestDist := Unknown, "", MaxDistance+1
	for candidate, c := range canonical {
		d := levenshtein.ComputeDistance(name, candidate)
		if d < bestDist || (d == bestDist && candidate < bestName) {
			best, bestName, bestDist = c, candidate, d
		}
	}
	if bestDist > MaxDistance {
		return Unknown
	}
	return best
}

// Of classifies a move by its Type, falling back to its Name when the type
// is missing or unrecognized.
func Of(m domain.Move) Category {
	if c := Classify(m.Type); c != Unknown {
		return c
	}
	return Classify(m.Name)
}
