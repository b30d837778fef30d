package units

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/framerank/internal/category"
	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ports"
)

var _ ports.Unit = (*CharacterSummaryUnit)(nil)

// UnknownCharacter labels moves that carry no character.
const UnknownCharacter = "unknown"

// CharacterSummaryUnit aggregates the overall ranking per character.
//
// Reads domain.KeyRankings and, when present, domain.KeyCategoryRankings.
// Writes domain.KeySummaries sorted by character.
type CharacterSummaryUnit struct {
	name   string
	config CharacterSummaryConfig
	tracer trace.Tracer
}

// CharacterSummaryConfig controls which fields are filled in.
type CharacterSummaryConfig struct {
	// IncludeBest fills BestByCategory, TierCounts and highlight tiers from
	// the category rankings.
	IncludeBest bool `yaml:"include_best" json:"include_best"`
}

// DefaultCharacterSummaryConfig enables best-move lookup.
func DefaultCharacterSummaryConfig() CharacterSummaryConfig {
	return CharacterSummaryConfig{IncludeBest: true}
}

// NewCharacterSummaryUnit returns the unit.
func NewCharacterSummaryUnit(name string, config CharacterSummaryConfig) (*CharacterSummaryUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &CharacterSummaryUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("character-summary-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *CharacterSummaryUnit) Name() string { return u.name }

// Execute builds one summary per character.
func (u *CharacterSummaryUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "CharacterSummaryUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeCharacterSummary),
			attribute.String("unit.id", u.name),
		),
	)
	defer span.End()

	rankings, ok := domain.Get(state, domain.KeyRankings)
	if !ok {
		err := domain.MissingKey(domain.KeyRankings, u.name)
		span.RecordError(err)
		return state, err
	}
	var byMove map[string]domain.CategoryRanking
	if u.config.IncludeBest {
		if cats, ok := domain.Get(state, domain.KeyCategoryRankings); ok {
			byMove = make(map[string]domain.CategoryRanking, len(cats))
			for _, cr := range cats {
				byMove[cr.MoveID] = cr
			}
		}
	}

	summaries := Summarize(rankings, byMove)
	span.SetAttributes(attribute.Int("summary.characters", len(summaries)))
	return domain.With(state, domain.KeySummaries, summaries), nil
}

// Summarize groups ranked moves by character. byMove may be nil, in which
// case BestByCategory and TierCounts are left empty. The best move of a
// category is the one with the lowest category rank, then the higher score,
// then the smaller ID. Best and Worst follow the overall ranking order, so
// score ties resolve to the earlier ranked move for Best and the later one
// for Worst.
func Summarize(rankings []domain.RankedMove, byMove map[string]domain.CategoryRanking) []domain.CharacterSummary {
	type acc struct {
		summary domain.CharacterSummary
		total   float64
		best    map[string]domain.CategoryRanking
		worst   domain.RankedMove
	}
	accs := make(map[string]*acc)

	for _, r := range rankings {
		char := r.Item.Character
		if char == "" {
			char = UnknownCharacter
		}
		a, ok := accs[char]
		if !ok {
			a = &acc{summary: domain.CharacterSummary{
				Character:      char,
				CategoryCounts: make(map[string]int),
			}}
			accs[char] = a
			a.summary.Best = highlight(r, byMove)
		}
		a.summary.MoveCount++
		a.total += r.Score
		a.worst = r

		cat := string(category.Of(r.Item))
		if cr, ok := byMove[r.Item.ID]; ok {
			cat = cr.Category
			if a.best == nil {
				a.best = make(map[string]domain.CategoryRanking)
				a.summary.TierCounts = make(map[domain.Tier]int, len(domain.Tiers()))
				for _, t := range domain.Tiers() {
					a.summary.TierCounts[t] = 0
				}
			}
			if cur, seen := a.best[cat]; !seen || better(cr, cur) {
				a.best[cat] = cr
			}
			if cr.Tier != "" {
				a.summary.TierCounts[cr.Tier]++
			}
		}
		a.summary.CategoryCounts[cat]++
	}

	chars := make([]string, 0, len(accs))
	for c := range accs {
		chars = append(chars, c)
	}
	slices.Sort(chars)

	out := make([]domain.CharacterSummary, 0, len(chars))
	for _, c := range chars {
		a := accs[c]
		a.summary.MeanScore = a.total / float64(a.summary.MoveCount)
		a.summary.Worst = highlight(a.worst, byMove)
		if len(a.best) > 0 {
			a.summary.BestByCategory = make(map[string]string, len(a.best))
			for cat, cr := range a.best {
				a.summary.BestByCategory[cat] = cr.MoveID
			}
		}
		out = append(out, a.summary)
	}
	return out
}

func highlight(r domain.RankedMove, byMove map[string]domain.CategoryRanking) *domain.MoveHighlight {
	h := &domain.MoveHighlight{
		MoveID:   r.Item.ID,
		Name:     r.Item.Name,
		Category: string(category.Of(r.Item)),
		Score:    r.Score,
	}
	if cr, ok := byMove[r.Item.ID]; ok {
		h.Category = cr.Category
		h.Tier = cr.Tier
	}
	return h
}

func better(a, b domain.CategoryRanking) bool {
	switch {
	case a.Rank != b.Rank:
		return a.Rank < b.Rank
	case a.Score != b.Score:
		return a.Score > b.Score
	default:
		return a.MoveID < b.MoveID
	}
}

// Validate has nothing to check beyond the name.
func (u *CharacterSummaryUnit) Validate() error {
	if u.name == "" {
		return ErrEmptyUnitName
	}
	return nil
}

// NewCharacterSummaryFromConfig creates a CharacterSummaryUnit from a
// configuration map.
func NewCharacterSummaryFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultCharacterSummaryConfig()
	if err := decodeParams(config, &cfg); err != nil {
		return nil, fmt.Errorf("character summary: %w", err)
	}
	return NewCharacterSummaryUnit(id, cfg)
}
