package domain

// Comparison is the pairwise evidence for an ordered pair of items (i, j).
// Wins is the win mass accrued by i against j and Total is the combined win
// mass of both, so 0 <= Wins <= Total.
type Comparison struct {
	Wins  float64 `json:"wins"`
	Total float64 `json:"total"`
}

// WinRate returns Wins/Total, or 0.5 when there is no evidence.
func (c Comparison) WinRate() float64 {
	if c.Total <= 0 {
		return 0.5
	}
	return c.Wins / c.Total
}

// Matrix is an N×N table of pairwise comparisons indexed by input position.
// The diagonal is always the zero Comparison.
type Matrix [][]Comparison

// Size returns the number of items the matrix covers.
func (m Matrix) Size() int { return len(m) }

// RankedResult pairs an input item with its normalized strength score and
// 1-based rank. Index is the item's position in the input sequence.
type RankedResult[T any] struct {
	Item  T       `json:"item"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
	Index int     `json:"index"`
}

// RankedMove is a ranking result for a single move.
type RankedMove = RankedResult[Move]

// SolverReport describes how an estimation run terminated.
type SolverReport struct {
	// Iterations is the number of update rounds executed.
	Iterations int `json:"iterations"`

	// Converged is true when the loop stopped because the largest score change
	// fell below the convergence threshold.
	Converged bool `json:"converged"`

	// MaxChange is the largest absolute score change in the last round.
	MaxChange float64 `json:"max_change"`
}

// CategoryRanking is the ranking of one move within its move category.
type CategoryRanking struct {
	MoveID   string  `json:"move_id"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank_in_type"`
	Total    int     `json:"total_of_type"`

	// Percentile is the share of the category ranked at or below this move,
	// rounded to one decimal.
	Percentile float64 `json:"percentile_rank"`
	Tier       Tier    `json:"tier"`
}

// Tier buckets a move by its percentile within its category.
type Tier string

// Tiers from best to worst.
const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Tiers returns every tier, best first.
func Tiers() []Tier { return []Tier{TierS, TierA, TierB, TierC, TierD} }

// Percentile returns (total-rank+1)/total*100 for a 1-based rank. The top
// move of any group is at 100. A non-positive total yields 0.
func Percentile(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-rank+1) / float64(total) * 100
}

// TierFor maps a percentile to a tier: S from 90, A from 75, B from 50,
// C from 25, D below.
func TierFor(percentile float64) Tier {
	switch {
	case percentile >= 90:
		return TierS
	case percentile >= 75:
		return TierA
	case percentile >= 50:
		return TierB
	case percentile >= 25:
		return TierC
	default:
		return TierD
	}
}

// MoveHighlight identifies a notable move in a character summary.
type MoveHighlight struct {
	MoveID   string  `json:"move_id"`
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`

	// Tier is empty when no category rankings were computed.
	Tier Tier `json:"tier,omitempty"`
}

// CharacterSummary aggregates ranking results for every move of a character.
type CharacterSummary struct {
	Character string `json:"character"`

	// MoveCount is the number of ranked moves owned by the character.
	MoveCount int `json:"move_count"`

	// MeanScore is the mean overall score of the character's moves.
	MeanScore float64 `json:"mean_score"`

	// CategoryCounts counts moves per category.
	CategoryCounts map[string]int `json:"category_counts"`

	// BestByCategory maps a category to the ID of the character's best move in
	// it. Only populated when category rankings are available.
	BestByCategory map[string]string `json:"best_by_category,omitempty"`

	// TierCounts counts the character's moves per category tier, with every
	// tier present. Only populated when category rankings are available.
	TierCounts map[Tier]int `json:"tier_distribution,omitempty"`

	// Best and Worst are the character's highest and lowest scoring moves in
	// the overall ranking.
	Best  *MoveHighlight `json:"best_move,omitempty"`
	Worst *MoveHighlight `json:"worst_move,omitempty"`
}
