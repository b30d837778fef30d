package ranking

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/testutils"
)

func TestTally(t *testing.T) {
	tests := []struct {
		name     string
		contests []Contest
		want     domain.Comparison
	}{
		{
			name:     "higher wins",
			contests: []Contest{{Weight: 1, Better: BetterHigher, A: 10, B: 5}},
			want:     domain.Comparison{Wins: 1, Total: 1},
		},
		{
			name:     "higher loses",
			contests: []Contest{{Weight: 1, Better: BetterHigher, A: 5, B: 10}},
			want:     domain.Comparison{Wins: 0, Total: 1},
		},
		{
			name:     "lower wins",
			contests: []Contest{{Weight: 0.3, Better: BetterLower, A: 3, B: 6}},
			want:     domain.Comparison{Wins: 0.3, Total: 0.3},
		},
		{
			name:     "tie splits the weight",
			contests: []Contest{{Weight: 0.4, Better: BetterLower, A: 7, B: 7}},
			want:     domain.Comparison{Wins: 0.2, Total: 0.4},
		},
		{
			name:     "no contests",
			contests: nil,
			want:     domain.Comparison{},
		},
		{
			name: "mixed",
			contests: []Contest{
				{Weight: 0.5, Better: BetterHigher, A: 2, B: 1},
				{Weight: 0.25, Better: BetterLower, A: 2, B: 1},
				{Weight: 0.25, Better: BetterLower, A: 1, B: 1},
			},
			want: domain.Comparison{Wins: 0.625, Total: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tally(tt.contests)
			assert.InDelta(t, tt.want.Wins, got.Wins, 1e-12)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-12)
		})
	}
}

func TestWeightedComparator_AntiSymmetry(t *testing.T) {
	cmp, err := NewWeightedComparator(DefaultCriteria(), MissingSkip)
	require.NoError(t, err)

	moves := testutils.SampleMoves()
	for _, a := range moves {
		for _, b := range moves {
			if a.ID == b.ID {
				continue
			}
			ab := cmp.Compare(a, b)
			ba := cmp.Compare(b, a)
			assert.InDelta(t, ab.Total, ba.Total, 1e-12, "%s vs %s", a.ID, b.ID)
			assert.InDelta(t, ab.Total, ab.Wins+ba.Wins, 1e-12, "%s vs %s", a.ID, b.ID)
			assert.GreaterOrEqual(t, ab.Wins, 0.0)
			assert.LessOrEqual(t, ab.Wins, ab.Total)
		}
	}
}

func TestWeightedComparator_SampleRow(t *testing.T) {
	cmp, err := NewWeightedComparator(DefaultCriteria(), MissingSkip)
	require.NoError(t, err)

	moves := testutils.SampleMoves()
	jab := moves[0]
	want := []float64{0, 0.8, 0.8, 0.55, 0.8}
	for j, other := range moves {
		if j == 0 {
			continue
		}
		got := cmp.Compare(jab, other)
		assert.InDelta(t, want[j], got.Wins, 1e-12, "jab vs %s", other.ID)
		assert.InDelta(t, 1.0, got.Total, 1e-12)
	}
}

func TestWeightedComparator_MissingPolicies(t *testing.T) {
	criteria := []Criterion{
		{Name: "speed", Weight: 0.6, Better: BetterLower, Attribute: domain.AttrStartupFrames},
		{Name: "damage", Weight: 0.4, Better: BetterHigher, Attribute: domain.AttrDamage},
	}
	a := domain.Move{ID: "a", StartupFrames: domain.Float(4)}
	b := domain.Move{ID: "b", StartupFrames: domain.Float(8), Damage: domain.Float(12)}

	tests := []struct {
		policy MissingPolicy
		want   domain.Comparison
	}{
		{MissingSkip, domain.Comparison{Wins: 0.6, Total: 0.6}},
		{"", domain.Comparison{Wins: 0.6, Total: 0.6}},
		{MissingTie, domain.Comparison{Wins: 0.8, Total: 1.0}},
		{MissingZero, domain.Comparison{Wins: 0.6, Total: 1.0}},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cmp, err := NewWeightedComparator(criteria, tt.policy)
			require.NoError(t, err)

			got := cmp.Compare(a, b)
			assert.InDelta(t, tt.want.Wins, got.Wins, 1e-12)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-12)
		})
	}

	t.Run("rating counts as missing without a rating", func(t *testing.T) {
		cmp, err := NewWeightedComparator([]Criterion{
			{Name: "rating", Weight: 1, Better: BetterHigher, Attribute: domain.AttrOverallRating},
		}, MissingSkip)
		require.NoError(t, err)
		got := cmp.Compare(a, domain.Move{ID: "c", Rating: &domain.Rating{OverallRating: 50}})
		assert.Equal(t, domain.Comparison{}, got)
	})
}

func TestNewWeightedComparator_Validation(t *testing.T) {
	speed := Criterion{Name: "speed", Weight: 1, Better: BetterLower, Attribute: domain.AttrStartupFrames}

	tests := []struct {
		name     string
		criteria []Criterion
		policy   MissingPolicy
		wantMsg  string
	}{
		{name: "empty criteria", criteria: nil, wantMsg: "at least one criterion"},
		{
			name:     "negative weight",
			criteria: []Criterion{{Name: "speed", Weight: -1, Better: BetterLower, Attribute: domain.AttrStartupFrames}},
			wantMsg:  "criterion 0",
		},
		{
			name:     "infinite weight",
			criteria: []Criterion{{Name: "speed", Weight: math.Inf(1), Better: BetterLower, Attribute: domain.AttrStartupFrames}},
			wantMsg:  "weight must be finite",
		},
		{
			name:     "unknown direction",
			criteria: []Criterion{{Name: "speed", Weight: 1, Better: "sideways", Attribute: domain.AttrStartupFrames}},
			wantMsg:  "criterion 0",
		},
		{
			name:     "unknown attribute",
			criteria: []Criterion{{Name: "reach", Weight: 1, Better: BetterHigher, Attribute: "reach"}},
			wantMsg:  "unknown attribute",
		},
		{
			name:     "duplicate names",
			criteria: []Criterion{speed, speed},
			wantMsg:  "duplicate criterion",
		},
		{
			name:     "unknown policy",
			criteria: []Criterion{speed},
			policy:   "guess",
			wantMsg:  "unknown missing policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := NewWeightedComparator(tt.criteria, tt.policy)
			require.Error(t, err)
			assert.Nil(t, cmp)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
		})
	}
}

func TestWeightedComparator_CriteriaIsCopy(t *testing.T) {
	criteria := DefaultCriteria()
	cmp, err := NewWeightedComparator(criteria, MissingSkip)
	require.NoError(t, err)

	criteria[0].Weight = 99
	got := cmp.Criteria()
	assert.Equal(t, 0.30, got[0].Weight)

	got[1].Weight = 42
	assert.Equal(t, 0.25, cmp.Criteria()[1].Weight)
}
