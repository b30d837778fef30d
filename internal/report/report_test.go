package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ranking"
	"github.com/ahrav/framerank/internal/testutils"
)

func twoMoveData() Data {
	alpha := domain.Move{
		ID: "a", Name: "Alpha", Type: "jab",
		StartupFrames: domain.Float(3), Damage: domain.Float(2.5), OnShield: domain.Float(-2),
		Rating: &domain.Rating{OverallRating: 75.5, Tier: "A"},
	}
	bare := domain.Move{ID: "b"}

	return Data{
		Rankings: []domain.RankedMove{
			{Item: alpha, Score: 0.75, Rank: 1, Index: 1},
			{Item: bare, Score: 0.25, Rank: 2, Index: 0},
		},
		Matrix: domain.Matrix{
			{{}, {}},
			{{Wins: 0.75, Total: 1}, {}},
		},
		Categories: []domain.CategoryRanking{
			{MoveID: "b", Category: "unknown", Score: 1, Rank: 1, Total: 1},
			{MoveID: "a", Category: "jab", Score: 1, Rank: 1, Total: 1, Tier: domain.TierS},
		},
		Report: domain.SolverReport{Iterations: 18, Converged: true, MaxChange: 5e-7},
	}
}

func render(t *testing.T, d Data) []string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, d))
	return strings.Split(buf.String(), "\n")
}

func TestRender_Rankings(t *testing.T) {
	lines := render(t, twoMoveData())

	assert.Equal(t, "BTL ranking: 2 moves, 18 iterations, converged (max change 5.00e-07)", lines[0])
	assert.Equal(t, []string{"RANK", "MOVE", "SCORE", "TYPE", "STARTUP", "DAMAGE", "ON", "SHIELD", "RATING"},
		strings.Fields(lines[1]))
	assert.Equal(t, []string{"#1", "Alpha", "0.7500", "jab", "3f", "2.5%", "-2", "75.5", "(A)"},
		strings.Fields(lines[2]))
	assert.Equal(t, []string{"#2", "b", "0.2500", "-", "-", "-", "-", "-"},
		strings.Fields(lines[3]))
}

func TestRender_Matrix(t *testing.T) {
	lines := render(t, twoMoveData())

	start := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "Pairwise win rates") {
			start = i
			break
		}
	}
	require.NotEqual(t, -1, start, "matrix section missing")

	// Columns follow input order, so the bare move comes first.
	assert.Equal(t, "Move                b         Alpha     ", lines[start+1])
	assert.Equal(t, "b                   --        0.50      ", lines[start+2], "no evidence reads as an even split")
	assert.Equal(t, "Alpha               0.75      --        ", lines[start+3])
}

func TestRender_Categories(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, twoMoveData()))
	out := buf.String()

	jab := strings.Index(out, "Jab (1)\n")
	unknown := strings.Index(out, "Unknown (1)\n")
	require.NotEqual(t, -1, jab)
	require.NotEqual(t, -1, unknown)
	assert.Less(t, jab, unknown, "categories are sorted by name")
	assert.Contains(t, out, "  1/1  Alpha  1.0000  S\n")
	assert.Contains(t, out, "  1/1  b  1.0000  -\n")
}

func TestRender_OptionalSections(t *testing.T) {
	d := twoMoveData()
	d.Matrix = nil
	d.Categories = nil
	d.Report.Converged = false

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, d))
	out := buf.String()

	assert.Contains(t, out, "did not converge")
	assert.NotContains(t, out, "Pairwise win rates")
	assert.NotContains(t, out, "Jab (1)")
}

func TestRender_SampleMoves(t *testing.T) {
	cmp, err := ranking.NewWeightedComparator(ranking.DefaultCriteria(), ranking.MissingSkip)
	require.NoError(t, err)
	moves := testutils.SampleMoves()

	matrix, err := ranking.BuildMatrix(context.Background(), moves, cmp.Compare, 0)
	require.NoError(t, err)
	scores, report, err := ranking.Estimate(context.Background(), matrix, ranking.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Data{
		Rankings: ranking.Order(moves, scores),
		Matrix:   matrix,
		Report:   report,
	}))
	out := buf.String()

	assert.Contains(t, out, "#1  ")
	assert.Contains(t, out, "Mario Jab 1")
	assert.Contains(t, out, "75.5 (A)")
	// Jab row against the forward tilt column.
	assert.Contains(t, out, "Mario Jab 1         --        0.80      ")
	assert.Equal(t, 5, strings.Count(out, "--"))
}
