// Package report renders ranking results as plain text.
package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ahrav/framerank/internal/domain"
)

const (
	labelWidth  = 20
	columnWidth = 10
	headerRunes = 8
)

var titleCaser = cases.Title(language.English)

// Data is the input of a report. Matrix rows are indexed by the ranked
// moves' input positions (RankedResult.Index).
type Data struct {
	Rankings   []domain.RankedMove
	Matrix     domain.Matrix
	Categories []domain.CategoryRanking
	Report     domain.SolverReport
}

// Render writes the ranking table, the pairwise win-rate matrix when
// present, and one table per category when present.
func Render(w io.Writer, d Data) error {
	var b strings.Builder
	writeRankings(&b, d)
	if d.Matrix.Size() > 0 {
		b.WriteString("\n")
		writeMatrix(&b, d)
	}
	if len(d.Categories) > 0 {
		b.WriteString("\n")
		writeCategories(&b, d)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRankings(b *strings.Builder, d Data) {
	status := "did not converge"
	if d.Report.Converged {
		status = "converged"
	}
	fmt.Fprintf(b, "BTL ranking: %d moves, %d iterations, %s (max change %.2e)\n",
		len(d.Rankings), d.Report.Iterations, status, d.Report.MaxChange)

	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMOVE\tSCORE\tTYPE\tSTARTUP\tDAMAGE\tON SHIELD\tRATING")
	for _, r := range d.Rankings {
		m := r.Item
		fmt.Fprintf(tw, "#%d\t%s\t%.4f\t%s\t%s\t%s\t%s\t%s\n",
			r.Rank, m.Label(), r.Score, orDash(m.Type),
			frames(m.StartupFrames), percent(m.Damage), number(m.OnShield), rating(m.Rating))
	}
	_ = tw.Flush()
}

func writeMatrix(b *strings.Builder, d Data) {
	byIndex := inputOrder(d.Rankings, d.Matrix.Size())

	b.WriteString("Pairwise win rates (row vs column)\n")
	b.WriteString(pad("Move", labelWidth))
	for _, m := range byIndex {
		b.WriteString(pad(truncate(m.Label(), headerRunes), columnWidth))
	}
	b.WriteString("\n")

	for i, row := range d.Matrix {
		b.WriteString(pad(truncate(byIndex[i].Label(), labelWidth), labelWidth))
		for j, c := range row {
			cell := "--"
			if i != j {
				cell = fmt.Sprintf("%.2f", c.WinRate())
			}
			b.WriteString(pad(cell, columnWidth))
		}
		b.WriteString("\n")
	}
}

func writeCategories(b *strings.Builder, d Data) {
	labels := make(map[string]string, len(d.Rankings))
	for _, r := range d.Rankings {
		labels[r.Item.ID] = r.Item.Label()
	}

	groups := make(map[string][]domain.CategoryRanking)
	for _, c := range d.Categories {
		groups[c.Category] = append(groups[c.Category], c)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)

	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		group := groups[name]
		slices.SortStableFunc(group, func(x, y domain.CategoryRanking) int { return x.Rank - y.Rank })

		fmt.Fprintf(b, "%s (%d)\n", titleCaser.String(name), len(group))
		tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
		for _, c := range group {
			label, ok := labels[c.MoveID]
			if !ok {
				label = c.MoveID
			}
			fmt.Fprintf(tw, "  %d/%d\t%s\t%.4f\t%s\n", c.Rank, c.Total, label, c.Score, orDash(string(c.Tier)))
		}
		_ = tw.Flush()
	}
}

// inputOrder recovers the input sequence from ranked results. Positions
// without a result get an empty move.
func inputOrder(rankings []domain.RankedMove, n int) []domain.Move {
	out := make([]domain.Move, n)
	for _, r := range rankings {
		if r.Index >= 0 && r.Index < n {
			out[r.Index] = r.Item
		}
	}
	return out
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s + " "
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func number(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func frames(v *float64) string {
	if v == nil {
		return "-"
	}
	return number(v) + "f"
}

func percent(v *float64) string {
	if v == nil {
		return "-"
	}
	return number(v) + "%"
}

func rating(r *domain.Rating) string {
	if r == nil {
		return "-"
	}
	s := strconv.FormatFloat(r.OverallRating, 'f', -1, 64)
	if r.Tier != "" {
		s += " (" + r.Tier + ")"
	}
	return s
}
