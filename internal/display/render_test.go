package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
)

func plainRenderer() *Renderer {
	return NewRenderer(&bytes.Buffer{}, true)
}

func TestRenderAnalysis(t *testing.T) {
	a, err := analysis.AnalyzeStartingHand("K♠", "A♠")
	require.NoError(t, err)

	out := plainRenderer().Analysis(a)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 1+len(a.PossibleHands))

	assert.Equal(t, "A♠ K♠  AKs  Extremely Strong (4)", lines[0])
	assert.Contains(t, lines[1], "Royal Flush")
	assert.Contains(t, lines[1], "need three more royal spades")
	assert.Contains(t, lines[1], "[Q♠ J♠ T♠]")
	assert.Contains(t, lines[len(lines)-1], "✓")
	assert.Contains(t, lines[len(lines)-1], "A high")
}

func TestRenderGrid(t *testing.T) {
	out := plainRenderer().Grid(nil)
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, rows, poker.NumRanks)

	first := strings.Fields(rows[0])
	require.Len(t, first, poker.NumRanks)
	assert.Equal(t, "AA", first[0])
	assert.Equal(t, "AKs", first[1])
	assert.Equal(t, "A2s", first[12])

	last := strings.Fields(rows[12])
	assert.Equal(t, "A2o", last[0])
	assert.Equal(t, "22", last[12])

	for i, row := range rows {
		assert.Equal(t, poker.NumRanks, len(strings.Fields(row)), "row %d", i)
	}
}

func TestRenderGridWithRange(t *testing.T) {
	rng, err := analysis.ParseRange("AA")
	require.NoError(t, err)

	// Out-of-range classes are dimmed, not removed.
	out := plainRenderer().Grid(rng)
	assert.Equal(t, 169, len(strings.Fields(out)))
}

func TestRenderLegend(t *testing.T) {
	out := plainRenderer().Legend(poker.CategoryCounts())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, len(poker.Categories))
	assert.True(t, strings.HasPrefix(lines[0], "Extremely Strong"))
	assert.True(t, strings.HasPrefix(lines[4], "Fold"))
}

func TestRenderError(t *testing.T) {
	assert.Equal(t, "error: boom", plainRenderer().Error(errors.New("boom")))
}

func TestCategoryStyleFallback(t *testing.T) {
	s := plainRenderer().Styles()
	assert.Equal(t, s.Muted.Render("x"), s.Category(poker.Category(99)).Render("x"))
}
