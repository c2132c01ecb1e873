package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartBounds(t *testing.T) {
	lo, hi := chartBounds([]float64{90, 100, 110})
	assert.InDelta(t, 80, lo, 1e-9)
	assert.InDelta(t, 120, hi, 1e-9)
}

func TestResample(t *testing.T) {
	history := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}

	assert.Equal(t, history, resample(history, 20))
	assert.Equal(t, []float64{1, 5, 9}, resample(history, 3))
	assert.Equal(t, []float64{9}, resample(history, 1))
}

func TestRenderChart(t *testing.T) {
	out := renderChart([]float64{100, 100, 100, 1000, 1}, 10, 5)
	rows := strings.Split(out, "\n")
	require.Len(t, rows, 5)

	// outliers are pinned to the top and bottom rows
	assert.Contains(t, rows[0], "•")
	assert.Contains(t, rows[4], "•")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rows[0]), "312.24"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rows[4]), "208.16"))

	assert.Contains(t, renderChart(nil, 10, 5), "no prices yet")
}
