package tui

import (
	"fmt"
	"strings"
)

const (
	// chartBand is the vertical range around the mean, as a fraction of it.
	chartBand = 0.2

	defaultChartWidth  = 60
	defaultChartHeight = 12
)

// chartBounds returns the visible price range: mean ± 20%.
func chartBounds(history []float64) (lo, hi float64) {
	var sum float64
	for _, v := range history {
		sum += v
	}
	mean := sum / float64(len(history))
	return mean * (1 - chartBand), mean * (1 + chartBand)
}

// resample picks width evenly spaced prices covering the whole history.
func resample(history []float64, width int) []float64 {
	if len(history) <= width {
		return history
	}
	if width == 1 {
		return history[len(history)-1:]
	}
	out := make([]float64, width)
	last := len(history) - 1
	for i := range out {
		out[i] = history[i*last/(width-1)]
	}
	return out
}

// renderChart draws the whole history squeezed into width columns with a
// price axis. Prices outside the band are pinned to the top or bottom row.
func renderChart(history []float64, width, height int) string {
	if width <= 0 {
		width = defaultChartWidth
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	if len(history) == 0 {
		return labelStyle.Render("no prices yet")
	}

	lo, hi := chartBounds(history)
	span := hi - lo

	points := resample(history, width)
	levels := make([]int, len(points))
	for i, v := range points {
		level := 0
		if span > 0 {
			level = int((v - lo) / span * float64(height-1))
		}
		levels[i] = min(max(level, 0), height-1)
	}

	rows := make([]string, 0, height)
	for row := height - 1; row >= 0; row-- {
		var line strings.Builder
		for _, level := range levels {
			switch {
			case level == row:
				line.WriteRune('•')
			case level > row:
				line.WriteRune('│')
			default:
				line.WriteRune(' ')
			}
		}

		axis := "        "
		switch row {
		case height - 1:
			axis = fmt.Sprintf("%8.2f", hi)
		case 0:
			axis = fmt.Sprintf("%8.2f", lo)
		}
		rows = append(rows, labelStyle.Render(axis)+" "+chartStyle.Render(line.String()))
	}

	return strings.Join(rows, "\n")
}
