package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
)

const (
	barFull  = '█'
	barEmpty = '░'
)

// Comparison pairs a measured value with the average it is judged against.
type Comparison struct {
	Label   string
	Yours   float64
	Average float64
	Max     float64
	Format  string
}

// Comparisons returns the WPM and accuracy comparisons for res.
func Comparisons(res model.Result) []Comparison {
	wpmMax := AverageWPM * 2
	if float64(res.WPM) > wpmMax {
		wpmMax = float64(res.WPM)
	}
	return []Comparison{
		{Label: "WPM", Yours: float64(res.WPM), Average: AverageWPM, Max: wpmMax, Format: "%.0f"},
		{Label: "Accuracy", Yours: res.Accuracy, Average: AverageAccuracy, Max: 100, Format: "%.2f%%"},
	}
}

// RenderComparison draws a pair of horizontal bars per comparison.
func RenderComparison(w io.Writer, comps []Comparison, totalWidth int, useColor bool) error {
	labelWidth := len("Average")
	for _, c := range comps {
		if l := len(c.Label); l > labelWidth {
			labelWidth = l
		}
	}
	barWidth := totalWidth - labelWidth - 12
	if barWidth < minPlotWidth {
		barWidth = minPlotWidth
	}
	if _, err := fmt.Fprintln(w, "Performance Comparison"); err != nil {
		return err
	}
	for _, c := range comps {
		rows := []struct {
			name  string
			value float64
			color string
		}{
			{c.Label, c.Yours, colorPalette[0].code},
			{"Average", c.Average, colorPalette[1].code},
		}
		for _, r := range rows {
			bar := Bar(r.value, c.Max, barWidth)
			if useColor {
				bar = r.color + bar + colorReset
			}
			line := fmt.Sprintf("%-*s %s "+c.Format, labelWidth, r.name, bar, r.value)
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}
	return nil
}

// Bar renders value as a filled share of width cells.
func Bar(value, max float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if max > 0 && value > 0 {
		filled = int(value/max*float64(width) + 0.5)
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat(string(barFull), filled) + strings.Repeat(string(barEmpty), width-filled)
}
