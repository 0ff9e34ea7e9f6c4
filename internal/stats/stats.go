// Package stats renders typing results as text: summaries, charts and tables.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// AverageWPM and AverageAccuracy are the reference figures results are compared with.
const (
	AverageWPM      = 40.0
	AverageAccuracy = 95.0
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if maxVal-minVal < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - minVal) / (maxVal - minVal) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the headline figures of a result.
func RenderSummary(w io.Writer, res model.Result) error {
	lines := []string{
		fmt.Sprintf("WPM: %d", res.WPM),
		fmt.Sprintf("Words: %d", res.Words),
		fmt.Sprintf("Accuracy: %.2f%%", res.Accuracy),
		fmt.Sprintf("Errors: %d", len(res.DetailedErrors)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderReport prints a plain-text analysis of res: the headline figures, the comparison
// with the averages, the error histogram and any tips.
func RenderReport(w io.Writer, res model.Result, histogram []model.CharErrors, tips []string, width int) error {
	if err := RenderSummary(w, res); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := RenderComparison(w, Comparisons(res), width, false); err != nil {
		return err
	}
	if err := RenderErrorTable(w, histogram); err != nil {
		return err
	}
	if len(tips) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nRecommendations"); err != nil {
		return err
	}
	for i, tip := range tips {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, tip); err != nil {
			return err
		}
	}
	return nil
}

// RenderProgress plots the per-second pace of a session, smoothed over window seconds,
// against the average WPM.
func RenderProgress(w io.Writer, pace []float64, window, totalWidth, height int, useColor bool) error {
	if len(pace) == 0 {
		return nil
	}
	average := make([]float64, len(pace))
	for i := range average {
		average[i] = AverageWPM
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Pace (WPM)", []Series{
		{Name: "You", Values: MovingAverage(pace, window)},
		{Name: "Average", Values: average},
	}, width, height, useColor)
}
