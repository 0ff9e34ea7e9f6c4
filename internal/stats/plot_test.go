package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotSeriesPlain(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeriesWithColor(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{10, 20, 35, 20, 10}},
		{Name: "B", Values: []float64{40, 40, 40}},
	}, 12, 4, false)
	if err != nil {
		t.Fatalf("PlotSeriesWithColor failed: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected title, 4 rows and legend, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "Test Plot" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  40 │ ") {
		t.Fatalf("expected top axis label 40, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[4], "   0 │ ") {
		t.Fatalf("expected bottom axis label 0, got %q", lines[4])
	}
	if !strings.Contains(lines[5], "A (solid)") || !strings.Contains(lines[5], "B (dashed)") {
		t.Fatalf("unexpected legend %q", lines[5])
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for a buffer")
	}
	if IsTerminal(&buf) {
		t.Fatalf("a buffer is not a terminal")
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeriesWithColor(&buf, "Empty", []Series{{Name: "A"}}, 10, 4, false); err != nil {
		t.Fatalf("PlotSeriesWithColor failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotSeriesForcedColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	if err := PlotSeriesWithColor(&buf, "", []Series{{Name: "A", Values: []float64{1, 2}}}, 10, 2, true); err != nil {
		t.Fatalf("PlotSeriesWithColor failed: %v", err)
	}
	if !strings.Contains(buf.String(), colorPalette[0].code) {
		t.Fatalf("expected colored output")
	}
}

func TestResampleSeries(t *testing.T) {
	got := resampleSeries([]float64{0, 10}, 3)
	if got[0] != 0 || got[1] != 5 || got[2] != 10 {
		t.Fatalf("unexpected stretch %v", got)
	}
	got = resampleSeries([]float64{1, 3, 5, 7}, 2)
	if got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected average %v", got)
	}
	got = resampleSeries([]float64{4}, 3)
	if got[0] != 4 || got[2] != 4 {
		t.Fatalf("unexpected single value %v", got)
	}
}

func TestAxisMax(t *testing.T) {
	if got := axisMax([]Series{{Values: []float64{3}}}); got != 10 {
		t.Fatalf("expected 10, got %v", got)
	}
	if got := axisMax([]Series{{Values: []float64{41}}, {Values: []float64{12}}}); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}
