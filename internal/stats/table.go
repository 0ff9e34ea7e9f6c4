package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/speedtype/internal/model"
)

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return b.String()
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}

// ErrorTable formats a per-character error histogram as aligned lines.
func ErrorTable(histogram []model.CharErrors) []string {
	total := 0
	for _, h := range histogram {
		total += h.Count
	}
	headers := []string{"Char", "Misses", "Share"}
	rows := make([][]string, 0, len(histogram))
	for _, h := range histogram {
		share := 0.0
		if total > 0 {
			share = float64(h.Count) / float64(total) * 100
		}
		rows = append(rows, []string{
			charLabel(h.Char),
			fmt.Sprintf("%d", h.Count),
			fmt.Sprintf("%.1f%%", share),
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true})
}

// RenderErrorTable prints the error histogram.
func RenderErrorTable(w io.Writer, histogram []model.CharErrors) error {
	if len(histogram) == 0 {
		_, err := fmt.Fprintln(w, "No errors recorded.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Errors by Character"); err != nil {
		return err
	}
	for _, line := range ErrorTable(histogram) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func charLabel(char string) string {
	switch char {
	case " ":
		return "<space>"
	case "":
		return "<end>"
	default:
		return char
	}
}
