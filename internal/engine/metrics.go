package engine

import (
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

// ErrorPositions compares input and reference rune by rune up to the shorter length.
// Runes typed past the end of the reference are not scored.
func ErrorPositions(input, reference string) []model.ErrorPosition {
	in := []rune(input)
	ref := []rune(reference)
	n := len(in)
	if len(ref) < n {
		n = len(ref)
	}
	var out []model.ErrorPosition
	for i := 0; i < n; i++ {
		if in[i] == ref[i] {
			continue
		}
		out = append(out, model.ErrorPosition{
			Char:     string(in[i]),
			Expected: string(ref[i]),
			Position: i,
		})
	}
	return out
}

// CompletedWords counts the leading words of input that exactly match the reference words.
func CompletedWords(input, reference string) int {
	typed := strings.Fields(strings.TrimSpace(input))
	want := strings.Fields(reference)
	count := 0
	for i, word := range typed {
		if i >= len(want) || word != want[i] {
			break
		}
		count++
	}
	return count
}

// SentenceComplete reports whether input reproduces the reference exactly, ignoring
// surrounding whitespace.
func SentenceComplete(input, reference string) bool {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return false
	}
	return strings.TrimSpace(input) == ref
}

// Accuracy returns the share of correct characters in the current input as a
// percentage rounded to two decimals. An empty input scores 100.
func Accuracy(errorCount, inputLen int) float64 {
	if inputLen <= 0 {
		return 100
	}
	acc := 100 - float64(errorCount)/float64(inputLen)*100
	if acc < 0 {
		acc = 0
	}
	if acc > 100 {
		acc = 100
	}
	return math.Round(acc*100) / 100
}

// WPM returns words per minute rounded to the nearest integer, or 0 when no time elapsed.
func WPM(words int, elapsed time.Duration) int {
	minutes := float64(elapsed.Milliseconds()) / 60000.0
	if minutes <= 0 || words <= 0 {
		return 0
	}
	wpm := math.Round(float64(words) / minutes)
	if math.IsNaN(wpm) || math.IsInf(wpm, 0) {
		return 0
	}
	return int(wpm)
}

// LiveWPM is the unrounded pace so far, counting words finished in the current sentence.
func LiveWPM(words int, elapsed time.Duration) float64 {
	minutes := elapsed.Minutes()
	if minutes <= 0 || words <= 0 {
		return 0
	}
	return float64(words) / minutes
}
