// Package recommend turns a typing result into improvement tips.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/speedtype/internal/logger"
	"github.com/verte-zerg/speedtype/internal/model"
)

// User-visible messages.
const (
	NoDataMessage      = "No test data found. Please complete a typing test first."
	UnavailableMessage = "Unable to generate recommendations. Please try again later."
	LoadingMessage     = "Generating recommendations..."
)

// Average figures used for comparisons.
const (
	AverageWPM      = 40
	AverageAccuracy = 95.0
)

// Source names accepted by New.
const (
	SourceAuto  = "auto"
	SourceAI    = "ai"
	SourceLocal = "local"
)

// Recommender produces tips. It never returns an error; failures become a single
// user-visible message.
type Recommender interface {
	Recommend(ctx context.Context, wpm int, accuracy float64, histogram []model.CharErrors) []string
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// ValidSource reports whether name is a known recommendation source.
func ValidSource(name string) bool {
	switch strings.ToLower(name) {
	case SourceAuto, SourceAI, SourceLocal:
		return true
	}
	return false
}

// New selects a recommender. auto uses the model when it has an API key.
func New(source string, gen Generator, log *logger.Logger) (Recommender, error) {
	switch strings.ToLower(source) {
	case "", SourceAuto:
		if gen != nil && gen.Configured() {
			return NewGemini(gen, log), nil
		}
		return Local{}, nil
	case SourceAI:
		if gen == nil {
			return nil, fmt.Errorf("ai recommendations need a model client")
		}
		return NewGemini(gen, log), nil
	case SourceLocal:
		return Local{}, nil
	default:
		return nil, fmt.Errorf("unknown recommendation source %q", source)
	}
}

// ErrorHistogram counts mistakes per expected character, most frequent first.
func ErrorHistogram(errors []model.ErrorPosition) []model.CharErrors {
	counts := make(map[string]int)
	for _, e := range errors {
		counts[e.Expected]++
	}
	out := make([]model.CharErrors, 0, len(counts))
	for char, count := range counts {
		out = append(out, model.CharErrors{Char: char, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Char < out[j].Char
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// DisplayChar makes whitespace visible in tips and tables.
func DisplayChar(char string) string {
	switch char {
	case " ":
		return "space"
	case "\t":
		return "tab"
	case "":
		return "end"
	default:
		return char
	}
}

func topChars(histogram []model.CharErrors, limit int) []string {
	if len(histogram) < limit {
		limit = len(histogram)
	}
	out := make([]string, 0, limit)
	for _, h := range histogram[:limit] {
		out = append(out, fmt.Sprintf("'%s' (%d)", DisplayChar(h.Char), h.Count))
	}
	return out
}
