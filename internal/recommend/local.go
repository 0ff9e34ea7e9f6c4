package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
)

// Local produces rule-based tips without network access.
type Local struct{}

// Recommend implements Recommender.
func (Local) Recommend(_ context.Context, wpm int, accuracy float64, histogram []model.CharErrors) []string {
	tips := make([]string, 0, 4)

	switch {
	case wpm == 0:
		tips = append(tips, "No complete sentence was typed. Aim to finish each sentence before worrying about speed.")
	case wpm < AverageWPM:
		tips = append(tips, fmt.Sprintf("Your speed of %d WPM is below the %d WPM average. Short daily sessions with a steady rhythm build speed faster than occasional long ones.", wpm, AverageWPM))
	default:
		tips = append(tips, fmt.Sprintf("At %d WPM you are above the %d WPM average. Practise longer texts to keep that pace over time.", wpm, AverageWPM))
	}

	if accuracy < AverageAccuracy {
		tips = append(tips, fmt.Sprintf("Accuracy of %.2f%% is under the %.0f%% target. Slow down a little and type each word cleanly.", accuracy, AverageAccuracy))
	} else {
		tips = append(tips, fmt.Sprintf("Accuracy of %.2f%% meets the %.0f%% target. Push your speed while keeping it there.", accuracy, AverageAccuracy))
	}

	if top := topChars(histogram, 3); len(top) > 0 {
		tips = append(tips, fmt.Sprintf("Drill the characters you miss most: %s.", strings.Join(top, ", ")))
		for _, h := range histogram {
			if h.Char == " " {
				tips = append(tips, "Several mistakes were at word boundaries. Press space only after the last letter of each word.")
				break
			}
		}
	}

	if len(tips) < 4 {
		tips = append(tips, "Keep your fingers on the home row and your eyes on the screen rather than the keyboard.")
	}
	return tips
}
