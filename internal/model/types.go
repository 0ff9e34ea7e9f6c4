// Package model defines shared data structures.
package model

import "time"

// Settings defines test and provider settings resolved from flags and config.
type Settings struct {
	Countdown int
	Duration  int
	Theme     string
	Sound     bool

	SentenceSource string
	SentenceFile   string
	WordListPath   string
	Lang           string
	Words          int
	CapsPct        float64
	PunctPct       float64
	Fallback       string

	RecommendSource string
	AIModel         string
	AIEndpoint      string
	AIKeyEnv        string
	AITimeout       time.Duration

	StoreBackend string
	StorePath    string
}

// ErrorPosition records a mismatched character in the current input.
type ErrorPosition struct {
	Char     string `json:"char"`
	Expected string `json:"expected"`
	Position int    `json:"position"`
}

// Result is the immutable outcome of a finished session.
type Result struct {
	WPM            int             `json:"wpm"`
	Accuracy       float64         `json:"accuracy"`
	DetailedErrors []ErrorPosition `json:"detailedErrors"`
	Words          int             `json:"-"`
	StartedAt      time.Time       `json:"-"`
	FinishedAt     time.Time       `json:"-"`
}

// CharErrors counts mistakes for a single expected character.
type CharErrors struct {
	Char  string `json:"char"`
	Count int    `json:"count"`
}
