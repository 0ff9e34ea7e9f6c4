// Package sentence provides reference texts for typing sessions.
package sentence

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrEmptyTable is returned when a sentence table holds no usable sentences.
var ErrEmptyTable = errors.New("sentence table is empty")

// DefaultSentences is the built-in table.
var DefaultSentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"A journey of a thousand miles begins with a single step.",
	"To be or not to be, that is the question.",
	"All that glitters is not gold.",
	"Where there's a will, there's a way.",
}

// Static picks sentences uniformly from a fixed table.
type Static struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	sentences []string
}

// NewStatic returns a Static source over sentences. Blank entries are skipped.
func NewStatic(sentences []string) (*Static, error) {
	table := cleanTable(sentences)
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	return &Static{
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sentences: table,
	}, nil
}

// NextSentence returns a random sentence from the table.
func (s *Static) NextSentence(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentences[s.rnd.Intn(len(s.sentences))], nil
}

// Len returns the number of sentences in the table.
func (s *Static) Len() int {
	return len(s.sentences)
}

func cleanTable(sentences []string) []string {
	table := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		sentence = normalize(sentence)
		if sentence == "" {
			continue
		}
		table = append(table, sentence)
	}
	return table
}
