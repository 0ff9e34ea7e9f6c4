package sentence

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
)

// Source names accepted by New.
const (
	SourceStatic = "static"
	SourceFile   = "file"
	SourceWords  = "words"
	SourceAI     = "ai"
)

// Source supplies reference sentences.
type Source interface {
	NextSentence(ctx context.Context) (string, error)
}

// ValidSource reports whether name is a known source.
func ValidSource(name string) bool {
	switch strings.ToLower(name) {
	case SourceStatic, SourceFile, SourceWords, SourceAI:
		return true
	}
	return false
}

// New builds the source selected in settings. gen is only used by the ai source.
func New(settings model.Settings, gen Generator) (Source, error) {
	switch strings.ToLower(settings.SentenceSource) {
	case "", SourceStatic:
		return NewStatic(DefaultSentences)
	case SourceFile:
		if settings.SentenceFile == "" {
			return nil, fmt.Errorf("sentence file is not set")
		}
		return LoadFile(settings.SentenceFile)
	case SourceWords:
		if settings.WordListPath == "" {
			return nil, fmt.Errorf("word list path is not set")
		}
		words, err := LoadWords(settings.WordListPath, FilterForLang(settings.Lang))
		if err != nil {
			return nil, fmt.Errorf("load word list: %w", err)
		}
		return NewWords(words, WordsOptions{
			Count:    settings.Words,
			CapsPct:  settings.CapsPct,
			PunctPct: settings.PunctPct,
		})
	case SourceAI:
		if gen == nil {
			return nil, fmt.Errorf("ai sentence source needs a model client")
		}
		return NewRemote(gen, ""), nil
	default:
		return nil, fmt.Errorf("unknown sentence source %q", settings.SentenceSource)
	}
}
