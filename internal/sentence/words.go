package sentence

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"
)

// DefaultWordCount is the number of words per generated sentence.
const DefaultWordCount = 12

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return func(string) bool { return true }
	}
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

// LoadWords reads one word per line from path, keeping words accepted by filter.
func LoadWords(path string, filter FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if filter != nil && !filter(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// WordsOptions controls generated sentences.
type WordsOptions struct {
	Count    int
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// Words builds sentences from random words of a word list.
type Words struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	words []string
	opts  WordsOptions
}

// NewWords returns a Words source. The word slice must not be empty.
func NewWords(words []string, opts WordsOptions) (*Words, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	if opts.Count <= 0 {
		opts.Count = DefaultWordCount
	}
	if len(opts.PunctSet) == 0 {
		opts.PunctSet = []rune{',', ';', ':'}
	}
	return &Words{
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		words: words,
		opts:  opts,
	}, nil
}

// NextSentence joins Count random words, capitalises the first and ends with a period.
func (w *Words) NextSentence(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	picked := make([]string, 0, w.opts.Count)
	for i := 0; i < w.opts.Count; i++ {
		word := w.words[w.rnd.Intn(len(w.words))]
		word = applyCaps(w.rnd, word, w.opts.CapsPct)
		if i < w.opts.Count-1 {
			word = applyPunct(w.rnd, word, w.opts.PunctPct, w.opts.PunctSet)
		}
		picked = append(picked, word)
	}
	picked[0] = capitalize(picked[0])
	return strings.Join(picked, " ") + ".", nil
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	return capitalize(word)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
