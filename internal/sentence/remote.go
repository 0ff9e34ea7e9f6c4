package sentence

import (
	"context"
	"fmt"
	"strings"
)

// GeneratePrompt asks the model for fresh practice text.
const GeneratePrompt = "Generate two random sentences for a typing test. " +
	"Use plain everyday English with common punctuation. " +
	"Reply with the sentences only, on a single line, without quotes or numbering."

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Remote asks a text generation model for sentences.
type Remote struct {
	gen    Generator
	prompt string
}

// NewRemote returns a Remote source. An empty prompt uses GeneratePrompt.
func NewRemote(gen Generator, prompt string) *Remote {
	if strings.TrimSpace(prompt) == "" {
		prompt = GeneratePrompt
	}
	return &Remote{gen: gen, prompt: prompt}
}

// NextSentence requests text from the model and flattens it to one line.
func (r *Remote) NextSentence(ctx context.Context) (string, error) {
	text, err := r.gen.Generate(ctx, r.prompt)
	if err != nil {
		return "", fmt.Errorf("generate sentence: %w", err)
	}
	text = cleanGenerated(text)
	if text == "" {
		return "", fmt.Errorf("generate sentence: empty response")
	}
	return text, nil
}

// cleanGenerated drops list markers and wrapping quotes models like to add.
func cleanGenerated(text string) string {
	lines := strings.Split(text, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, "\"'`")
		if line == "" {
			continue
		}
		parts = append(parts, line)
	}
	return normalize(strings.Join(parts, " "))
}
