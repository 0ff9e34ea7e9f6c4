package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/verte-zerg/speedtype/internal/logger"
	"github.com/verte-zerg/speedtype/internal/model"
)

// Gemini asks a text generation model for tips.
type Gemini struct {
	gen      Generator
	log      *logger.Logger
	markdown goldmark.Markdown
}

// NewGemini returns a model-backed recommender.
func NewGemini(gen Generator, log *logger.Logger) *Gemini {
	return &Gemini{gen: gen, log: log, markdown: goldmark.New()}
}

// Prompt builds the request sent to the model.
func Prompt(wpm int, accuracy float64, histogram []model.CharErrors) string {
	var b strings.Builder
	b.WriteString("Based on the following typing test results, provide 3-4 specific recommendations to improve typing skills:\n")
	fmt.Fprintf(&b, "WPM: %d\n", wpm)
	fmt.Fprintf(&b, "Accuracy: %.2f%%\n", accuracy)
	if top := topChars(histogram, 5); len(top) > 0 {
		fmt.Fprintf(&b, "Most missed characters: %s\n", strings.Join(top, ", "))
	}
	b.WriteString("Answer as a markdown bullet list.")
	return b.String()
}

// Recommend implements Recommender.
func (g *Gemini) Recommend(ctx context.Context, wpm int, accuracy float64, histogram []model.CharErrors) []string {
	reply, err := g.gen.Generate(ctx, Prompt(wpm, accuracy, histogram))
	if err != nil {
		g.log.Warnf("failed to generate recommendations: %v", err)
		return []string{UnavailableMessage}
	}
	tips := g.ParseTips(reply)
	if len(tips) == 0 {
		g.log.Warnf("model reply contained no recommendations")
		return []string{UnavailableMessage}
	}
	return tips
}

// ParseTips extracts list items from a markdown reply. A reply without lists is split
// into its non-blank lines.
func (g *Gemini) ParseTips(reply string) []string {
	source := []byte(reply)
	doc := g.markdown.Parser().Parse(text.NewReader(source))

	var tips []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		item, ok := n.(*ast.ListItem)
		if !ok {
			return ast.WalkContinue, nil
		}
		var parts []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if _, nested := c.(*ast.List); nested {
				continue
			}
			if s := strings.TrimSpace(inlineText(c, source)); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			tips = append(tips, strings.Join(parts, " "))
		}
		return ast.WalkContinue, nil
	})
	if err == nil && len(tips) > 0 {
		return tips
	}

	tips = nil
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line == "" {
			continue
		}
		tips = append(tips, line)
	}
	return tips
}

// inlineText flattens the text of n, dropping emphasis and code markers.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return b.String()
}
