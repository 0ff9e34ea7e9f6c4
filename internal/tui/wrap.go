package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/speedtype/internal/model"
)

const wrongSpace = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// styleReference renders each reference rune as correct, incorrect or untyped. Incorrect
// positions come from the engine, so the view marks exactly what is scored. A mistyped
// space is drawn as a dot so it stays visible.
func styleReference(st styles, ref []rune, typed int, errs []model.ErrorPosition) []styledRune {
	wrong := make(map[int]bool, len(errs))
	for _, e := range errs {
		wrong[e.Position] = true
	}
	cursor := -1
	if typed < len(ref) {
		cursor = typed
	}
	current, hasCurrent := wordAt(ref, cursor)

	out := make([]styledRune, 0, len(ref))
	for i, r := range ref {
		shown := r
		style := st.pending
		switch {
		case i < typed && wrong[i]:
			style = st.incorrect
			if r == ' ' {
				shown = wrongSpace
			}
		case i < typed:
			style = st.correct
		case i == cursor:
			style = st.cursor
		case hasCurrent && r != ' ' && i >= current.start && i < current.end:
			style = st.currentWord
		}
		out = append(out, styledRune{
			s:       style.Render(string(shown)),
			width:   runewidth.RuneWidth(shown),
			isSpace: r == ' ',
		})
	}
	return out
}

type span struct {
	start int
	end   int
}

// wordAt returns the word containing pos, or the next word when pos sits on a space.
// A negative pos means nothing is being typed.
func wordAt(ref []rune, pos int) (span, bool) {
	if pos < 0 || pos >= len(ref) {
		return span{}, false
	}
	start := pos
	for start < len(ref) && ref[start] == ' ' {
		start++
	}
	if start == len(ref) {
		return span{}, false
	}
	for start > 0 && ref[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(ref) && ref[end] != ' ' {
		end++
	}
	return span{start: start, end: end}, true
}

// wrapStyledRunes breaks runes into lines of at most width cells, preferring the last
// space on a line. The space at a break is dropped. Words longer than width are split.
func wrapStyledRunes(runes []styledRune, width int) []string {
	if width <= 0 {
		return []string{joinRunes(runes)}
	}
	var lines []string
	var line []styledRune
	used := 0
	lastSpace := -1
	for i := 0; i < len(runes); {
		item := runes[i]
		if used+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				lines = append(lines, joinRunes(line[:lastSpace]))
				line = append([]styledRune(nil), line[lastSpace+1:]...)
			} else {
				lines = append(lines, joinRunes(line))
				line = line[:0]
			}
			used, lastSpace = measure(line)
			continue
		}
		line = append(line, item)
		used += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	return append(lines, joinRunes(line))
}

func joinRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// measure returns the cell width of line and the index of its last space, or -1.
func measure(line []styledRune) (int, int) {
	width, lastSpace := 0, -1
	for i, item := range line {
		width += item.width
		if item.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}
