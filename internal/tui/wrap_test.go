package tui

import (
	"testing"

	"github.com/verte-zerg/speedtype/internal/model"
)

var testStyles = newStyles(DarkTheme())

func TestStyleReferenceCursor(t *testing.T) {
	runes := styleReference(testStyles, []rune("ab"), 1, nil)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != testStyles.correct.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != testStyles.cursor.Render("b") {
		t.Fatalf("expected cursor style for second rune")
	}
}

func TestStyleReferenceNoCursorWhenComplete(t *testing.T) {
	runes := styleReference(testStyles, []rune("a"), 1, nil)
	if len(runes) != 1 {
		t.Fatalf("expected 1 rune, got %d", len(runes))
	}
	if runes[0].s != testStyles.correct.Render("a") {
		t.Fatalf("expected correct style for completed rune")
	}
}

func TestStyleReferenceMarksEngineErrors(t *testing.T) {
	errs := []model.ErrorPosition{{Char: "x", Expected: "b", Position: 1}}
	runes := styleReference(testStyles, []rune("abc"), 2, errs)
	if runes[0].s != testStyles.correct.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != testStyles.incorrect.Render("b") {
		t.Fatalf("expected incorrect style for the reference rune, not the typed one")
	}
	if runes[2].s != testStyles.cursor.Render("c") {
		t.Fatalf("expected cursor on the next rune")
	}
}

func TestStyleReferenceWordHighlighting(t *testing.T) {
	runes := styleReference(testStyles, []rune("one two"), 1, nil)
	if runes[0].s != testStyles.correct.Render("o") {
		t.Fatalf("expected correct style for typed rune")
	}
	if runes[2].s != testStyles.currentWord.Render("e") {
		t.Fatalf("expected current word style for untyped rune in current word")
	}
	if runes[4].s != testStyles.pending.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestStyleReferenceWrongSpaceDot(t *testing.T) {
	errs := []model.ErrorPosition{{Char: "x", Expected: " ", Position: 1}}
	runes := styleReference(testStyles, []rune("a b"), 2, errs)
	if len(runes) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(runes))
	}
	if runes[1].s != testStyles.incorrect.Render("•") {
		t.Fatalf("expected dot for wrong space")
	}
	if !runes[1].isSpace {
		t.Fatalf("wrong space must still wrap as a space")
	}
}

func TestWordAt(t *testing.T) {
	ref := []rune("one two")
	cases := []struct {
		pos        int
		start, end int
		ok         bool
	}{
		{0, 0, 3, true},
		{2, 0, 3, true},
		{3, 4, 7, true},
		{6, 4, 7, true},
		{-1, 0, 0, false},
		{7, 0, 0, false},
	}
	for _, tc := range cases {
		got, ok := wordAt(ref, tc.pos)
		if ok != tc.ok || (ok && (got.start != tc.start || got.end != tc.end)) {
			t.Fatalf("wordAt(%d) = %+v, %v", tc.pos, got, ok)
		}
	}
}

func plainRunes(text string) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		out = append(out, styledRune{s: string(r), width: 1, isSpace: r == ' '})
	}
	return out
}

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	lines := wrapStyledRunes(plainRunes("aaa bbb ccc"), 8)
	if len(lines) != 2 || lines[0] != "aaa bbb" || lines[1] != "ccc" {
		t.Fatalf("unexpected wrap %q", lines)
	}
}

func TestWrapStyledRunesSplitsLongWords(t *testing.T) {
	lines := wrapStyledRunes(plainRunes("aaa"), 2)
	if len(lines) != 2 || lines[0] != "aa" || lines[1] != "a" {
		t.Fatalf("unexpected hard wrap %q", lines)
	}
}

func TestWrapStyledRunesNoWidth(t *testing.T) {
	lines := wrapStyledRunes(plainRunes("a b"), 0)
	if len(lines) != 1 || lines[0] != "a b" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestThemeToggle(t *testing.T) {
	theme := ThemeByName("LIGHT")
	if theme.Name != ThemeLight {
		t.Fatalf("expected light theme, got %s", theme.Name)
	}
	if theme.Toggle().Name != ThemeDark || theme.Toggle().Toggle().Name != ThemeLight {
		t.Fatalf("expected toggle to alternate themes")
	}
	if ThemeByName("neon").Name != ThemeDark || ValidTheme("neon") {
		t.Fatalf("expected unknown theme to fall back to dark")
	}
}
