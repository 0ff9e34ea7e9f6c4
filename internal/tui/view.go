package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/stats"
)

const (
	idleTitle      = "Ready to Test Your Typing Speed?"
	loadingMessage = "Loading next sentence..."
	resultsTitle   = "Test Complete!"
)

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.snap.Phase {
	case engine.PhaseIdle:
		content = m.renderIdle()
	case engine.PhaseCountingDown:
		content = m.renderCountdown()
	case engine.PhaseRunning:
		content = m.renderRunning()
	case engine.PhaseFinished:
		content = m.renderResults()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		if footer == "" {
			return content
		}
		return content + "\n\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderIdle() string {
	lines := []string{
		m.styles.title.Render(idleTitle),
		"",
		m.styles.pending.Render(fmt.Sprintf("Type as many sentences as you can in %d seconds.", m.duration())),
		"",
		m.styles.accent.Render("Press enter to start"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderCountdown() string {
	return strings.Join([]string{
		m.styles.pending.Render("Get ready"),
		"",
		m.styles.countdown.Render(fmt.Sprintf("%d", m.snap.CountdownRemaining)),
	}, "\n")
}

func (m *Model) renderRunning() string {
	if m.snap.SentenceLoading {
		return m.styles.pending.Render(loadingMessage)
	}
	target := []rune(m.snap.Reference)
	styled := styleReference(m.styles, target, len(m.input), m.snap.Errors)
	width := m.contentWidth()
	text := strings.Join(wrapStyledRunes(styled, width), "\n")
	if width > 0 {
		text = lipgloss.NewStyle().Width(width).Render(text)
	}
	return text + "\n\n" + m.renderInputLine(len(target))
}

// renderInputLine echoes the typed text; runes past the end of the reference are flagged.
func (m *Model) renderInputLine(refLen int) string {
	prompt := m.styles.accent.Render("> ")
	if len(m.input) <= refLen {
		return prompt + m.styles.pending.Render(string(m.input))
	}
	return prompt + m.styles.pending.Render(string(m.input[:refLen])) +
		m.styles.incorrect.Render(string(m.input[refLen:]))
}

func (m *Model) renderResults() string {
	res := m.snap.Result
	if res == nil {
		return m.styles.title.Render(resultsTitle)
	}
	lines := []string{
		m.styles.title.Render(resultsTitle),
		"",
		fmt.Sprintf("%s %s", m.styles.pending.Render("WPM:     "), m.styles.accent.Render(fmt.Sprintf("%d", res.WPM))),
		fmt.Sprintf("%s %s", m.styles.pending.Render("Words:   "), m.styles.accent.Render(fmt.Sprintf("%d", res.Words))),
		fmt.Sprintf("%s %s", m.styles.pending.Render("Accuracy:"), m.styles.accent.Render(fmt.Sprintf("%.2f%%", res.Accuracy))),
	}
	if pace := m.renderPace(); pace != "" {
		lines = append(lines, "", pace)
	}
	if m.status != "" {
		lines = append(lines, "", m.styles.incorrect.Render(m.status))
	}
	lines = append(lines, "", m.styles.footer.Render("r try again · a analysis · q quit"))
	return m.styles.panel.Render(strings.Join(lines, "\n"))
}

// renderPace draws the pace chart when the terminal is tall enough, otherwise a sparkline.
func (m *Model) renderPace() string {
	if len(m.snap.Pace) == 0 {
		return ""
	}
	if m.height > 0 && m.height < 24 {
		return m.styles.pending.Render("Pace " + stats.Sparkline(m.snap.Pace))
	}
	width := m.contentWidth()
	if width == 0 {
		width = 60
	}
	var buf bytes.Buffer
	if err := stats.RenderProgress(&buf, m.snap.Pace, 3, width-8, 6, false); err != nil {
		m.log.Warnf("failed to render pace chart: %v", err)
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) renderFooter() string {
	var segments []string
	switch m.snap.Phase {
	case engine.PhaseRunning:
		segments = append(segments,
			fmt.Sprintf("Words: %d", m.snap.TotalWords+m.snap.CompletedWords),
			fmt.Sprintf("Time Left: %ds", m.snap.TimeRemaining),
		)
		if errs := len(m.snap.Errors); errs > 0 {
			segments = append(segments, fmt.Sprintf("Errors: %d", errs))
		}
		if typed, total := runeLen(m.snap.Input), runeLen(m.snap.Reference); total > 0 && !m.snap.SentenceLoading {
			segments = append(segments, fmt.Sprintf("Progress %d%%", percent(typed, total)))
		}
	case engine.PhaseCountingDown:
		segments = append(segments, "ctrl+r restart")
	default:
		segments = append(segments, "ctrl+t theme ("+m.theme.Name+")")
	}
	return m.styles.footer.Render(strings.Join(segments, "  "))
}

func (m *Model) duration() int {
	if m.durationSecs > 0 {
		return m.durationSecs
	}
	return engine.DefaultDuration
}

func percent(part, total int) int {
	p := part * 100 / total
	if p > 100 {
		return 100
	}
	return p
}
