// Package tui provides the Bubble Tea typing test view.
package tui

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/logger"
	"github.com/verte-zerg/speedtype/internal/model"
)

const saveTimeout = 2 * time.Second

// Runner is the session engine the view drives.
type Runner interface {
	Start() engine.Snapshot
	SetInput(value string) (engine.Snapshot, error)
	Reset() (engine.Snapshot, error)
	Snapshot() engine.Snapshot
	Subscribe(buffer int) <-chan engine.Snapshot
}

// ResultSaver persists the result handed to the analysis view.
type ResultSaver interface {
	Save(ctx context.Context, res model.Result) error
}

// Options configures the view.
type Options struct {
	Duration int
	Theme    string
	Sound    bool
	Bell     io.Writer
	Logger   *logger.Logger
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	runner  Runner
	saver   ResultSaver
	log     *logger.Logger
	updates <-chan engine.Snapshot

	theme  Theme
	styles styles
	sound  bool
	bell   io.Writer

	width        int
	height       int
	durationSecs int

	snap  engine.Snapshot
	input []rune

	status       string
	wantAnalysis bool
}

type snapshotMsg engine.Snapshot

type updatesClosedMsg struct{}

// NewModel constructs the typing view over runner. saver may be nil, in which case the
// analysis key is disabled.
func NewModel(runner Runner, saver ResultSaver, opts Options) *Model {
	theme := ThemeByName(opts.Theme)
	m := &Model{
		runner:  runner,
		saver:   saver,
		log:     opts.Logger,
		updates: runner.Subscribe(4),
		theme:   theme,
		styles:  newStyles(theme),
		sound:   opts.Sound,
		bell:    opts.Bell,

		durationSecs: opts.Duration,
	}
	m.apply(runner.Snapshot())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

// WantsAnalysis reports whether the user asked for the analysis view on exit.
func (m *Model) WantsAnalysis() bool {
	return m.wantAnalysis
}

// Theme returns the active theme.
func (m *Model) Theme() Theme {
	return m.theme
}

func waitForSnapshot(ch <-chan engine.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case snapshotMsg:
		m.apply(engine.Snapshot(msg))
		return m, waitForSnapshot(m.updates)
	case updatesClosedMsg:
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

// apply installs snap unless a newer one is already shown.
func (m *Model) apply(snap engine.Snapshot) {
	if snap.Revision < m.snap.Revision {
		return
	}
	m.snap = snap
	m.input = []rune(snap.Input)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyCtrlT:
		m.theme = m.theme.Toggle()
		m.styles = newStyles(m.theme)
		return m, nil
	case tea.KeyCtrlR:
		m.start()
		return m, nil
	}

	switch m.snap.Phase {
	case engine.PhaseIdle:
		switch msg.Type {
		case tea.KeyEnter, tea.KeySpace:
			m.start()
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyRunes:
			if string(msg.Runes) == "q" {
				return m, tea.Quit
			}
		}
		return m, nil
	case engine.PhaseRunning:
		return m, m.handleTyping(msg)
	case engine.PhaseFinished:
		return m.handleFinishedKey(msg)
	default:
		if msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		return m, nil
	}
}

func (m *Model) start() {
	m.status = ""
	m.apply(m.runner.Start())
}

func (m *Model) handleTyping(msg tea.KeyMsg) tea.Cmd {
	next := append([]rune(nil), m.input...)
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		if len(next) == 0 {
			return nil
		}
		next = next[:len(next)-1]
	case tea.KeyCtrlW:
		next = deleteLastWord(next)
	case tea.KeySpace:
		next = append(next, ' ')
	case tea.KeyRunes:
		next = append(next, msg.Runes...)
	case tea.KeyEsc:
		return tea.Quit
	default:
		return nil
	}

	wrong := m.mistyped(next)
	snap, err := m.runner.SetInput(string(next))
	if err != nil {
		if !errors.Is(err, engine.ErrInputDisabled) && !errors.Is(err, engine.ErrInvalidPhase) {
			m.log.Warnf("input rejected: %v", err)
		}
		m.apply(snap)
		return nil
	}
	m.apply(snap)
	if wrong && m.sound {
		return m.ringBell()
	}
	return nil
}

// mistyped reports whether next adds a rune that does not match the reference.
func (m *Model) mistyped(next []rune) bool {
	if len(next) <= len(m.input) {
		return false
	}
	ref := []rune(m.snap.Reference)
	for i := len(m.input); i < len(next); i++ {
		if i >= len(ref) || next[i] != ref[i] {
			return true
		}
	}
	return false
}

func (m *Model) ringBell() tea.Cmd {
	w := m.bell
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, err := io.WriteString(w, "\a"); err != nil {
			// Best-effort audio feedback.
			_ = err
		}
		return nil
	}
}

func (m *Model) handleFinishedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		m.start()
		return m, nil
	case tea.KeyRunes:
	default:
		return m, nil
	}
	switch string(msg.Runes) {
	case "r":
		m.start()
	case "q":
		return m, tea.Quit
	case "a":
		if m.exportResult() {
			m.wantAnalysis = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// exportResult writes the finished result to the slot read by the analysis view.
func (m *Model) exportResult() bool {
	if m.saver == nil {
		m.status = "Analysis is not available: no result store configured."
		return false
	}
	if m.snap.Result == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := m.saver.Save(ctx, *m.snap.Result); err != nil {
		m.log.Errorf("failed to save result: %v", err)
		m.status = "Could not save result: " + err.Error()
		return false
	}
	m.log.Infof("result saved: %d wpm, %.2f%% accuracy", m.snap.Result.WPM, m.snap.Result.Accuracy)
	return true
}

func deleteLastWord(runes []rune) []rune {
	i := len(runes)
	for i > 0 && runes[i-1] == ' ' {
		i--
	}
	for i > 0 && runes[i-1] != ' ' {
		i--
	}
	return runes[:i]
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
