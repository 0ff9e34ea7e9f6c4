// Package analysisui provides the Bubble Tea analysis interface for a stored result.
package analysisui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/logger"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/recommend"
	"github.com/verte-zerg/speedtype/internal/stats"
	"github.com/verte-zerg/speedtype/internal/store"
)

const (
	tabOverview = iota
	tabErrors
	tabTips
)

const (
	defaultLoadTimeout = 5 * time.Second
	defaultTipsTimeout = 30 * time.Second
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// ResultLoader reads the stored result.
type ResultLoader interface {
	Load(ctx context.Context) (model.Result, error)
}

// Options tune the analysis view.
type Options struct {
	Logger      *logger.Logger
	LoadTimeout time.Duration
	TipsTimeout time.Duration
}

type tipsMsg struct {
	tips []string
}

// Model implements the Bubble Tea analysis UI.
type Model struct {
	recommender recommend.Recommender
	log         *logger.Logger
	tipsTimeout time.Duration

	result    model.Result
	hasData   bool
	histogram []model.CharErrors
	tips      []string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	errTable  table.Model

	width  int
	height int
}

// NewModel reads the slot once and builds the view. A missing or unreadable result
// leaves the view in its empty state.
func NewModel(loader ResultLoader, rec recommend.Recommender, opts Options) *Model {
	m := &Model{
		recommender: rec,
		log:         opts.Logger,
		tipsTimeout: opts.TipsTimeout,
		tabs:        []string{"Overview", "Errors", "Tips"},
	}
	if m.tipsTimeout <= 0 {
		m.tipsTimeout = defaultTipsTimeout
	}
	loadTimeout := opts.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	if loader != nil {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		res, err := loader.Load(ctx)
		cancel()
		switch {
		case err == nil:
			m.result = res
			m.hasData = true
			m.histogram = recommend.ErrorHistogram(res.DetailedErrors)
		case errors.Is(err, store.ErrNoData):
			m.log.Infof("no stored result: %v", err)
		default:
			m.log.Warnf("failed to load stored result: %v", err)
		}
	}
	m.initViewports()
	m.errTable = buildErrorTable(m.histogram, 0, 1)
	m.renderTabContents()
	return m
}

// HasData reports whether a result was loaded.
func (m *Model) HasData() bool {
	return m.hasData
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if !m.hasData || m.recommender == nil {
		return nil
	}
	rec := m.recommender
	res := m.result
	histogram := m.histogram
	timeout := m.tipsTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return tipsMsg{tips: rec.Recommend(ctx, res.WPM, res.Accuracy, histogram)}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tipsMsg:
		m.tips = msg.tips
		if len(m.tips) == 0 {
			m.tips = []string{recommend.UnavailableMessage}
		}
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g", "home":
			if m.activeTab == tabErrors {
				m.errTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabErrors {
				m.errTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabErrors {
				var cmd tea.Cmd
				m.errTable, cmd = m.errTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.errTable.SetWidth(m.width)
	m.errTable.SetHeight(maxInt(1, vpHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabErrors {
		m.errTable.Focus()
	} else {
		m.errTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := "Last test: none"
	if m.hasData {
		summary = fmt.Sprintf("Last test: %d WPM  %.2f%% accuracy  %d errors", m.result.WPM, m.result.Accuracy, len(m.result.DetailedErrors))
	}
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	return headerStyle.Render("Nav: left/right/tab  Scroll: up/down/pgup/pgdn  Quit: q")
}

func (m *Model) renderBody(height int) string {
	if !m.hasData {
		return fitLines(recommend.NoDataMessage, m.width, height)
	}
	if m.activeTab == tabErrors {
		if len(m.histogram) == 0 {
			return fitLines("No errors recorded.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.errTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if !m.hasData {
		for i := range m.viewports {
			m.viewports[i].SetContent(recommend.NoDataMessage)
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.result, m.histogram, width))
	m.viewports[tabTips].SetContent(renderTips(m.tips, width))
	m.errTable.SetRows(errorRows(m.histogram))
}

func renderOverview(res model.Result, histogram []model.CharErrors, width int) string {
	top := "none"
	if len(histogram) > 0 {
		top = recommend.DisplayChar(histogram[0].Char)
	}
	cards := []string{
		metricCard("WPM", fmt.Sprintf("%d", res.WPM)),
		metricCard("Accuracy", fmt.Sprintf("%.2f%%", res.Accuracy)),
		metricCard("Errors", fmt.Sprintf("%d", len(res.DetailedErrors))),
		metricCard("Most missed", top),
	}
	var summary string
	if width < 60 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderComparison(&buf, stats.Comparisons(res), width, true); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render comparison: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderTips(tips []string, width int) string {
	if tips == nil {
		return recommend.LoadingMessage
	}
	wrap := lipgloss.NewStyle().Width(maxInt(10, width-4))
	lines := make([]string, 0, len(tips)+1)
	lines = append(lines, "Recommendations")
	for i, tip := range tips {
		lines = append(lines, wrap.Render(fmt.Sprintf("%d. %s", i+1, tip)))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildErrorTable(histogram []model.CharErrors, width, height int) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Char", Width: 8},
			{Title: "Misses", Width: 7},
			{Title: "Share", Width: 7},
		}),
		table.WithRows(errorRows(histogram)),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(errorTableStyles())
	return t
}

func errorRows(histogram []model.CharErrors) []table.Row {
	total := 0
	for _, h := range histogram {
		total += h.Count
	}
	rows := make([]table.Row, 0, len(histogram))
	for _, h := range histogram {
		share := 0.0
		if total > 0 {
			share = float64(h.Count) / float64(total) * 100
		}
		rows = append(rows, table.Row{
			recommend.DisplayChar(h.Char),
			fmt.Sprintf("%d", h.Count),
			fmt.Sprintf("%.1f%%", share),
		})
	}
	return rows
}

func errorTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
