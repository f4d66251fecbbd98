// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/nibzard/todocheck-go/internal/checker"
	"github.com/nibzard/todocheck-go/internal/report"
)

// Loader runs a check and returns its report.
type Loader func(ctx context.Context) (*report.Report, error)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	refresh time.Duration
}

// WithRefreshInterval re-runs the check periodically. Zero disables it.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		c.refresh = d
	}
}

// RunTUI starts the diagnostics browser.
func RunTUI(ctx context.Context, load Loader, opts ...TUIOption) error {
	c := &tuiConfig{}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(ctx, load, c.refresh)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(*tuiModel); ok && m.loadErr != nil && m.report == nil {
		return m.loadErr
	}
	return nil
}

// row is one diagnostic with its file.
type row struct {
	path string
	diag checker.Diagnostic
}

type tuiModel struct {
	ctx          context.Context
	load         Loader
	tickInterval time.Duration

	report  *report.Report
	loadErr error
	loading bool

	rows     []row
	filter   checker.Code // "" shows every code
	cursor   int
	offset   int
	height   int
	showHelp bool

	keys keyMap
	help help.Model
}

type tickMsg time.Time

type loadedMsg struct {
	report *report.Report
	err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func newTUIModel(ctx context.Context, load Loader, tick time.Duration) *tuiModel {
	return &tuiModel{
		ctx:          ctx,
		load:         load,
		tickInterval: tick,
		height:       24,
		keys:         defaultKeyMap,
		help:         help.New(),
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.loading = true
	cmds := []tea.Cmd{m.loadCmd()}
	if m.tickInterval > 0 {
		cmds = append(cmds, tickCmd(m.tickInterval))
	}
	return tea.Batch(cmds...)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.loadCmd()
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.move(1)
		case key.Matches(msg, m.keys.PageUp):
			m.move(-m.pageSize())
		case key.Matches(msg, m.keys.PageDown):
			m.move(m.pageSize())
		case key.Matches(msg, m.keys.Home):
			m.move(-len(m.rows))
		case key.Matches(msg, m.keys.End):
			m.move(len(m.rows))
		case key.Matches(msg, m.keys.ClearFilter):
			m.setFilter("")
		case key.Matches(msg, m.keys.Filter):
			m.setFilter(checker.Codes[msg.String()[0]-'1'])
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.help.Width = msg.Width
		m.move(0)
	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.tickInterval)}
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadCmd())
		}
		return m, tea.Batch(cmds...)
	case loadedMsg:
		m.loading = false
		m.loadErr = msg.err
		if msg.report != nil {
			m.report = msg.report
			m.applyFilter()
		}
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		m.writeHelp(&b)
		writeFooter(&b, m)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("Check failed: "+m.loadErr.Error()) + "\n\n")
	}
	if m.report == nil {
		b.WriteString("Checking...\n\n")
		writeFooter(&b, m)
		return b.String()
	}

	writeOverview(&b, m.report)
	if m.filter != "" {
		b.WriteString(fmt.Sprintf("Filter: %s %s (0 to clear)\n\n", m.filter, m.filter.Description()))
	}
	m.writeRows(&b)
	m.writeSelected(&b)
	writeFooter(&b, m)
	return b.String()
}

func (m *tuiModel) loadCmd() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		r, err := load(ctx)
		return loadedMsg{report: r, err: err}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) setFilter(code checker.Code) {
	m.filter = code
	m.applyFilter()
}

// applyFilter rebuilds the visible rows and keeps the cursor in range.
func (m *tuiModel) applyFilter() {
	m.rows = m.rows[:0]
	if m.report != nil {
		for _, f := range m.report.Files {
			for _, d := range f.Diagnostics {
				if m.filter == "" || d.Code == m.filter {
					m.rows = append(m.rows, row{path: f.Path, diag: d})
				}
			}
		}
	}
	m.move(0)
}

// pageSize is the number of list rows that fit on screen.
func (m *tuiModel) pageSize() int {
	return max(m.height-16, 3)
}

func (m *tuiModel) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.rows)-1, 0))
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
}

func writeTitle(b *strings.Builder) {
	title := "todocheck"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeOverview(b *strings.Builder, r *report.Report) {
	counts := r.Counts()
	b.WriteString(fmt.Sprintf("  Files: %d  Findings: %d  ", len(r.Files), r.Total()))
	for _, c := range checker.Codes {
		b.WriteString(fmt.Sprintf(" %s: %d", c, counts[c]))
	}
	b.WriteString("\n")
	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %d file(s) could not be checked", len(failed))) + "\n")
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeRows(b *strings.Builder) {
	if len(m.rows) == 0 {
		b.WriteString("  No findings.\n\n")
		return
	}
	end := min(m.offset+m.pageSize(), len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		line := fmt.Sprintf("  %s:%d:%d  %s", r.path, r.diag.Line, r.diag.Column+1, r.diag.Code)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(m.rows))) + "\n\n")
}

func (m *tuiModel) writeSelected(b *strings.Builder) {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.cursor]
	b.WriteString("Selected\n\n")
	b.WriteString(fmt.Sprintf("  %s line %d\n", r.path, r.diag.Line))
	b.WriteString("  " + r.diag.Message + "\n\n")
}

func (m *tuiModel) writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString(m.help.View(m.keys) + "\n\n")
	for i, c := range checker.Codes {
		b.WriteString(fmt.Sprintf("  %d  %s %s\n", i+1, c, c.Description()))
	}
	b.WriteString("\n")
}

func writeFooter(b *strings.Builder, m *tuiModel) {
	status := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.loading {
		status += " | checking..."
	} else if m.tickInterval > 0 {
		status += fmt.Sprintf(" | Refreshing every %s", m.tickInterval)
	}
	b.WriteString(status + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
