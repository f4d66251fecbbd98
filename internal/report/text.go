package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// TextFormatter prints one "path:line:col: message" line per diagnostic,
// the layout compilers and flake8 use. Columns are shown 1-based.
type TextFormatter struct {
	// Color enables styling. Styles only show when w is a terminal.
	Color bool
}

// Format implements Formatter.
func (t *TextFormatter) Format(w io.Writer, r *Report) error {
	st := newTextStyles(w, t.Color)
	for _, f := range sorted(r.Files) {
		for _, d := range f.Diagnostics {
			if _, err := fmt.Fprintf(w, "%s:%d:%d: %s\n",
				st.renderPath(f.Path), d.Line, d.Column+1, st.message(d)); err != nil {
				return err
			}
		}
	}
	return nil
}

type textStyles struct {
	enabled bool
	path    lipgloss.Style
	codes   map[checker.Code]lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	if !color {
		return textStyles{}
	}
	re := lipgloss.NewRenderer(w)
	return textStyles{
		enabled: true,
		path:    re.NewStyle().Bold(true),
		codes: map[checker.Code]lipgloss.Style{
			checker.CodeMissingTicket:    re.NewStyle().Foreground(lipgloss.Color("3")),
			checker.CodeUnknownTicket:    re.NewStyle().Foreground(lipgloss.Color("1")),
			checker.CodeTicketState:      re.NewStyle().Foreground(lipgloss.Color("5")),
			checker.CodeDisallowedMarker: re.NewStyle().Foreground(lipgloss.Color("6")),
		},
	}
}

func (s textStyles) renderPath(p string) string {
	if !s.enabled {
		return p
	}
	return s.path.Render(p)
}

// message styles the code prefix of d's message.
func (s textStyles) message(d checker.Diagnostic) string {
	style, ok := s.codes[d.Code]
	code := string(d.Code)
	if !ok || len(d.Message) < len(code) || d.Message[:len(code)] != code {
		return d.Message
	}
	return style.Render(code) + d.Message[len(code):]
}

// Summary writes a one-line count of findings, e.g. for stderr.
func Summary(w io.Writer, r *Report) error {
	total := r.Total()
	switch total {
	case 0:
		_, err := fmt.Fprintf(w, "No findings in %d file(s).\n", len(r.Files))
		return err
	default:
		_, err := fmt.Fprintf(w, "%d finding(s) in %d of %d file(s).\n", total, r.FilesWithFindings(), len(r.Files))
		return err
	}
}
