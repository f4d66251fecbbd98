package checker

import (
	"strings"
	"unicode"

	"github.com/nibzard/todocheck-go/internal/todo"
)

// Code identifies a kind of finding.
type Code string

const (
	CodeMissingTicket    Code = "JIR001"
	CodeUnknownTicket    Code = "JIR002"
	CodeTicketState      Code = "JIR003"
	CodeDisallowedMarker Code = "JIR004"
)

// Codes lists all codes in order.
var Codes = []Code{CodeMissingTicket, CodeUnknownTicket, CodeTicketState, CodeDisallowedMarker}

// Description returns the fixed description of the code.
func (c Code) Description() string {
	switch c {
	case CodeMissingTicket:
		return "TODO with missing or malformed JIRA card"
	case CodeUnknownTicket:
		return "TODO with invalid JIRA card"
	case CodeTicketState:
		return "TODO with JIRA card in invalid state"
	case CodeDisallowedMarker:
		return "Invalid word used instead of TODO"
	default:
		return "unknown"
	}
}

// maxExcerptLength bounds the source excerpt embedded in messages.
const maxExcerptLength = 60

// Diagnostic is one finding on a source line.
type Diagnostic struct {
	Line    int    `json:"line"`   // 1-based
	Column  int    `json:"column"` // 0-based, in runes
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func newDiagnostic(code Code, m todo.Match, extra string) Diagnostic {
	return Diagnostic{
		Line:    m.LineNumber,
		Column:  m.Column,
		Code:    code,
		Message: formatMessage(code, m, extra),
	}
}

func formatMessage(code Code, m todo.Match, extra string) string {
	var b strings.Builder
	b.WriteString(string(code))
	b.WriteByte(' ')
	b.WriteString(code.Description())
	if extra != "" {
		b.WriteString(" (")
		b.WriteString(extra)
		b.WriteByte(')')
	}
	b.WriteString(": ")
	b.WriteString(excerpt(m.Line, m.Column))
	return b.String()
}

// excerpt returns the right-trimmed line from column on, cut at
// maxExcerptLength runes with a trailing "..." when cut.
func excerpt(line string, column int) string {
	runes := []rune(strings.TrimRightFunc(line, unicode.IsSpace))
	if column > len(runes) {
		column = len(runes)
	}
	end := column + maxExcerptLength
	if end < len(runes) {
		return string(runes[column:end]) + "..."
	}
	return string(runes[column:])
}
