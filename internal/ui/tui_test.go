package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/todocheck-go/internal/checker"
	"github.com/nibzard/todocheck-go/internal/report"
)

func testReport() *report.Report {
	r := report.New()
	r.Add(report.FileResult{Path: "a.go", Diagnostics: []checker.Diagnostic{
		{Line: 1, Column: 3, Code: checker.CodeMissingTicket, Message: "JIR001 TODO with missing or malformed JIRA card: TODO"},
		{Line: 4, Column: 0, Code: checker.CodeDisallowedMarker, Message: "JIR004 Invalid word used instead of TODO: FIXME"},
	}})
	r.Add(report.FileResult{Path: "b.go", Diagnostics: []checker.Diagnostic{
		{Line: 9, Column: 2, Code: checker.CodeMissingTicket, Message: "JIR001 TODO with missing or malformed JIRA card: TODO later"},
	}})
	return r
}

func loadedModel(t *testing.T) *tuiModel {
	t.Helper()
	m := newTUIModel(context.Background(), func(context.Context) (*report.Report, error) {
		return testReport(), nil
	}, 0)
	msg := m.loadCmd()()
	m.Update(msg)
	return m
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTUIModelLoads(t *testing.T) {
	m := loadedModel(t)
	if len(m.rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(m.rows))
	}
	view := m.View()
	for _, want := range []string{"Findings: 3", "JIR001: 2", "a.go:1:4", "b.go:9:3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTUIModelFilter(t *testing.T) {
	m := loadedModel(t)

	m.Update(keyPress("4"))
	if m.filter != checker.CodeDisallowedMarker || len(m.rows) != 1 {
		t.Fatalf("filter 4: got %s with %d rows", m.filter, len(m.rows))
	}
	if !strings.Contains(m.View(), "Filter: JIR004") {
		t.Error("view should show the filter")
	}

	m.Update(keyPress("0"))
	if m.filter != "" || len(m.rows) != 3 {
		t.Errorf("clear filter: got %q with %d rows", m.filter, len(m.rows))
	}
}

func TestTUIModelCursor(t *testing.T) {
	m := loadedModel(t)

	m.Update(keyPress("j"))
	m.Update(keyPress("j"))
	m.Update(keyPress("j"))
	if m.cursor != 2 {
		t.Errorf("cursor should stop at last row, got %d", m.cursor)
	}
	if !strings.Contains(m.View(), "TODO later") {
		t.Error("selected message not shown")
	}
	m.Update(keyPress("g"))
	if m.cursor != 0 {
		t.Errorf("g should go to first row, got %d", m.cursor)
	}

	// Filtering down to fewer rows clamps the cursor.
	m.Update(keyPress("G"))
	m.Update(keyPress("4"))
	if m.cursor != 0 {
		t.Errorf("cursor not clamped: %d", m.cursor)
	}
}

func TestTUIModelLoadError(t *testing.T) {
	m := newTUIModel(context.Background(), func(context.Context) (*report.Report, error) {
		return nil, errors.New("jira unreachable")
	}, 0)
	m.Update(m.loadCmd()())

	view := m.View()
	if !strings.Contains(view, "jira unreachable") {
		t.Errorf("view should show the error:\n%s", view)
	}
}

func TestTUIModelQuit(t *testing.T) {
	m := loadedModel(t)
	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}
