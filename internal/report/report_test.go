package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibzard/todocheck-go/internal/checker"
)

func sampleReport() *Report {
	r := New()
	r.Started = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.Duration = 1500 * time.Millisecond
	r.Add(FileResult{
		Path: "src/b.py",
		Diagnostics: []checker.Diagnostic{
			{Line: 3, Column: 2, Code: checker.CodeMissingTicket, Message: "JIR001 TODO with missing or malformed JIRA card: TODO fix"},
		},
	})
	r.Add(FileResult{
		Path: "src/a.py",
		Diagnostics: []checker.Diagnostic{
			{Line: 1, Column: 0, Code: checker.CodeDisallowedMarker, Message: "JIR004 Invalid word used instead of TODO: FIXME, later"},
			{Line: 7, Column: 10, Code: checker.CodeTicketState, Message: "JIR003 TODO with JIRA card in invalid state (Status=Done): TODO ABC-1"},
		},
	})
	r.Add(FileResult{Path: "src/c.py"})
	return r
}

func TestReportCounts(t *testing.T) {
	r := sampleReport()

	assert.Equal(t, 3, r.Total())
	assert.Equal(t, 2, r.FilesWithFindings())
	assert.Equal(t, map[checker.Code]int{
		checker.CodeMissingTicket:    1,
		checker.CodeUnknownTicket:    0,
		checker.CodeTicketState:      1,
		checker.CodeDisallowedMarker: 1,
	}, r.Counts())
	assert.Empty(t, r.Failed())
	assert.NotEmpty(t, r.RunID)
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Format(&buf, sampleReport()))

	want := "src/a.py:1:1: JIR004 Invalid word used instead of TODO: FIXME, later\n" +
		"src/a.py:7:11: JIR003 TODO with JIRA card in invalid state (Status=Done): TODO ABC-1\n" +
		"src/b.py:3:3: JIR001 TODO with missing or malformed JIRA card: TODO fix\n"
	assert.Equal(t, want, buf.String())
}

func TestTextFormatterColorOffTerminal(t *testing.T) {
	// A buffer is not a terminal, so no escape codes are written.
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{Color: true}).Format(&buf, sampleReport()))
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "src/b.py:3:3: JIR001")
}

func TestJSONFormatter(t *testing.T) {
	r := sampleReport()
	r.Files[2].Err = errors.New("permission denied")

	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Format(&buf, r))

	var got struct {
		RunID      string         `json:"run_id"`
		StartedAt  string         `json:"started_at"`
		DurationMS int64          `json:"duration_ms"`
		Total      int            `json:"total"`
		Counts     map[string]int `json:"counts"`
		Files      []struct {
			Path        string               `json:"path"`
			Diagnostics []checker.Diagnostic `json:"diagnostics"`
			Error       string               `json:"error"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, "2026-01-02T03:04:05Z", got.StartedAt)
	assert.Equal(t, int64(1500), got.DurationMS)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Counts["JIR004"])
	assert.Equal(t, 0, got.Counts["JIR002"])
	require.Len(t, got.Files, 3)
	assert.Equal(t, "src/a.py", got.Files[0].Path)
	assert.Equal(t, 10, got.Files[0].Diagnostics[1].Column)
	assert.Equal(t, "src/c.py", got.Files[2].Path)
	assert.NotNil(t, got.Files[2].Diagnostics)
	assert.Equal(t, "permission denied", got.Files[2].Error)
	assert.Contains(t, buf.String(), `"diagnostics": []`)
}

func TestGitHubFormatter(t *testing.T) {
	r := New()
	r.Add(FileResult{
		Path: "dir,odd:name.go",
		Diagnostics: []checker.Diagnostic{
			{Line: 2, Column: 4, Code: checker.CodeUnknownTicket, Message: "JIR002 TODO with invalid JIRA card: TODO ABC-9 100%"},
		},
	})
	r.Add(FileResult{Path: "broken.go", Err: errors.New("read failed\nbadly")})

	var buf bytes.Buffer
	require.NoError(t, GitHubFormatter{}.Format(&buf, r))

	want := "::error file=broken.go::read failed%0Abadly\n" +
		"::warning file=dir%2Codd%3Aname.go,line=2,col=5,title=JIR002::JIR002 TODO with invalid JIRA card: TODO ABC-9 100%25\n"
	assert.Equal(t, want, buf.String())
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats {
		f, err := NewFormatter(name, false)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := NewFormatter("xml", false)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteFile(path, JSONFormatter{}, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleReport()))
	assert.Equal(t, "3 finding(s) in 2 of 3 file(s).\n", buf.String())

	buf.Reset()
	require.NoError(t, Summary(&buf, New()))
	assert.Equal(t, "No findings in 0 file(s).\n", buf.String())
}
