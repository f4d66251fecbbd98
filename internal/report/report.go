// Package report renders check results as text, JSON or GitHub workflow
// annotations.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// FileResult holds the diagnostics for one file. Err is set when the file
// could not be read or verified; Diagnostics then holds what was found
// before the failure.
type FileResult struct {
	Path        string
	Diagnostics []checker.Diagnostic
	Err         error
}

// Report is the outcome of one run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Files    []FileResult
}

// New starts a report with a fresh run ID.
func New() *Report {
	return &Report{RunID: uuid.NewString(), Started: time.Now()}
}

// Add appends a file result.
func (r *Report) Add(fr FileResult) {
	r.Files = append(r.Files, fr)
}

// Finish records the run duration.
func (r *Report) Finish() {
	r.Duration = time.Since(r.Started)
}

// Total returns the number of diagnostics.
func (r *Report) Total() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Diagnostics)
	}
	return n
}

// Counts returns the number of diagnostics per code. Every code is present.
func (r *Report) Counts() map[checker.Code]int {
	counts := make(map[checker.Code]int, len(checker.Codes))
	for _, c := range checker.Codes {
		counts[c] = 0
	}
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			counts[d.Code]++
		}
	}
	return counts
}

// Failed returns the files that could not be checked.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// FilesWithFindings returns how many files have at least one diagnostic.
func (r *Report) FilesWithFindings() int {
	n := 0
	for _, f := range r.Files {
		if len(f.Diagnostics) > 0 {
			n++
		}
	}
	return n
}

// Formatter renders a report.
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// Formats lists the supported format names.
var Formats = []string{"text", "json", "github"}

// NewFormatter returns the formatter for name. color only affects text.
func NewFormatter(name string, color bool) (Formatter, error) {
	switch name {
	case "text", "":
		return &TextFormatter{Color: color}, nil
	case "json":
		return JSONFormatter{}, nil
	case "github":
		return GitHubFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want one of %v)", name, Formats)
}

// WriteFile renders r into path atomically, so readers never see a partial
// report.
func WriteFile(path string, f Formatter, r *Report) error {
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// sorted returns the files ordered by path, keeping the order of
// diagnostics within a file.
func sorted(files []FileResult) []FileResult {
	out := slices.Clone(files)
	slices.SortStableFunc(out, func(a, b FileResult) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return out
}
