package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// JSONFormatter writes the whole report as one JSON document.
type JSONFormatter struct{}

type jsonReport struct {
	RunID      string               `json:"run_id"`
	StartedAt  time.Time            `json:"started_at"`
	DurationMS int64                `json:"duration_ms"`
	Total      int                  `json:"total"`
	Counts     map[checker.Code]int `json:"counts"`
	Files      []jsonFile           `json:"files"`
}

type jsonFile struct {
	Path        string               `json:"path"`
	Diagnostics []checker.Diagnostic `json:"diagnostics"`
	Error       string               `json:"error,omitempty"`
}

// Format implements Formatter.
func (JSONFormatter) Format(w io.Writer, r *Report) error {
	out := jsonReport{
		RunID:      r.RunID,
		StartedAt:  r.Started.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Total:      r.Total(),
		Counts:     r.Counts(),
		Files:      make([]jsonFile, 0, len(r.Files)),
	}
	for _, f := range sorted(r.Files) {
		jf := jsonFile{Path: f.Path, Diagnostics: f.Diagnostics}
		if jf.Diagnostics == nil {
			jf.Diagnostics = []checker.Diagnostic{}
		}
		if f.Err != nil {
			jf.Error = f.Err.Error()
		}
		out.Files = append(out.Files, jf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
