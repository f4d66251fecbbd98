package report

import (
	"fmt"
	"io"
	"strings"
)

// GitHubFormatter writes GitHub Actions workflow commands, which show up as
// annotations on the pull request diff.
type GitHubFormatter struct{}

// Format implements Formatter. GitHub columns are 1-based.
func (GitHubFormatter) Format(w io.Writer, r *Report) error {
	for _, f := range sorted(r.Files) {
		for _, d := range f.Diagnostics {
			if _, err := fmt.Fprintf(w, "::warning file=%s,line=%d,col=%d,title=%s::%s\n",
				escapeProperty(f.Path), d.Line, d.Column+1, escapeProperty(string(d.Code)), escapeData(d.Message)); err != nil {
				return err
			}
		}
		if f.Err != nil {
			if _, err := fmt.Fprintf(w, "::error file=%s::%s\n", escapeProperty(f.Path), escapeData(f.Err.Error())); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}
