package todo

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrNoAllowedMarkers is returned by Build when the vocabulary has no
// allowed marker words.
var ErrNoAllowedMarkers = errors.New("at least one allowed todo synonym is required")

// Vocabulary is the set of marker words recognized as TODOs.
// Comparisons are case-insensitive.
type Vocabulary struct {
	// Allowed are the sanctioned marker words, e.g. TODO.
	Allowed []string
	// Disallowed are recognized synonyms that are reported, e.g. FIXME.
	Disallowed []string
}

// IsAllowed reports whether word is one of the allowed markers.
func (v Vocabulary) IsAllowed(word string) bool {
	for _, w := range v.Allowed {
		if strings.EqualFold(strings.TrimSpace(w), word) {
			return true
		}
	}
	return false
}

// words returns the combined vocabulary without blanks or case-insensitive
// duplicates, longest first so a shorter word never shadows a longer one.
func (v Vocabulary) words() []string {
	return uniqueLongestFirst(append(append([]string{}, v.Allowed...), v.Disallowed...))
}

func uniqueLongestFirst(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

// Pattern is a compiled marker/ticket recognizer. It is safe for concurrent
// use.
type Pattern struct {
	re             *regexp.Regexp
	capturesTicket bool
}

// Submatch is one raw occurrence found by a Pattern.
type Submatch struct {
	// Marker is the marker word as written in the line.
	Marker string
	// Ticket is the raw ticket text including the leading whitespace,
	// or "" when no reference was captured.
	Ticket string
	// Start and End are the byte offsets of the marker word in the line.
	Start, End int
}

// Match is one recognized marker occurrence on a source line.
type Match struct {
	Marker     string
	Ticket     string // normalized (trimmed, upper-case); "" when absent
	Line       string
	LineNumber int // 1-based
	Column     int // 0-based, in runes
}

// Build compiles the pattern for the given vocabulary and project prefixes.
func Build(vocab Vocabulary, projectIDs []string) (*Pattern, error) {
	if len(uniqueLongestFirst(vocab.Allowed)) == 0 {
		return nil, ErrNoAllowedMarkers
	}

	var b strings.Builder
	b.WriteString(`(?i)(`)
	b.WriteString(alternation(vocab.words()))
	b.WriteString(`)`)

	projects := uniqueLongestFirst(projectIDs)
	if len(projects) > 0 {
		// The ticket branch is tried first; its digits must not be followed by
		// a letter or digit, otherwise the marker-only branch applies.
		b.WriteString(`(?:(\s(?:`)
		b.WriteString(alternation(projects))
		b.WriteString(`)-\d+)(?:[^\p{L}\d]|$)|(?:\P{L}|$))`)
	} else {
		b.WriteString(`(?:\P{L}|$)`)
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile todo pattern: %w", err)
	}
	return &Pattern{re: re, capturesTicket: len(projects) > 0}, nil
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// String returns the source of the compiled expression.
func (p *Pattern) String() string {
	return p.re.String()
}

// CapturesTickets reports whether the pattern tries to capture ticket
// references at all.
func (p *Pattern) CapturesTickets() bool {
	return p.capturesTicket
}

// FindAll returns every occurrence in line, left to right.
func (p *Pattern) FindAll(line string) []Submatch {
	var out []Submatch
	pos := 0
	for pos <= len(line) {
		loc := p.re.FindStringSubmatchIndex(line[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]

		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(line[:start])
			if unicode.IsLetter(prev) {
				_, size := utf8.DecodeRuneInString(line[start:])
				pos = start + size
				continue
			}
		}

		sm := Submatch{Marker: line[start:end], Start: start, End: end}
		next := end
		if p.capturesTicket && loc[4] >= 0 {
			sm.Ticket = line[pos+loc[4] : pos+loc[5]]
			next = pos + loc[5]
		}
		out = append(out, sm)
		pos = next
	}
	return out
}

// Matches returns the occurrences in line as Match records.
func (p *Pattern) Matches(line string, lineNumber int) []Match {
	subs := p.FindAll(line)
	if len(subs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(subs))
	for _, sm := range subs {
		out = append(out, Match{
			Marker:     sm.Marker,
			Ticket:     NormalizeTicket(sm.Ticket),
			Line:       line,
			LineNumber: lineNumber,
			Column:     utf8.RuneCountInString(line[:sm.Start]),
		})
	}
	return out
}

// NormalizeTicket trims and upper-cases a raw ticket reference.
func NormalizeTicket(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
