// Package checker classifies TODO markers in source lines and verifies their
// ticket references against an Oracle.
//
// A Checker is built once per configuration and may be shared by concurrent
// file scans; each call to Check owns its own verification batch.
package checker

import (
	"context"
	"errors"
	"io"
	"iter"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todocheck-go/internal/todo"
)

// Options configures a Checker.
type Options struct {
	Vocabulary             todo.Vocabulary
	ProjectIDs             []string
	DisallowedStatuses     []string
	DisallowedResolutions  []string
	DisallowAllResolutions bool
	// MaxBatchSize bounds the distinct tickets per oracle call. Zero means
	// MaxBatchSize.
	MaxBatchSize int
}

// DefaultOptions returns the default checker options: TODO is the only
// allowed marker, FIXME and QQ are reported, no project is allowed, Done
// tickets are rejected and any resolution is rejected.
func DefaultOptions() Options {
	return Options{
		Vocabulary: todo.Vocabulary{
			Allowed:    []string{"TODO"},
			Disallowed: []string{"FIXME", "QQ"},
		},
		DisallowedStatuses:     []string{"Done"},
		DisallowAllResolutions: true,
		MaxBatchSize:           MaxBatchSize,
	}
}

// Validate checks the options for configuration errors. All returned errors
// match ErrConfig.
func (o Options) Validate() error {
	var errs []error
	if _, err := todo.Build(o.Vocabulary, o.ProjectIDs); err != nil {
		errs = append(errs, &ConfigError{Field: "allowed_todo_synonyms", Err: err})
	}
	if o.DisallowAllResolutions && len(o.DisallowedResolutions) > 0 {
		errs = append(errs, &ConfigError{
			Field: "disallowed_jira_resolutions",
			Err:   errors.New("cannot be combined with disallow_all_jira_resolutions"),
		})
	}
	if o.MaxBatchSize < 0 || o.MaxBatchSize > MaxBatchSize {
		errs = append(errs, &ConfigError{Field: "max_batch_size", Err: ErrBatchTooLarge})
	}
	return errors.Join(errs...)
}

func (o Options) policy() StatePolicy {
	return StatePolicy{
		DisallowedStatuses:     o.DisallowedStatuses,
		DisallowedResolutions:  o.DisallowedResolutions,
		DisallowAllResolutions: o.DisallowAllResolutions,
	}
}

// Option customizes a Checker.
type Option func(*Checker)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Checker turns source lines into diagnostics.
type Checker struct {
	opts    Options
	pattern *todo.Pattern
	oracle  Oracle
	logger  *log.Logger
}

// New validates opts and compiles the marker pattern. A nil oracle disables
// ticket verification: captured tickets are accepted as they are.
func New(opts Options, oracle Oracle, options ...Option) (*Checker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	pattern, err := todo.Build(opts.Vocabulary, opts.ProjectIDs)
	if err != nil {
		return nil, &ConfigError{Field: "allowed_todo_synonyms", Err: err}
	}
	if opts.MaxBatchSize == 0 {
		opts.MaxBatchSize = MaxBatchSize
	}

	c := &Checker{
		opts:    opts,
		pattern: pattern,
		oracle:  oracle,
		logger:  log.New(io.Discard),
	}
	for _, o := range options {
		o(c)
	}
	c.logger.Debug("compiled marker pattern", "pattern", pattern.String(), "captures_tickets", pattern.CapturesTickets())
	return c, nil
}

// Check classifies lines lazily. Diagnostics come in line order, then left to
// right within a line. Diagnostics for verified tickets are emitted when their
// batch is flushed, i.e. once the batch is full or the input is exhausted.
//
// An oracle failure is yielded once as a non-nil error and ends the sequence.
func (c *Checker) Check(ctx context.Context, lines iter.Seq[string]) iter.Seq2[Diagnostic, error] {
	return func(yield func(Diagnostic, error) bool) {
		batch := NewBatch(c.opts.MaxBatchSize)
		policy := c.opts.policy()

		flush := func() bool {
			if batch.Len() == 0 {
				return true
			}
			c.logger.Debug("resolving tickets", "keys", batch.Keys())
			diags, err := batch.Flush(ctx, c.oracle, policy)
			if err != nil {
				yield(Diagnostic{}, err)
				return false
			}
			for _, d := range diags {
				if !yield(d, nil) {
					return false
				}
			}
			return true
		}

		lineNumber := 0
		for line := range lines {
			lineNumber++
			for _, m := range c.pattern.Matches(line, lineNumber) {
				if !c.opts.Vocabulary.IsAllowed(m.Marker) {
					if !yield(newDiagnostic(CodeDisallowedMarker, m, ""), nil) {
						return
					}
				}
				if m.Ticket == "" {
					if !yield(newDiagnostic(CodeMissingTicket, m, ""), nil) {
						return
					}
					continue
				}
				if c.oracle == nil {
					c.logger.Debug("no ticket oracle configured, skipping verification", "ticket", m.Ticket)
					continue
				}
				if err := batch.Add(m); err != nil {
					yield(Diagnostic{}, err)
					return
				}
				if batch.Full() && !flush() {
					return
				}
			}
		}
		flush()
	}
}

// CheckLines is Check over a slice.
func (c *Checker) CheckLines(ctx context.Context, lines []string) ([]Diagnostic, error) {
	return Collect(c.Check(ctx, slices.Values(lines)))
}

// Collect drains seq. It returns the diagnostics seen before the first error.
func Collect(seq iter.Seq2[Diagnostic, error]) ([]Diagnostic, error) {
	var out []Diagnostic
	for d, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}
