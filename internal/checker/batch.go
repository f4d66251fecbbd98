package checker

import (
	"context"
	"fmt"

	"github.com/nibzard/todocheck-go/internal/todo"
)

// Batch collects matches whose tickets still need to be resolved. It holds at
// most max distinct tickets; several matches may share one ticket.
//
// A Batch is owned by a single check run and is not safe for concurrent use.
type Batch struct {
	max     int
	pending []todo.Match
	keys    []string
	seen    map[string]struct{}
}

// NewBatch returns an empty batch bounded to max distinct tickets.
// Values outside 1..MaxBatchSize are clamped to MaxBatchSize.
func NewBatch(max int) *Batch {
	if max <= 0 || max > MaxBatchSize {
		max = MaxBatchSize
	}
	return &Batch{max: max, seen: make(map[string]struct{})}
}

// Add queues a match with a normalized ticket reference.
func (b *Batch) Add(m todo.Match) error {
	if m.Ticket == "" {
		return fmt.Errorf("queue match on line %d: no ticket reference", m.LineNumber)
	}
	if _, ok := b.seen[m.Ticket]; !ok {
		if len(b.keys) >= b.max {
			return fmt.Errorf("queue %s: %w", m.Ticket, ErrBatchTooLarge)
		}
		b.seen[m.Ticket] = struct{}{}
		b.keys = append(b.keys, m.Ticket)
	}
	b.pending = append(b.pending, m)
	return nil
}

// Full reports whether the batch holds its maximum number of tickets.
func (b *Batch) Full() bool {
	return len(b.keys) >= b.max
}

// Len returns the number of queued matches.
func (b *Batch) Len() int {
	return len(b.pending)
}

// Keys returns the distinct tickets in first-seen order.
func (b *Batch) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Flush resolves all queued tickets with one oracle call and returns the
// diagnostics for the queued matches, in the order they were added. The
// batch is empty afterwards, also on error.
func (b *Batch) Flush(ctx context.Context, oracle Oracle, policy StatePolicy) ([]Diagnostic, error) {
	if len(b.pending) == 0 {
		return nil, nil
	}
	pending, keys := b.pending, b.keys
	b.reset()

	if len(keys) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	states, err := oracle.Resolve(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("resolve %d tickets: %w", len(keys), err)
	}

	var out []Diagnostic
	for _, m := range pending {
		state, ok := states[m.Ticket]
		if !ok {
			out = append(out, newDiagnostic(CodeUnknownTicket, m, ""))
			continue
		}
		if detail := policy.Violation(state); detail != "" {
			out = append(out, newDiagnostic(CodeTicketState, m, detail))
		}
	}
	return out, nil
}

func (b *Batch) reset() {
	b.pending = nil
	b.keys = nil
	b.seen = make(map[string]struct{})
}
