package checker

import (
	"context"
	"strings"
)

// TicketState is the lifecycle state of a live ticket.
type TicketState struct {
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"` // "" while the ticket is open
}

// Oracle resolves ticket references to their current state.
//
// Resolve is called with at most MaxBatchSize distinct keys. Keys that do not
// exist are absent from the returned map.
type Oracle interface {
	Resolve(ctx context.Context, keys []string) (map[string]TicketState, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, keys []string) (map[string]TicketState, error)

// Resolve calls f.
func (f OracleFunc) Resolve(ctx context.Context, keys []string) (map[string]TicketState, error) {
	return f(ctx, keys)
}

// StatePolicy decides which ticket states are not acceptable for a TODO.
type StatePolicy struct {
	DisallowedStatuses     []string
	DisallowedResolutions  []string
	DisallowAllResolutions bool
}

// Violation returns the offending "Status=..." or "Resolution=..." detail,
// or "" when the state is acceptable. The status check wins over the
// resolution check. Names are compared case-insensitively.
func (p StatePolicy) Violation(state TicketState) string {
	if containsFold(p.DisallowedStatuses, state.Status) {
		return "Status=" + state.Status
	}
	if state.Resolution != "" &&
		(p.DisallowAllResolutions || containsFold(p.DisallowedResolutions, state.Resolution)) {
		return "Resolution=" + state.Resolution
	}
	return ""
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
