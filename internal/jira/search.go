package jira

import (
	"context"
	"net/http"
	"strings"

	"github.com/nibzard/todocheck-go/internal/checker"
)

type searchRequest struct {
	JQL           string   `json:"jql"`
	MaxResults    int      `json:"maxResults"`
	Fields        []string `json:"fields"`
	ValidateQuery string   `json:"validateQuery"`
}

type named struct {
	Name string `json:"name"`
}

type searchResponse struct {
	Issues []struct {
		Key    string `json:"key"`
		Fields struct {
			Status     *named `json:"status"`
			Resolution *named `json:"resolution"`
		} `json:"fields"`
	} `json:"issues"`
}

// searchJQL builds the query for keys. Keys are lower-cased; Jira matches
// issue keys case-insensitively.
func searchJQL(keys []string) string {
	lowered := make([]string, len(keys))
	for i, k := range keys {
		lowered[i] = strings.ToLower(k)
	}
	return "issuekey in (" + strings.Join(lowered, ",") + ")"
}

// Resolve returns the state of every existing ticket in keys. Unknown keys
// are absent from the result.
func (c *Client) Resolve(ctx context.Context, keys []string) (map[string]checker.TicketState, error) {
	if len(keys) > checker.MaxBatchSize {
		return nil, checker.ErrBatchTooLarge
	}
	out := make(map[string]checker.TicketState, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	req := searchRequest{
		JQL:        searchJQL(keys),
		MaxResults: checker.MaxBatchSize,
		Fields:     []string{"status", "resolution"},
		// "warn" keeps the query valid when some keys no longer exist.
		ValidateQuery: "warn",
	}
	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/search", req, &resp); err != nil {
		return nil, err
	}

	for _, issue := range resp.Issues {
		var state checker.TicketState
		if issue.Fields.Status != nil {
			state.Status = issue.Fields.Status.Name
		}
		if issue.Fields.Resolution != nil {
			state.Resolution = issue.Fields.Resolution.Name
		}
		out[strings.ToUpper(issue.Key)] = state
	}
	c.logger.Debug("resolved tickets", "requested", len(keys), "found", len(out))
	return out, nil
}
