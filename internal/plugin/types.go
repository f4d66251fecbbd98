// Package plugin speaks JSON-RPC 2.0 over stdin/stdout in both directions:
// the Executor runs external ticket oracles, the Server exposes the checker
// to a host analysis tool.
package plugin

import (
	"encoding/json"
	"time"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeOracleError    = -32000
	CodeConfigError    = -32001
)

// Plugin describes an external oracle binary.
type Plugin struct {
	// Name is used in logs and passed to the binary as TODOCHECK_PLUGIN_NAME.
	Name string

	// Command is the executable, looked up in PATH when not a path.
	Command string

	// Args are passed to Command.
	Args []string

	// WorkDir is the working directory; "" means the current directory.
	WorkDir string

	// Config values are passed as TODOCHECK_PLUGIN_<KEY> environment variables.
	Config map[string]any

	// Timeout bounds a single call; zero means DefaultExecutionTimeout.
	Timeout time.Duration
}

// GetTimeout returns the call timeout, or def when unset.
func (p *Plugin) GetTimeout(def time.Duration) time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return def
}

// String returns the plugin name, or the command when unnamed.
func (p *Plugin) String() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Command
}

// Request represents a JSON-RPC request to a plugin.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response represents a JSON-RPC response from a plugin.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError represents a JSON-RPC error.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return e.Message
}

// ResolveParams are the parameters of the "resolve" method.
type ResolveParams struct {
	Keys []string `json:"keys"`
}

// ResolveResult is the result of the "resolve" method. Unknown keys are
// absent from Tickets.
type ResolveResult struct {
	Tickets map[string]checker.TicketState `json:"tickets"`
}

// CheckParams are the parameters of the host "check" method.
type CheckParams struct {
	Path  string   `json:"path,omitempty"`
	Lines []string `json:"lines"`
}

// CheckResult is the result of the host "check" method.
type CheckResult struct {
	Path        string               `json:"path,omitempty"`
	Diagnostics []checker.Diagnostic `json:"diagnostics"`
}

// InfoResult describes a plugin or the checker itself.
type InfoResult struct {
	Name    string   `json:"name"`
	Version string   `json:"version,omitempty"`
	Methods []string `json:"methods,omitempty"`
	Codes   []Code   `json:"codes,omitempty"`
}

// Code describes one diagnostic code in an InfoResult.
type Code struct {
	Code        checker.Code `json:"code"`
	Description string       `json:"description"`
}
