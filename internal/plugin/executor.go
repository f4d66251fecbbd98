package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// DefaultExecutionTimeout is the default timeout for one plugin call.
var DefaultExecutionTimeout = 2 * time.Minute

// requestID is used to generate unique JSON-RPC request IDs.
var requestID atomic.Int64

// Executor runs a plugin binary once per call: one JSON-RPC request on
// stdin, one response on stdout.
type Executor struct {
	plugin *Plugin
	logger *log.Logger
}

var _ checker.Oracle = (*Executor)(nil)

// NewExecutor creates a new plugin executor.
func NewExecutor(plugin *Plugin, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Executor{plugin: plugin, logger: logger}
}

// Resolve asks the plugin for the state of keys.
func (e *Executor) Resolve(ctx context.Context, keys []string) (map[string]checker.TicketState, error) {
	if len(keys) > checker.MaxBatchSize {
		return nil, checker.ErrBatchTooLarge
	}
	var result ResolveResult
	if err := e.Execute(ctx, "resolve", ResolveParams{Keys: keys}, &result); err != nil {
		return nil, err
	}

	out := make(map[string]checker.TicketState, len(result.Tickets))
	for key, state := range result.Tickets {
		out[strings.ToUpper(strings.TrimSpace(key))] = state
	}
	return out, nil
}

// Info retrieves information about the plugin.
func (e *Executor) Info(ctx context.Context) (*InfoResult, error) {
	var result InfoResult
	if err := e.Execute(ctx, "info", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Execute executes a JSON-RPC method on the plugin.
func (e *Executor) Execute(ctx context.Context, method string, params any, result any) error {
	ctx, cancel := context.WithTimeout(ctx, e.plugin.GetTimeout(DefaultExecutionTimeout))
	defer cancel()

	req := Request{
		JSONRPC: "2.0",
		ID:      int(requestID.Add(1)),
		Method:  method,
		Params:  params,
	}
	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	// Started without context; cancellation is handled by killProcess.
	cmd := exec.Command(e.plugin.Command, e.plugin.Args...)
	cmd.Dir = e.plugin.WorkDir
	cmd.Env = e.envVars()
	// Orphaned grandchildren must not keep Wait blocked on the stderr copy.
	cmd.WaitDelay = time.Second

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting plugin %s: %w", e.plugin, err)
	}

	// Read stdout before Wait, Wait closes the pipe.
	type readResult struct {
		data []byte
		err  error
	}
	readCh := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(stdout)
		readCh <- readResult{data, err}
	}()

	if _, err := stdin.Write(append(reqData, '\n')); err != nil {
		e.killProcess(cmd)
		return fmt.Errorf("writing request to plugin: %w", err)
	}
	if err := stdin.Close(); err != nil {
		e.killProcess(cmd)
		return fmt.Errorf("closing stdin: %w", err)
	}

	var respData []byte
	select {
	case <-ctx.Done():
		e.killProcess(cmd)
		return fmt.Errorf("plugin %s cancelled: %w", e.plugin, ctx.Err())
	case r := <-readCh:
		if r.err != nil {
			e.killProcess(cmd)
			return fmt.Errorf("reading response from plugin: %w", r.err)
		}
		respData = r.data
	}

	if err := cmd.Wait(); err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return fmt.Errorf("plugin %s failed: %w\nstderr: %s", e.plugin, err, s)
		}
		return fmt.Errorf("plugin %s failed: %w", e.plugin, err)
	}
	e.logger.Debug("plugin call", "plugin", e.plugin.String(), "method", method, "elapsed", time.Since(start))

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("plugin error (code %d): %w", resp.Error.Code, resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("unmarshaling result: %w", err)
		}
	}
	return nil
}

// envVars returns the process environment plus TODOCHECK_PLUGIN_* values.
func (e *Executor) envVars() []string {
	env := os.Environ()
	for key, value := range e.plugin.Config {
		env = append(env, "TODOCHECK_PLUGIN_"+toEnvKey(key)+"="+toString(value))
	}
	if e.plugin.Name != "" {
		env = append(env, "TODOCHECK_PLUGIN_NAME="+e.plugin.Name)
	}
	return env
}

// toEnvKey converts a config key to an environment variable key.
// e.g. "base_url" -> "BASE_URL", "api-token" -> "API_TOKEN"
func toEnvKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			if s := b.String(); s != "" && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return b.String()
}

// toString converts a config value to its environment representation.
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case []string:
		return strings.Join(val, ",")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, toString(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// killProcess terminates a plugin process, SIGTERM first and SIGKILL after
// a grace period.
func (e *Executor) killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}
}
