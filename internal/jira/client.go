// Package jira resolves ticket keys against a Jira server.
//
// The Client implements checker.Oracle. Exactly one authentication mode has
// to be configured: cookie session, HTTP basic, personal access token,
// OAuth 1.0a or Kerberos.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// DefaultTimeout bounds each request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	Server string

	CookieUsername string
	CookiePassword string
	BasicUsername  string
	BasicPassword  string
	Token          string
	OAuth          OAuthOptions
	Kerberos       bool
	KerberosConfig string
	KerberosCCache string

	Timeout time.Duration
	// HTTPClient is the base client requests are sent through.
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client talks to the Jira REST API v2.
type Client struct {
	server string
	mode   AuthMode
	http   doer
	logger *log.Logger
}

var _ checker.Oracle = (*Client)(nil)

// New creates a client. Configuration problems are returned as
// *checker.ConfigError.
func New(ctx context.Context, opts Options) (*Client, error) {
	server := strings.TrimRight(strings.TrimSpace(opts.Server), "/")
	if server == "" {
		return nil, &checker.ConfigError{Field: "jira.server", Err: fmt.Errorf("server is required")}
	}
	opts.Server = server

	mode, err := opts.authMode()
	if err != nil {
		return nil, &checker.ConfigError{Field: "jira", Err: err}
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	} else {
		copied := *base
		base = &copied
	}
	if opts.Timeout > 0 {
		base.Timeout = opts.Timeout
	} else if base.Timeout == 0 {
		base.Timeout = DefaultTimeout
	}

	h, err := newDoer(ctx, mode, opts, base)
	if err != nil {
		return nil, &checker.ConfigError{Field: "jira." + string(mode), Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{server: server, mode: mode, http: h, logger: logger}, nil
}

// Mode returns the authentication mode in use.
func (c *Client) Mode() AuthMode {
	return c.mode
}

// APIError is a non-2xx response from Jira.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("jira: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, "; ")
	}
	return msg
}

type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		apiErr.Messages = append(apiErr.Messages, body.ErrorMessages...)
		for field, msg := range body.Errors {
			apiErr.Messages = append(apiErr.Messages, field+": "+msg)
		}
	}
	return apiErr
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("jira request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// User is the authenticated account.
type User struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Ping checks connectivity and credentials.
func (c *Client) Ping(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
