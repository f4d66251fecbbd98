package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// incoming is a request read by the Server. IDs are echoed verbatim, so
// string and numeric IDs both work.
type incoming struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type outgoing struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// Server answers host requests: "info" describes the checker and "check"
// classifies the lines of one file.
type Server struct {
	name       string
	version    string
	newChecker func() (*checker.Checker, error)
	logger     *log.Logger

	checker *checker.Checker
	initErr error
	built   bool
}

// NewServer creates a server. newChecker is called once, on the first
// "check" request; its error is reported on every check.
func NewServer(name, version string, newChecker func() (*checker.Checker, error), logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{name: name, version: version, newChecker: newChecker, logger: logger}
}

// Serve reads requests from r until EOF and writes one response per request
// to w. It returns early only on write errors or cancellation.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req incoming
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// The stream cannot be resynchronized after a syntax error.
			_ = enc.Encode(outgoing{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: &ResponseError{
				Code: CodeParseError, Message: err.Error(),
			}})
			return fmt.Errorf("decode request: %w", err)
		}

		resp := s.handle(ctx, req)
		if len(req.ID) == 0 {
			continue // notification
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

func (s *Server) handle(ctx context.Context, req incoming) outgoing {
	resp := outgoing{JSONRPC: "2.0", ID: req.ID}
	s.logger.Debug("host request", "method", req.Method)

	switch req.Method {
	case "info":
		resp.Result = s.info()
	case "check":
		var params CheckParams
		if len(req.Params) == 0 {
			resp.Error = &ResponseError{Code: CodeInvalidParams, Message: "missing params"}
			break
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &ResponseError{Code: CodeInvalidParams, Message: err.Error()}
			break
		}
		result, rpcErr := s.check(ctx, params)
		if rpcErr != nil {
			resp.Error = rpcErr
			break
		}
		resp.Result = result
	default:
		resp.Error = &ResponseError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
	return resp
}

func (s *Server) info() InfoResult {
	info := InfoResult{
		Name:    s.name,
		Version: s.version,
		Methods: []string{"info", "check"},
	}
	for _, c := range checker.Codes {
		info.Codes = append(info.Codes, Code{Code: c, Description: c.Description()})
	}
	return info
}

func (s *Server) check(ctx context.Context, params CheckParams) (*CheckResult, *ResponseError) {
	if !s.built {
		s.checker, s.initErr = s.newChecker()
		s.built = true
	}
	if s.initErr != nil {
		return nil, &ResponseError{Code: CodeConfigError, Message: s.initErr.Error()}
	}

	diags, err := s.checker.CheckLines(ctx, params.Lines)
	if err != nil {
		code := CodeOracleError
		if errors.Is(err, checker.ErrConfig) {
			code = CodeConfigError
		}
		s.logger.Error("check failed", "path", params.Path, "err", err)
		return nil, &ResponseError{Code: code, Message: err.Error()}
	}
	if diags == nil {
		diags = []checker.Diagnostic{}
	}
	return &CheckResult{Path: params.Path, Diagnostics: diags}, nil
}
