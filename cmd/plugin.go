package cmd

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/nibzard/todocheck-go/internal/checker"
	"github.com/nibzard/todocheck-go/internal/logging"
	"github.com/nibzard/todocheck-go/internal/plugin"
)

// pluginCommand serves the host protocol: JSON-RPC requests on stdin, one
// response per request on stdout, until stdin is closed. Configuration
// errors do not stop the server; they are returned on every check request.
func pluginCommand(ctx context.Context, args []string, s streams) error {
	fs := newFlagSet("plugin", "plugin [options]", s)

	cws, loadErr := loadConfig(fs, args)
	if errors.Is(loadErr, pflag.ErrHelp) {
		return nil
	}

	logger := logging.New(s.err, logging.DefaultOptions())
	if loadErr == nil {
		logger = newLogger(cws.Config, s.err)
	} else {
		logger.Warn("invalid configuration", "err", loadErr)
	}

	srv := plugin.NewServer("todocheck", Version, func() (*checker.Checker, error) {
		if loadErr != nil {
			return nil, loadErr
		}
		return newChecker(ctx, cws.Config, logger)
	}, logger.With("component", "plugin"))

	logger.Debug("serving", "protocol", "json-rpc 2.0")
	return serve(ctx, srv, s, logger)
}

func serve(ctx context.Context, srv *plugin.Server, s streams, logger *log.Logger) error {
	if err := srv.Serve(ctx, s.in, s.out); err != nil {
		logger.Error("plugin server stopped", "err", err)
		return err
	}
	return nil
}
