package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/nibzard/todocheck-go/internal/logging"
	"github.com/nibzard/todocheck-go/internal/parallel"
	"github.com/nibzard/todocheck-go/internal/report"
	"github.com/nibzard/todocheck-go/internal/scan"
	"github.com/nibzard/todocheck-go/internal/ui"
)

// tuiCommand checks files and browses the findings interactively.
func tuiCommand(ctx context.Context, args []string, s streams) error {
	fs := newFlagSet("tui", "tui [options] [paths...]", s)
	refresh := fs.Duration("refresh", 0, "Re-check at this interval, e.g. 30s (0 disables)")

	cws, err := loadConfig(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	cfg := cws.Config

	// Logs would corrupt the screen.
	logger := logging.Discard()
	c, err := newChecker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	r := &runner{
		checker: c,
		pool:    parallel.NewWorkerPool(cfg.Workers, true),
		filter:  scan.Filter{Include: cfg.Include, Exclude: cfg.Exclude},
		in:      s.in,
		logger:  logger,
	}
	roots := fs.Args()

	var opts []ui.TUIOption
	if *refresh > 0 {
		opts = append(opts, ui.WithRefreshInterval(max(*refresh, time.Second)))
	}
	return ui.RunTUI(ctx, func(ctx context.Context) (*report.Report, error) {
		return r.discoverAndCheck(ctx, roots)
	}, opts...)
}
