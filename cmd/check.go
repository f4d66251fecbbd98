package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/nibzard/todocheck-go/internal/checker"
	"github.com/nibzard/todocheck-go/internal/config"
	"github.com/nibzard/todocheck-go/internal/parallel"
	"github.com/nibzard/todocheck-go/internal/report"
	"github.com/nibzard/todocheck-go/internal/scan"
	"github.com/nibzard/todocheck-go/internal/ui"
)

// checkCommand checks files and prints a report.
func checkCommand(ctx context.Context, args []string, s streams) error {
	fs := newFlagSet("check", "check [options] [paths...]", s)
	watch := fs.BoolP("watch", "w", false, "Re-check files when they change")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	cws, err := loadConfig(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	cfg := cws.Config
	logger := newLogger(cfg, s.err)

	c, err := newChecker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	formatter, err := report.NewFormatter(cfg.Format, !*noColor && cfg.Output == "" && ui.IsTTY(s.out))
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

	emit := func(rep *report.Report) error {
		if err := writeReport(cfg, formatter, rep, s.out); err != nil {
			return err
		}
		if cfg.Format == "text" {
			return report.Summary(s.err, rep)
		}
		return nil
	}

	roots := fs.Args()
	rep, err := r.discoverAndCheck(ctx, roots)
	if rep != nil {
		if werr := emit(rep); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	logger.Debug("check finished", "files", len(rep.Files), "findings", rep.Total(), "elapsed", rep.Duration)

	if *watch {
		return r.watch(ctx, roots, emit)
	}
	if rep.Total() > 0 {
		return ErrFindings
	}
	return nil
}

// writeReport writes rep to the configured output file or to w.
func writeReport(cfg *config.Config, f report.Formatter, rep *report.Report, w io.Writer) error {
	if cfg.Output != "" {
		return report.WriteFile(cfg.Output, f, rep)
	}
	return f.Format(w, rep)
}

// runner checks files with a shared checker.
type runner struct {
	checker *checker.Checker
	pool    *parallel.WorkerPool
	filter  scan.Filter
	in      io.Reader
	logger  *log.Logger
}

// discoverAndCheck expands roots into files and checks them.
func (r *runner) discoverAndCheck(ctx context.Context, roots []string) (*report.Report, error) {
	files, err := scan.Discover(roots, r.filter)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}
	r.logger.Debug("discovered files", "count", len(files), "workers", r.pool.Workers())
	return r.check(ctx, files)
}

// check checks files concurrently. The first read or oracle failure cancels
// the files not yet started and is returned alongside the partial report.
func (r *runner) check(ctx context.Context, files []string) (*report.Report, error) {
	rep := report.New()
	results, err := parallel.Run(ctx, r.pool, files, r.checkFile)
	for i, res := range results {
		if res.Skipped {
			continue
		}
		rep.Add(report.FileResult{Path: files[i], Diagnostics: res.Value, Err: res.Err})
	}
	rep.Finish()
	return rep, err
}

// checkFile streams the lines of path through the checker.
func (r *runner) checkFile(ctx context.Context, path string) ([]checker.Diagnostic, error) {
	var src io.Reader
	if path == scan.Stdin {
		src = r.in
	} else {
		f, err := scan.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		src = f
	}

	lr := scan.NewLineReader(src)
	diags, err := checker.Collect(r.checker.Check(ctx, lr.Lines()))
	if err != nil {
		return diags, fmt.Errorf("%s: %w", path, err)
	}
	if err := lr.Err(); err != nil {
		return diags, fmt.Errorf("%s: %w", path, err)
	}
	r.logger.Debug("checked file", "file", path, "findings", len(diags))
	return diags, nil
}

// watch re-checks changed files until ctx is cancelled.
func (r *runner) watch(ctx context.Context, roots []string, emit func(*report.Report) error) error {
	w, err := scan.NewWatcher(roots, r.filter, scan.DefaultDebounce, r.logger)
	if err != nil {
		return fmt.Errorf("watching: %w", err)
	}
	defer w.Close()
	r.logger.Info("watching for changes, press ctrl+c to stop")

	var emitErr error
	err = w.Run(ctx, func(ctx context.Context, paths []string) {
		rep, err := r.check(ctx, paths)
		if err != nil {
			r.logger.Error("check failed", "err", err)
		}
		if err := emit(rep); err != nil {
			emitErr = err
		}
		r.logger.Info("re-checked", "files", len(paths), "findings", rep.Total())
	})
	if emitErr != nil {
		return emitErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
