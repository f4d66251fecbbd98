// Package cmd implements the CLI command structure for todocheck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/nibzard/todocheck-go/internal/checker"
	"github.com/nibzard/todocheck-go/internal/config"
	"github.com/nibzard/todocheck-go/internal/jira"
	"github.com/nibzard/todocheck-go/internal/logging"
	"github.com/nibzard/todocheck-go/internal/plugin"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Exit codes.
const (
	ExitOK          = 0
	ExitFindings    = 1
	ExitError       = 2
	ExitInterrupted = 130
)

// ErrFindings is returned by check when at least one diagnostic was
// reported.
var ErrFindings = errors.New("findings reported")

// ExitCode maps an error returned by Run to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrFindings):
		return ExitFindings
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitError
	}
}

// streams are the standard streams a command uses.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func stdStreams() streams {
	return streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// Run executes the todocheck CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, stdStreams())
}

func run(ctx context.Context, args []string, s streams) error {
	// The subcommand is the first argument unless it is a flag or a path.
	subcommand := "check"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if _, ok := commands[args[0]]; ok {
			subcommand = args[0]
			args = args[1:]
		} else if _, err := os.Stat(args[0]); err != nil {
			fmt.Fprintf(s.err, "Unknown command: %s\n", args[0])
			printUsage(s.err)
			return fmt.Errorf("unknown command: %s", args[0])
		}
	}
	if len(args) > 0 && subcommand == "check" {
		switch args[0] {
		case "-h", "--help":
			printUsage(s.out)
			return nil
		case "-v", "--version":
			return versionCommand(ctx, nil, s)
		}
	}

	return commands[subcommand].run(ctx, args, s)
}

type command struct {
	summary string
	run     func(ctx context.Context, args []string, s streams) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"check":        {"Check files for TODO markers (default command)", checkCommand},
		"plugin":       {"Serve JSON-RPC check requests on stdin/stdout", pluginCommand},
		"doctor":       {"Validate configuration and reach the ticket oracle", doctorCommand},
		"print-config": {"Show effective configuration and where each value came from", printConfigCommand},
		"init":         {"Write an example todocheck.toml", initCommand},
		"tui":          {"Browse findings in a terminal UI", tuiCommand},
		"version":      {"Show version information", versionCommand},
		"help":         {"Show this help message", helpCommand},
	}
}

// commandOrder is the order commands are listed in usage.
var commandOrder = []string{"check", "tui", "plugin", "doctor", "print-config", "init", "version", "help"}

// newFlagSet returns a flag set for a subcommand whose usage lists the
// subcommand's own flags followed by the config flags.
func newFlagSet(name, usage string, s streams) *pflag.FlagSet {
	fs := pflag.NewFlagSet("todocheck "+name, pflag.ContinueOnError)
	fs.SetOutput(s.err)
	fs.Usage = func() {
		fmt.Fprintf(s.err, "Usage:\n  todocheck %s\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// loadConfig parses args into fs and loads the layered configuration.
// pflag.ErrHelp is passed through so callers can return quietly.
func loadConfig(fs *pflag.FlagSet, args []string) (*config.ConfigWithSources, error) {
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cws, nil
}

func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	return logging.FromConfig(w, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
}

// newOracle builds the configured ticket oracle: the Jira client when a
// server is set, the external plugin when a command is set, or nil, which
// disables ticket verification.
func newOracle(ctx context.Context, cfg *config.Config, logger *log.Logger) (checker.Oracle, error) {
	switch {
	case cfg.Jira.Server != "":
		client, err := jira.New(ctx, cfg.JiraOptions(logger.With("oracle", "jira")))
		if err != nil {
			return nil, err
		}
		logger.Debug("using jira oracle", "server", cfg.Jira.Server, "auth", client.Mode())
		return client, nil
	case cfg.Oracle.Command != "":
		p := cfg.OraclePlugin()
		logger.Debug("using plugin oracle", "command", p.Command)
		return plugin.NewExecutor(p, logger.With("oracle", "plugin")), nil
	}
	logger.Debug("no jira server or oracle configured, tickets are not verified")
	return nil, nil
}

// newChecker builds the checker and its oracle from cfg.
func newChecker(ctx context.Context, cfg *config.Config, logger *log.Logger) (*checker.Checker, error) {
	oracle, err := newOracle(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return checker.New(cfg.CheckerOptions(), oracle, checker.WithLogger(logger))
}

// versionCommand prints version information.
func versionCommand(_ context.Context, _ []string, s streams) error {
	fmt.Fprintf(s.out, "todocheck version %s\n", Version)
	return nil
}

func helpCommand(_ context.Context, args []string, s streams) error {
	if len(args) > 0 {
		if c, ok := commands[args[0]]; ok && args[0] != "help" {
			return c.run(context.Background(), []string{"--help"}, streams{in: s.in, out: s.out, err: s.out})
		}
	}
	printUsage(s.out)
	return nil
}

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "todocheck - checks that every TODO references a live Jira ticket")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todocheck [command] [options] [paths...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-14s%s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Codes:")
	for _, c := range checker.Codes {
		fmt.Fprintf(w, "  %s  %s\n", c, c.Description())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration Options (every command):")
	fs := pflag.NewFlagSet("todocheck", pflag.ContinueOnError)
	fs.String(config.ConfigFlag, "", "Config file to use instead of the project config")
	config.RegisterFlags(fs, config.Defaults())
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit status: 0 no findings, 1 findings, 2 configuration or oracle error.")
	fmt.Fprintln(w, "Run 'todocheck help <command>' for command options.")
}
