package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/nibzard/todocheck-go/internal/config"
	"github.com/nibzard/todocheck-go/internal/jira"
	"github.com/nibzard/todocheck-go/internal/plugin"
	"github.com/nibzard/todocheck-go/internal/scan"
)

// doctorTimeout bounds the oracle round trip.
const doctorTimeout = 30 * time.Second

// doctorCommand validates the configuration and checks that the ticket
// oracle answers.
func doctorCommand(ctx context.Context, args []string, s streams) error {
	fs := newFlagSet("doctor", "doctor [options]", s)
	offline := fs.Bool("offline", false, "Skip contacting the ticket oracle")

	fmt.Fprintln(s.out, "todocheck doctor")
	fmt.Fprintln(s.out, "================")
	fmt.Fprintln(s.out)

	cws, err := loadConfig(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		fmt.Fprintln(s.out, "Config:")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(s.out, "  ❌ %s\n", line)
		}
		return err
	}
	cfg := cws.Config
	allOK := true

	fmt.Fprintf(s.out, "Project root: %s\n", cfg.ProjectRoot)
	if files := cfg.ConfigFiles; len(files) > 0 {
		for _, f := range files {
			fmt.Fprintf(s.out, "  Config file: %s\n", f)
		}
	} else {
		fmt.Fprintln(s.out, "  No config file, using defaults")
	}
	fmt.Fprintln(s.out)

	fmt.Fprintln(s.out, "Config:")
	fmt.Fprintln(s.out, "  ✅ Valid")
	fmt.Fprintf(s.out, "  Markers: allowed %s, reported %s\n", listOrNone(cfg.AllowedTodoSynonyms), listOrNone(cfg.DisallowedTodoSynonyms))
	fmt.Fprintf(s.out, "  Projects: %s\n", listOrNone(cfg.JiraProjectIDs))
	if len(cfg.JiraProjectIDs) == 0 {
		fmt.Fprintln(s.out, "  ⚠️  No jira_project_ids: every TODO is reported as JIR001")
	}
	if err := (scan.Filter{Include: cfg.Include, Exclude: cfg.Exclude}).Validate(); err != nil {
		fmt.Fprintf(s.out, "  ❌ %v\n", err)
		allOK = false
	}
	fmt.Fprintln(s.out)

	fmt.Fprintln(s.out, "Ticket oracle:")
	switch {
	case *offline:
		fmt.Fprintln(s.out, "  Skipped (--offline)")
	case cfg.Jira.Server != "":
		if err := doctorJira(ctx, cfg, s); err != nil {
			fmt.Fprintf(s.out, "  ❌ %v\n", err)
			allOK = false
		}
	case cfg.Oracle.Command != "":
		if err := doctorPlugin(ctx, cfg, s); err != nil {
			fmt.Fprintf(s.out, "  ❌ %v\n", err)
			allOK = false
		}
	default:
		fmt.Fprintln(s.out, "  ⚠️  None configured: tickets are not verified (JIR002/JIR003 disabled)")
	}
	fmt.Fprintln(s.out)

	if !allOK {
		fmt.Fprintln(s.out, "Some checks failed.")
		return errors.New("doctor checks failed")
	}
	fmt.Fprintln(s.out, "All checks passed.")
	return nil
}

func doctorJira(ctx context.Context, cfg *config.Config, s streams) error {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	client, err := jira.New(ctx, cfg.JiraOptions(newLogger(cfg, s.err)))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "  Jira: %s (auth: %s)\n", cfg.Jira.Server, client.Mode())
	user, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("jira: %w", err)
	}
	fmt.Fprintf(s.out, "  ✅ Authenticated as %s\n", user.Name)
	return nil
}

func doctorPlugin(ctx context.Context, cfg *config.Config, s streams) error {
	p := cfg.OraclePlugin()
	fmt.Fprintf(s.out, "  Plugin: %s %s\n", p.Command, strings.Join(p.Args, " "))
	if !isExecutable(p.Command) {
		return fmt.Errorf("%s not found in PATH", p.Command)
	}

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()
	info, err := plugin.NewExecutor(p, newLogger(cfg, s.err)).Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "  ✅ %s %s (methods: %s)\n", info.Name, info.Version, strings.Join(info.Methods, ", "))
	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func isExecutable(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}
