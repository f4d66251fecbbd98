package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"

	"github.com/nibzard/todocheck-go/internal/config"
)

// printConfigCommand shows the effective configuration.
func printConfigCommand(_ context.Context, args []string, s streams) error {
	fs := newFlagSet("print-config", "print-config [options]", s)
	schema := fs.Bool("schema", false, "Print the JSON schema for config files instead")

	cws, err := loadConfig(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if *schema {
		fmt.Fprint(s.out, config.SchemaJSON())
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "# Project root: %s\n", cws.Config.ProjectRoot)
	for _, f := range cws.Config.ConfigFiles {
		fmt.Fprintf(s.out, "# Config file: %s\n", f)
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 1, ' ', 0)
	for _, st := range cws.Settings() {
		fmt.Fprintf(tw, "%s\t= %s\t(%s)\n", st.Key, quote(st.Value), st.Source)
	}
	return tw.Flush()
}

func quote(v string) string {
	if v == "" || strings.ContainsAny(v, " \t") {
		return fmt.Sprintf("%q", v)
	}
	return v
}

// initCommand writes an example config file into the current directory.
func initCommand(_ context.Context, args []string, s streams) error {
	fs := newFlagSet("init", "init [options] [dir]", s)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	path := filepath.Join(dir, "todocheck.toml")
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := atomic.WriteFile(path, strings.NewReader(config.ExampleConfig())); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(s.out, "Wrote %s\n", path)
	return nil
}
