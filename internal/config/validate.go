package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todocheck-go/internal/checker"
	"github.com/nibzard/todocheck-go/internal/jira"
	"github.com/nibzard/todocheck-go/internal/plugin"
	"github.com/nibzard/todocheck-go/internal/todo"
)

var (
	formats    = []string{FormatText, FormatJSON, FormatGitHub}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json", "logfmt"}
)

// Validate reports every configuration problem at once. Each error matches
// checker.ErrConfig.
func (c *Config) Validate() error {
	var errs []error
	if err := c.CheckerOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(formats, c.Format) {
		errs = append(errs, configError("format", fmt.Errorf("unknown format %q", c.Format)))
	}
	if c.Workers < 0 {
		errs = append(errs, configError("workers", errors.New("must not be negative")))
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, configError("log_level", fmt.Errorf("unknown level %q", c.LogLevel)))
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		errs = append(errs, configError("log_format", fmt.Errorf("unknown format %q", c.LogFormat)))
	}

	if c.Jira.Server != "" {
		if err := c.JiraOptions(nil).Validate(); err != nil {
			errs = append(errs, configError("jira", err))
		}
		if c.Oracle.Command != "" {
			errs = append(errs, configError("oracle.command", errors.New("cannot be combined with jira.server")))
		}
	}
	if c.Jira.TimeoutSeconds < 0 {
		errs = append(errs, configError("jira.timeout_seconds", errors.New("must not be negative")))
	}
	if c.Oracle.TimeoutSeconds < 0 {
		errs = append(errs, configError("oracle.timeout_seconds", errors.New("must not be negative")))
	}
	return errors.Join(errs...)
}

// CheckerOptions returns the checker options described by the config.
func (c *Config) CheckerOptions() checker.Options {
	return checker.Options{
		Vocabulary: todo.Vocabulary{
			Allowed:    c.AllowedTodoSynonyms,
			Disallowed: c.DisallowedTodoSynonyms,
		},
		ProjectIDs:             c.JiraProjectIDs,
		DisallowedStatuses:     c.DisallowedJiraStatuses,
		DisallowedResolutions:  c.DisallowedJiraResolutions,
		DisallowAllResolutions: c.DisallowAllJiraResolutions,
		MaxBatchSize:           c.MaxBatchSize,
	}
}

// JiraOptions returns the Jira client options. Server is empty when no Jira
// server is configured.
func (c *Config) JiraOptions(logger *log.Logger) jira.Options {
	return jira.Options{
		Server:         c.Jira.Server,
		CookieUsername: c.Jira.CookieUsername,
		CookiePassword: c.Jira.CookiePassword,
		BasicUsername:  c.Jira.HTTPBasicUsername,
		BasicPassword:  c.Jira.HTTPBasicPassword,
		Token:          c.Jira.Token,
		OAuth: jira.OAuthOptions{
			AccessToken:       c.Jira.OAuthAccessToken,
			AccessTokenSecret: c.Jira.OAuthAccessTokenSecret,
			ConsumerKey:       c.Jira.OAuthConsumerKey,
			KeyCertFile:       c.Jira.OAuthKeyCertFile,
		},
		Kerberos:       c.Jira.Kerberos,
		KerberosConfig: c.Jira.KerberosConfig,
		KerberosCCache: c.Jira.KerberosCCache,
		Timeout:        time.Duration(c.Jira.TimeoutSeconds) * time.Second,
		Logger:         logger,
	}
}

// OraclePlugin returns the configured oracle plugin, or nil.
func (c *Config) OraclePlugin() *plugin.Plugin {
	if c.Oracle.Command == "" {
		return nil
	}
	p := &plugin.Plugin{
		Name:    "oracle",
		Command: c.Oracle.Command,
		Args:    c.Oracle.Args,
		WorkDir: c.ProjectRoot,
		Timeout: time.Duration(c.Oracle.TimeoutSeconds) * time.Second,
	}
	if len(c.Oracle.Config) > 0 {
		p.Config = make(map[string]any, len(c.Oracle.Config))
		for k, v := range c.Oracle.Config {
			p.Config[k] = v
		}
	}
	return p
}
