package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// setting describes one configurable field. The flag and environment names
// are derived from key: "jira.http_basic_username" becomes
// --jira-http-basic-username and TODOCHECK_JIRA_HTTP_BASIC_USERNAME.
type setting struct {
	key       string
	shorthand string
	usage     string
	// path marks file paths: relative values from a config file are
	// resolved against that file's directory, others against the working
	// directory.
	path bool
	// ptr returns a *string, *[]string, *bool, *int or *map[string]string
	// into cfg.
	ptr func(cfg *Config) any
}

func (s setting) flagName() string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(s.key)
}

func (s setting) envName() string {
	return "TODOCHECK_" + strings.ToUpper(strings.ReplaceAll(s.key, ".", "_"))
}

var settings = []setting{
	{key: "allowed_todo_synonyms", usage: "Words accepted as TODO markers", ptr: func(c *Config) any { return &c.AllowedTodoSynonyms }},
	{key: "disallowed_todo_synonyms", usage: "Words recognized as TODO markers but reported (JIR004)", ptr: func(c *Config) any { return &c.DisallowedTodoSynonyms }},
	{key: "jira_project_ids", usage: "Valid Jira project IDs, e.g. ABC; empty reports every TODO", ptr: func(c *Config) any { return &c.JiraProjectIDs }},
	{key: "disallowed_jira_statuses", usage: "Ticket statuses reported as invalid (JIR003)", ptr: func(c *Config) any { return &c.DisallowedJiraStatuses }},
	{key: "disallowed_jira_resolutions", usage: "Ticket resolutions reported as invalid; requires --disallow-all-jira-resolutions=false", ptr: func(c *Config) any { return &c.DisallowedJiraResolutions }},
	{key: "disallow_all_jira_resolutions", usage: "Report tickets with any resolution", ptr: func(c *Config) any { return &c.DisallowAllJiraResolutions }},
	{key: "max_batch_size", usage: "Maximum tickets per oracle query (1-100)", ptr: func(c *Config) any { return &c.MaxBatchSize }},

	{key: "include", usage: "Glob patterns of files to check (default: all text files)", ptr: func(c *Config) any { return &c.Include }},
	{key: "exclude", usage: "Glob patterns of files or directories to skip", ptr: func(c *Config) any { return &c.Exclude }},
	{key: "workers", shorthand: "j", usage: "Files checked in parallel (0 = number of CPUs)", ptr: func(c *Config) any { return &c.Workers }},

	{key: "format", shorthand: "f", usage: "Report format (text, json, github)", ptr: func(c *Config) any { return &c.Format }},
	{key: "output", shorthand: "o", path: true, usage: "Write the report to this file instead of stdout", ptr: func(c *Config) any { return &c.Output }},

	{key: "log_level", usage: "Log level (debug, info, warn, error)", ptr: func(c *Config) any { return &c.LogLevel }},
	{key: "log_format", usage: "Log format (text, json, logfmt)", ptr: func(c *Config) any { return &c.LogFormat }},
	{key: "log_timestamps", usage: "Show timestamps in logs", ptr: func(c *Config) any { return &c.LogTimestamps }},
	{key: "log_caller", usage: "Show caller location in logs", ptr: func(c *Config) any { return &c.LogCaller }},

	{key: "jira.server", usage: "Jira server URL, e.g. https://jira.example.com", ptr: func(c *Config) any { return &c.Jira.Server }},
	{key: "jira.cookie_username", usage: "Jira cookie auth: username", ptr: func(c *Config) any { return &c.Jira.CookieUsername }},
	{key: "jira.cookie_password", usage: "Jira cookie auth: password", ptr: func(c *Config) any { return &c.Jira.CookiePassword }},
	{key: "jira.http_basic_username", usage: "Jira HTTP basic auth: username", ptr: func(c *Config) any { return &c.Jira.HTTPBasicUsername }},
	{key: "jira.http_basic_password", usage: "Jira HTTP basic auth: password", ptr: func(c *Config) any { return &c.Jira.HTTPBasicPassword }},
	{key: "jira.token", usage: "Jira personal access token", ptr: func(c *Config) any { return &c.Jira.Token }},
	{key: "jira.oauth_access_token", usage: "Jira OAuth: access token", ptr: func(c *Config) any { return &c.Jira.OAuthAccessToken }},
	{key: "jira.oauth_access_token_secret", usage: "Jira OAuth: access token secret", ptr: func(c *Config) any { return &c.Jira.OAuthAccessTokenSecret }},
	{key: "jira.oauth_consumer_key", usage: "Jira OAuth: consumer key", ptr: func(c *Config) any { return &c.Jira.OAuthConsumerKey }},
	{key: "jira.oauth_key_cert_file", path: true, usage: "Jira OAuth: PEM private key file", ptr: func(c *Config) any { return &c.Jira.OAuthKeyCertFile }},
	{key: "jira.kerberos", usage: "Jira Kerberos auth", ptr: func(c *Config) any { return &c.Jira.Kerberos }},
	{key: "jira.kerberos_config", path: true, usage: "Path to krb5.conf", ptr: func(c *Config) any { return &c.Jira.KerberosConfig }},
	{key: "jira.kerberos_ccache", usage: "Path to the Kerberos credential cache", ptr: func(c *Config) any { return &c.Jira.KerberosCCache }},
	{key: "jira.timeout_seconds", usage: "Jira request timeout (seconds)", ptr: func(c *Config) any { return &c.Jira.TimeoutSeconds }},

	{key: "oracle.command", usage: "External ticket oracle plugin command", ptr: func(c *Config) any { return &c.Oracle.Command }},
	{key: "oracle.args", usage: "Arguments for the oracle plugin", ptr: func(c *Config) any { return &c.Oracle.Args }},
	{key: "oracle.config", usage: "Settings passed to the oracle plugin as TODOCHECK_PLUGIN_<KEY>, e.g. base_url=https://tracker", ptr: func(c *Config) any { return &c.Oracle.Config }},
	{key: "oracle.timeout_seconds", usage: "Oracle plugin call timeout (seconds)", ptr: func(c *Config) any { return &c.Oracle.TimeoutSeconds }},
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

func settingByKey(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

// copyValue copies the field of s from src to dst.
func (s setting) copyValue(dst, src *Config) {
	switch d := s.ptr(dst).(type) {
	case *string:
		*d = *s.ptr(src).(*string)
	case *[]string:
		*d = append([]string(nil), *s.ptr(src).(*[]string)...)
	case *bool:
		*d = *s.ptr(src).(*bool)
	case *int:
		*d = *s.ptr(src).(*int)
	case *map[string]string:
		*d = maps.Clone(*s.ptr(src).(*map[string]string))
	}
}

// setString parses raw into the field of s.
func (s setting) setString(cfg *Config, raw string) error {
	switch d := s.ptr(cfg).(type) {
	case *string:
		*d = raw
	case *[]string:
		*d = splitList(raw)
	case *bool:
		*d = boolFromString(raw)
	case *int:
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", s.key, raw)
		}
		*d = i
	case *map[string]string:
		m, err := parsePairs(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		*d = m
	}
	return nil
}

// Value returns the field of s as a display string.
func (s setting) value(cfg *Config) string {
	switch d := s.ptr(cfg).(type) {
	case *string:
		return *d
	case *[]string:
		return strings.Join(*d, ",")
	case *bool:
		return strconv.FormatBool(*d)
	case *int:
		return strconv.Itoa(*d)
	case *map[string]string:
		pairs := make([]string, 0, len(*d))
		for _, k := range slices.Sorted(maps.Keys(*d)) {
			pairs = append(pairs, k+"="+(*d)[k])
		}
		return strings.Join(pairs, ",")
	}
	return ""
}

// parsePairs parses "key=value,key=value".
func parsePairs(raw string) (map[string]string, error) {
	m := make(map[string]string)
	for _, part := range splitList(raw) {
		k, v, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%q is not key=value", part)
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m, nil
}

// splitList splits a comma-separated list and trims whitespace from each
// part. Empty parts are omitted.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// secret reports whether the value of key must be masked when printed.
func secret(key string) bool {
	return strings.HasSuffix(key, "password") || strings.HasSuffix(key, "token") ||
		strings.HasSuffix(key, "token_secret") || key == "oracle.config"
}

// Setting is one configuration value as shown by print-config.
type Setting struct {
	Key    string
	Value  string
	Source ConfigSource
}

// Settings lists every value with its source. Secrets are masked.
func (cws *ConfigWithSources) Settings() []Setting {
	out := make([]Setting, 0, len(settings))
	for _, s := range settings {
		v := s.value(cws.Config)
		if v != "" && secret(s.key) {
			v = "********"
		}
		src := cws.Sources[s.key]
		if src == "" {
			src = SourceDefault
		}
		out = append(out, Setting{Key: s.key, Value: v, Source: src})
	}
	return out
}
