package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.todocheck/todocheck.toml or OS-specific config dir)
// 3. Project config file (todocheck.toml, .todocheck.toml or .todocheck.yaml), or --config
// 4. Environment variables
// 5. CLI flags
//
// The returned config is validated. Remaining arguments are available from
// fs.Args().
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of setting keys
// to their sources.
func LoadWithSources(fs *pflag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}

	// 1. Defaults
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	if fs == nil {
		fs = pflag.NewFlagSet("todocheck", pflag.ContinueOnError)
	}
	// Flags are parsed first so --config is known, but applied last.
	flagged, configFile, err := parseFlags(fs, args, cfg)
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg.ProjectRoot = wd

	// 2. User config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFileWithSources(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
	}

	// 3. Project config file, or the explicit one
	projectConfigFile := findProjectConfigFile(wd)
	if configFile != "" {
		projectConfigFile = expandPath(configFile)
		if _, err := os.Stat(projectConfigFile); err != nil {
			return nil, configError("config", err)
		}
	}
	if projectConfigFile != "" {
		if err := loadConfigFileWithSources(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		if abs, err := filepath.Abs(projectConfigFile); err == nil {
			cfg.ProjectRoot = filepath.Dir(abs)
		}
	}

	// 4. Environment
	if err := loadFromEnvWithSources(cfg, sources); err != nil {
		return nil, err
	}

	// 5. Flags
	applyFlags(fs, cfg, flagged, sources)

	finalizeConfig(cfg, wd)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ConfigWithSources{Config: cfg, Sources: sources}, nil
}

// loadConfigFileWithSources loads a TOML or YAML file into cfg. Only keys
// present in the file are copied, and their source is recorded.
func loadConfigFileWithSources(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	fileCfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return configError("", err)
		}
		if err := validateDocument(doc); err != nil {
			return err
		}
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(fileCfg); err != nil && !errors.Is(err, io.EOF) {
			return configError("", err)
		}
	default:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return configError("", err)
		}
		if err := validateDocument(doc); err != nil {
			return err
		}
		if _, err := toml.Decode(string(data), fileCfg); err != nil {
			return configError("", err)
		}
	}

	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	for _, key := range documentKeys(doc, "") {
		s, ok := settingByKey(key)
		if !ok {
			continue
		}
		s.copyValue(cfg, fileCfg)
		if s.path {
			p := s.ptr(cfg).(*string)
			*p = resolvePath(dir, *p)
		}
		sources[key] = source
	}
	cfg.ConfigFiles = append(cfg.ConfigFiles, path)
	return nil
}

// documentKeys flattens the keys of a decoded file into dotted setting keys.
// Tables that are settings themselves, like oracle.config, are not descended
// into.
func documentKeys(doc map[string]any, prefix string) []string {
	var keys []string
	for k, v := range doc {
		key := prefix + k
		if _, isSetting := settingByKey(key); isSetting {
			keys = append(keys, key)
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			keys = append(keys, documentKeys(nested, key+".")...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// finalizeConfig computes derived values. Paths from the environment and
// flags are relative to wd; paths from config files were already resolved
// when the file was loaded.
func finalizeConfig(cfg *Config, wd string) {
	for _, s := range settings {
		if s.path {
			p := s.ptr(cfg).(*string)
			*p = resolvePath(wd, *p)
		}
	}
	cfg.Jira.KerberosCCache = expandPath(cfg.Jira.KerberosCCache)
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
}

func configError(field string, err error) error {
	return &checker.ConfigError{Field: field, Err: err}
}
