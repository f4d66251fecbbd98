package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ConfigFlag names the flag selecting an explicit config file.
const ConfigFlag = "config"

// parseFlags registers every setting on fs and parses args. Flag values land
// in a holder copy of defaults so the lower layers can still be applied
// before them.
func parseFlags(fs *pflag.FlagSet, args []string, defaults *Config) (*Config, string, error) {
	holder := *defaults
	var configFile string

	if fs.Lookup(ConfigFlag) == nil {
		fs.StringVar(&configFile, ConfigFlag, "", "Config file to use instead of the project config")
	}
	RegisterFlags(fs, &holder)

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if f := fs.Lookup(ConfigFlag); f != nil && f.Changed {
		configFile = f.Value.String()
	}
	return &holder, configFile, nil
}

// RegisterFlags defines a flag for every setting bound to cfg. Flags already
// defined on fs are left alone.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	for _, s := range settings {
		name := s.flagName()
		if fs.Lookup(name) != nil {
			continue
		}
		switch p := s.ptr(cfg).(type) {
		case *string:
			fs.StringVarP(p, name, s.shorthand, *p, s.usage)
		case *[]string:
			fs.StringSliceVarP(p, name, s.shorthand, *p, s.usage)
		case *bool:
			fs.BoolVarP(p, name, s.shorthand, *p, s.usage)
		case *int:
			fs.IntVarP(p, name, s.shorthand, *p, s.usage)
		case *map[string]string:
			fs.StringToStringVarP(p, name, s.shorthand, *p, s.usage)
		default:
			panic(fmt.Sprintf("config: unsupported setting type %T for %s", p, s.key))
		}
	}
}

// applyFlags copies the flags explicitly set on fs from holder into cfg.
func applyFlags(fs *pflag.FlagSet, cfg, holder *Config, sources map[string]ConfigSource) {
	if fs == nil || holder == nil {
		return
	}
	byFlag := make(map[string]setting, len(settings))
	for _, s := range settings {
		byFlag[s.flagName()] = s
	}
	fs.Visit(func(f *pflag.Flag) {
		s, ok := byFlag[f.Name]
		if !ok {
			return
		}
		s.copyValue(cfg, holder)
		if sources != nil {
			sources[s.key] = SourceFlag
		}
	})
}
