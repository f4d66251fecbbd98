package config

import (
	"errors"
	"os"
)

// loadFromEnvWithSources overrides config from TODOCHECK_* environment
// variables and updates source tracking. Unset and empty variables are
// ignored.
func loadFromEnvWithSources(cfg *Config, sources map[string]ConfigSource) error {
	var errs []error
	for _, s := range settings {
		v, ok := os.LookupEnv(s.envName())
		if !ok || v == "" {
			continue
		}
		if err := s.setString(cfg, v); err != nil {
			errs = append(errs, configError(s.envName(), err))
			continue
		}
		if sources != nil {
			sources[s.key] = SourceEnv
		}
	}
	return errors.Join(errs...)
}
