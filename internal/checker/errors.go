package checker

import (
	"errors"
	"fmt"
)

// MaxBatchSize is the largest number of distinct tickets an Oracle is asked
// to resolve in one call.
const MaxBatchSize = 100

var (
	// ErrConfig marks every configuration error. Configuration errors are
	// raised before any line is checked.
	ErrConfig = errors.New("invalid configuration")

	// ErrBatchTooLarge is returned when more than MaxBatchSize tickets would be
	// resolved at once.
	ErrBatchTooLarge = fmt.Errorf("unable to query for more than %d tickets", MaxBatchSize)
)

// ConfigError is a configuration error for a single option.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap exposes both ErrConfig and the underlying error.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfig, e.Err}
}
