package compose

import "fmt"

// ConfigError reports an invalid declaration: inconsistent timing, bad
// size-mode parameters, a stacked source without a layout, an encoder
// profile that cannot carry the scene. A composition with a ConfigError
// never produces a program.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ResolveError reports that the canvas could not be determined from the
// scene. The whole build fails with no output.
type ResolveError struct {
	Reason string
}

func (e *ResolveError) Error() string {
	return "cannot resolve canvas: " + e.Reason
}
