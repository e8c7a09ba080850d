package config

import "fmt"

// ConfigError reports a missing, malformed or contradictory configuration
// document. It is fatal and is raised before any article is fetched.
type ConfigError struct {
	File string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error in %s: %s: %v", e.File, e.Msg, e.Err)
	}
	return fmt.Sprintf("config error in %s: %s", e.File, e.Msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UnknownDialectError reports a special-parser fix naming an extraction
// dialect that does not exist.
type UnknownDialectError struct {
	Name string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown extraction dialect %q", e.Name)
}
