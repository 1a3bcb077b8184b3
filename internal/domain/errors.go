package domain

import (
	"errors"
	"fmt"
)

// ConfigError rejects a run before any network activity.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "invalid configuration"
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

type AttemptErrorKind string

const (
	AttemptTimeout    AttemptErrorKind = "timeout"
	AttemptConnection AttemptErrorKind = "connection"
	AttemptStatus     AttemptErrorKind = "status"
	AttemptBody       AttemptErrorKind = "body"
)

// AttemptError describes why a single attempt failed. It is recorded on the
// outcome and never aborts a run.
type AttemptError struct {
	Kind       AttemptErrorKind
	StatusCode int
	Err        error
}

func (e *AttemptError) Error() string {
	switch e.Kind {
	case AttemptTimeout:
		return "timeout"
	case AttemptStatus:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case AttemptBody:
		return fmt.Sprintf("malformed response body: %v", e.Err)
	default:
		return fmt.Sprintf("Proxy request failed: %v", e.Err)
	}
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}
