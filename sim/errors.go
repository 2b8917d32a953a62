package sim

import (
	"fmt"
	"strings"
)

// ConfigError reports a configuration that cannot start a run.
// Returned before any event is scheduled.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvariantViolation is raised when kernel or pool bookkeeping reaches a state
// that should be impossible. It aborts the run and carries a dump of every
// registered component at the moment of failure.
type InvariantViolation struct {
	Clock   float64
	Message string
	Dump    []string
}

func (e *InvariantViolation) Error() string {
	if len(e.Dump) == 0 {
		return fmt.Sprintf("invariant violation at t=%.3f: %s", e.Clock, e.Message)
	}
	return fmt.Sprintf("invariant violation at t=%.3f: %s\nstate:\n  %s",
		e.Clock, e.Message, strings.Join(e.Dump, "\n  "))
}

// Dumper is implemented by components that can describe their state
// for an InvariantViolation report.
type Dumper interface {
	Dump() string
}
