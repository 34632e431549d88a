package particles

import "fmt"

// InvalidConfigurationError is returned when a system cannot start or a
// setter receives a value the simulation cannot run with.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid particle system configuration: %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &InvalidConfigurationError{Field: field, Reason: reason}
}
