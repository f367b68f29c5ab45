// Package apperror defines the typed errors shared by yamo components.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSection is returned when a section name is not part of the configuration.
var ErrUnknownSection = errors.New("unknown section")

// ConfigError represents an invalid section/facet configuration entry.
type ConfigError struct {
	Section string
	Facet   string
	Field   string
	Reason  string
}

func (e *ConfigError) Error() string {
	var where []string
	if e.Section != "" {
		where = append(where, fmt.Sprintf("section '%s'", e.Section))
	}
	if e.Facet != "" {
		where = append(where, fmt.Sprintf("facet '%s'", e.Facet))
	}
	if e.Field != "" {
		where = append(where, fmt.Sprintf("field '%s'", e.Field))
	}
	if len(where) == 0 {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration for %s: %s", strings.Join(where, ", "), e.Reason)
}

// BackendError represents a failed bulk read against the backend API.
type BackendError struct {
	Resource string
	URL      string
	Status   int
	Message  string
	Err      error
}

func (e *BackendError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("backend read of %s failed with status %d: %s", e.Resource, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("backend read of %s failed with status %d", e.Resource, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("backend read of %s failed: %v", e.Resource, e.Err)
	default:
		return fmt.Sprintf("backend read of %s failed: %s", e.Resource, e.Message)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the request may succeed.
func (e *BackendError) Temporary() bool {
	return e.Status == 0 && e.Err != nil || e.Status >= 500
}

// EngineError wraps a failure raised while computing a section's filtered result.
type EngineError struct {
	Section string
	Cause   interface{}
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("filter engine failed for section '%s': %v", e.Section, e.Cause)
}

func (e *EngineError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
