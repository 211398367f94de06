// Package util provides logging helpers and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for runtime and descriptor failures
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidTopology   = errors.New("invalid topology descriptor")
	ErrUnsupportedDriver = errors.New("unsupported link driver")
	ErrNoNamespace       = errors.New("device has no network namespace")
	ErrNotSupported      = errors.New("operation not supported on this platform")
)

// DescriptorError represents a per-link descriptor problem. Link-level
// descriptor errors are logged and skip only the offending link; they never
// abort the rest of the topology.
type DescriptorError struct {
	Link   string
	Reason string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("descriptor error on link %s: %s", e.Link, e.Reason)
}

func (e *DescriptorError) Unwrap() error {
	return ErrInvalidTopology
}

// NewDescriptorError creates a per-link descriptor error
func NewDescriptorError(link, reason string) *DescriptorError {
	return &DescriptorError{Link: link, Reason: reason}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTopology
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}
