// Package errs defines the structured error payload described in spec §7:
// a stable code, a human message, and zero-or-more recovery steps. Core
// packages return a *Error (or wrap one) instead of a bare error whenever the
// failure compromises a whole operation rather than a single file.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind enumerates the error kinds from spec §7.
type Kind string

const (
	NotIndexed         Kind = "not_indexed"
	DirectoryNotFound   Kind = "directory_not_found"
	FileNotFound        Kind = "file_not_found"
	InitializationFailed Kind = "initialization_failed"
	IndexingFailed      Kind = "indexing_failed"
	InvalidPattern      Kind = "invalid_pattern"
	ValidationError     Kind = "validation_error"
	Corruption          Kind = "corruption"
	Transient           Kind = "transient"
)

// Recovery describes how a caller might resolve the error: human-readable
// steps plus zero or more suggested follow-up tool invocations (named by the
// MCP tool name the caller could call next).
type Recovery struct {
	Steps             []string `json:"steps,omitempty"`
	SuggestedToolCalls []string `json:"suggestedToolCalls,omitempty"`
}

// Error is the structured payload surfaced across the core's package
// boundary whenever a whole operation (not a single file) fails.
type Error struct {
	Kind     Kind     `json:"kind"`
	Message  string   `json:"message"`
	Recovery Recovery `json:"recovery,omitempty"`
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a structured error with a stack trace attached via pkg/errors,
// so a caller logging at the boundary gets a useful trace without every
// internal call site needing to care.
func New(kind Kind, message string, cause error, steps ...string) *Error {
	wrapped := cause
	if wrapped != nil {
		wrapped = errors.WithStack(wrapped)
	}
	return &Error{
		Kind:     kind,
		Message:  message,
		Recovery: Recovery{Steps: steps},
		cause:    wrapped,
	}
}

// WithToolCalls attaches suggested follow-up tool invocations to an
// already-built error and returns it for chaining.
func (e *Error) WithToolCalls(tools ...string) *Error {
	e.Recovery.SuggestedToolCalls = tools
	return e
}

// NotIndexedError is the recovery-rich error returned when a query targets a
// workspace whose index does not exist yet.
func NotIndexedError(workspace string) *Error {
	return New(NotIndexed, fmt.Sprintf("workspace %q is not indexed", workspace), nil,
		fmt.Sprintf("run index_workspace for %s", workspace),
	).WithToolCalls("index_workspace")
}

// StuckLockError is returned when IndexStore cannot open a writer because a
// lock file is present and appears to belong to no live process.
func StuckLockError(lockPath string, cause error) *Error {
	return New(InitializationFailed, "writer could not open: a stale lock may be present", cause,
		fmt.Sprintf("inspect and, if safe, remove %s", lockPath),
		"run the doctor command to sweep stale locks",
	)
}

// CorruptionError is returned when a health check reports Unhealthy.
func CorruptionError(workspace string, cause error) *Error {
	return New(Corruption, fmt.Sprintf("index for %q is corrupt", workspace), cause,
		"back up the index directory",
		"run the repair operation",
		"re-index the workspace if repair fails",
	).WithToolCalls("repair_index", "index_workspace")
}
