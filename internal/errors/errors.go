// Package errors defines the typed error taxonomy the core returns instead
// of panicking or propagating raw library errors (spec §7). Per-file
// failures during discovery/parsing are represented, not fatal; only
// IndexMissing/InvalidQuery/Internal are meant to reach a caller's boundary
// unwrapped.
package errors

import (
	"fmt"
	"time"

	"github.com/codeindexer/oci/internal/types"
)

// Kind is the abstract error taxonomy from spec §7.
type Kind string

const (
	KindIO           Kind = "io"
	KindParse        Kind = "parse"
	KindInvalidQuery Kind = "invalid_query"
	KindIndexMissing Kind = "index_missing"
	KindInternal     Kind = "internal"
	KindConfig       Kind = "config"
)

// IndexingError wraps a failure during discovery, extraction, or the
// incremental update pipeline.
type IndexingError struct {
	Kind        Kind
	FileID      types.FileID
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewIndexingError creates an indexing error for operation op.
func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{Kind: KindIO, Operation: op, Underlying: err, Timestamp: time.Now()}
}

// WithFile attaches file context to the error.
func (e *IndexingError) WithFile(id types.FileID, path string) *IndexingError {
	e.FileID = id
	e.FilePath = path
	return e
}

// WithRecoverable marks whether a retry could succeed.
func (e *IndexingError) WithRecoverable(recoverable bool) *IndexingError {
	e.Recoverable = recoverable
	return e
}

func (e *IndexingError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Kind, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.Operation, e.Underlying)
}

// Unwrap supports errors.Is/errors.As.
func (e *IndexingError) Unwrap() error { return e.Underlying }

// ParseError represents a parse failure. Per spec §4.3/§7 these never abort
// a run; the extractor treats the file as producing empty results and logs
// this value.
type ParseError struct {
	FileID     types.FileID
	FilePath   string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a parse error for the given file.
func NewParseError(fileID types.FileID, path string, err error) *ParseError {
	return &ParseError{FileID: fileID, FilePath: path, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.FilePath, e.Underlying)
}

// Unwrap supports errors.Is/errors.As.
func (e *ParseError) Unwrap() error { return e.Underlying }

// QueryError represents an invalid or unservable query, surfaced to the
// caller per spec §7 (InvalidQuery, IndexMissing).
type QueryError struct {
	Kind    Kind
	Message string
}

// NewQueryError creates a query-boundary error of the given kind.
func NewQueryError(kind Kind, message string) *QueryError {
	return &QueryError{Kind: kind, Message: message}
}

func (e *QueryError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// ConfigError represents a malformed or invalid configuration value.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

// NewConfigError creates a config error for the given field/value.
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap supports errors.Is/errors.As.
func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError aggregates multiple independent failures, e.g. per-file
// discovery errors collected across a walk.
type MultiError struct {
	Errors []error
}

// NewMultiError filters out nil errors and wraps the rest.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// Unwrap supports multi-error unwrapping via errors.Is/errors.As (Go 1.20+).
func (e *MultiError) Unwrap() []error { return e.Errors }

// HasErrors reports whether any error was collected.
func (e *MultiError) HasErrors() bool { return len(e.Errors) > 0 }
