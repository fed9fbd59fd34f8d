package pbemarker

import (
	"errors"
	"fmt"
)

// Error types represent different categories of errors

// ValidationError represents a configuration or parameter validation error
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AlgorithmError reports an algorithm name that no provider can load
type AlgorithmError struct {
	Algorithm string // Requested algorithm name
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *AlgorithmError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("algorithm %q unavailable: %s", e.Algorithm, e.Message)
	}
	return fmt.Sprintf("algorithm %q unavailable", e.Algorithm)
}

// Unwrap returns ErrAlgorithmUnavailable and the specific cause, if any
func (e *AlgorithmError) Unwrap() []error {
	if e.Err == nil || errors.Is(e.Err, ErrAlgorithmUnavailable) {
		return []error{ErrAlgorithmUnavailable}
	}
	return []error{ErrAlgorithmUnavailable, e.Err}
}

// DecryptionError represents a payload that could not be decrypted
type DecryptionError struct {
	Algorithm string // Algorithm used for the attempt
	Offset    int    // Byte offset of the marker in the content, -1 if unknown
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *DecryptionError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("decrypt error: %s at offset %d: %s", e.Algorithm, e.Offset, e.Message)
	}
	return fmt.Sprintf("decrypt error: %s: %s", e.Algorithm, e.Message)
}

func (e *DecryptionError) Unwrap() []error {
	if e.Err == nil || errors.Is(e.Err, ErrDecryptionFailed) {
		return []error{ErrDecryptionFailed}
	}
	return []error{ErrDecryptionFailed, e.Err}
}

// DiscoveryError records a provider whose enumeration failed.
// It is never returned by ListAlgorithms; discovery degrades to the fallback list.
type DiscoveryError struct {
	Provider string // Provider name
	Err      error  // Underlying error or recovered panic
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery degraded: provider %s: %v", e.Provider, e.Err)
}

func (e *DiscoveryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDiscoveryDegraded}
	}
	return []error{ErrDiscoveryDegraded, e.Err}
}

// IOError represents a file system I/O error
type IOError struct {
	Operation string // "read", "write", "rename", "stat", etc.
	Path      string // File path
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("io error: %s: %s", e.Operation, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Common sentinel errors
var (
	ErrAlgorithmUnavailable = errors.New("algorithm unavailable")
	ErrDecryptionFailed     = errors.New("decryption failed")
	ErrDiscoveryDegraded    = errors.New("algorithm discovery degraded")
	ErrInvalidPadding       = errors.New("invalid padding")
	ErrInvalidPayload       = errors.New("invalid payload")
	ErrAuthFailed           = errors.New("authentication failed - wrong password or tampered payload")
	ErrUnsupportedFile      = errors.New("unsupported file type")
	ErrMalformedInput       = errors.New("content does not parse")
	ErrMalformedOutput      = errors.New("transformed content no longer parses")
	ErrNilConfig            = errors.New("config cannot be nil")
	ErrNilFileSystem        = errors.New("filesystem cannot be nil")
	ErrNilToggler           = errors.New("toggler cannot be nil")
)

// Helper functions for creating structured errors

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewAlgorithmError creates a new algorithm error
func NewAlgorithmError(algorithm string, err error) error {
	ae := &AlgorithmError{Algorithm: algorithm, Err: err}
	if err != nil && !errors.Is(err, ErrAlgorithmUnavailable) {
		ae.Message = err.Error()
	}
	return ae
}

// NewDecryptionError creates a new decryption error with an unknown offset
func NewDecryptionError(algorithm string, err error) error {
	return &DecryptionError{
		Algorithm: algorithm,
		Offset:    -1,
		Message:   err.Error(),
		Err:       err,
	}
}

// NewIOError creates a new I/O error
func NewIOError(operation, path string, err error) error {
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   err.Error(),
		Err:       err,
	}
}

// Error checking helpers

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAlgorithmUnavailable checks if an error reports an unloadable algorithm
func IsAlgorithmUnavailable(err error) bool {
	return errors.Is(err, ErrAlgorithmUnavailable)
}

// IsDecryptionFailed checks if an error reports a payload that did not decrypt
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsDiscoveryDegraded checks if an error reports degraded discovery
func IsDiscoveryDegraded(err error) bool {
	return errors.Is(err, ErrDiscoveryDegraded)
}

// IsIOError checks if an error is an I/O error
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

// withOffset returns err with the marker offset recorded when it is a
// DecryptionError.
func withOffset(err error, offset int) error {
	var de *DecryptionError
	if errors.As(err, &de) {
		cp := *de
		cp.Offset = offset
		return &cp
	}
	return err
}
