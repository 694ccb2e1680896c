package errz

import (
	"fmt"
	"strings"
)

// Kind represents the category of an error.
type Kind int

const (
	// ErrSyntax indicates a syntax error in kernel source.
	ErrSyntax Kind = iota
	// ErrName indicates an undeclared function or symbol.
	ErrName
	// ErrPreprocess indicates a preprocessor failure (bad include, macro).
	ErrPreprocess
	// ErrKernelArg indicates malformed kernel argument information.
	ErrKernelArg
	// ErrLink indicates a symbol conflict while linking modules.
	ErrLink
	// ErrDecode indicates an unreadable or corrupt program binary.
	ErrDecode
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrName:
		return "name error"
	case ErrPreprocess:
		return "preprocessor error"
	case ErrKernelArg:
		return "kernel argument error"
	case ErrLink:
		return "link error"
	case ErrDecode:
		return "decode error"
	default:
		return "error"
	}
}

// SourceLocation identifies a position in kernel source text. Line and
// Column are 1-based; a zero value means the location is unknown.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// IsZero reports whether the location carries no position information.
func (l SourceLocation) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

// String returns the location in file:line:col form.
func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// StructuredError is a rich error type carrying a kind and an originating
// source location, used wherever a diagnostic must survive crossing a
// package boundary without losing context.
type StructuredError struct {
	Message  string
	Kind     Kind
	Location SourceLocation
	Cause    error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Location.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind.String(), e.Message, e.Location.String())
}

// Unwrap returns the underlying cause of the error.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Diagnostic returns the error as a compiler-style one-line diagnostic,
// suitable for inclusion in a build log.
func (e *StructuredError) Diagnostic() string {
	var sb strings.Builder
	if !e.Location.IsZero() {
		sb.WriteString(e.Location.String())
		sb.WriteString(": ")
	}
	sb.WriteString("error: ")
	sb.WriteString(e.Message)
	return sb.String()
}

// New creates a new StructuredError with the given parameters.
func New(kind Kind, message string, loc SourceLocation) *StructuredError {
	return &StructuredError{Message: message, Kind: kind, Location: loc}
}

// Newf creates a new StructuredError with a formatted message.
func Newf(kind Kind, loc SourceLocation, format string, args ...any) *StructuredError {
	return &StructuredError{
		Message:  fmt.Sprintf(format, args...),
		Kind:     kind,
		Location: loc,
	}
}

// WithCause wraps the error with a cause.
func (e *StructuredError) WithCause(cause error) *StructuredError {
	e.Cause = cause
	return e
}
