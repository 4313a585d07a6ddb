package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryInvariant Category = "invariant"
	CategoryHooks     Category = "hooks"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
	CategoryStream    Category = "stream"
	CategoryExport    Category = "export"
	CategoryJournal   Category = "journal"
)

// FiberError is a structured error with a stable code, an explanation
// and an optional hint.
type FiberError struct {
	// Code is a unique error identifier (e.g., "F001").
	Code string

	// Category groups related codes.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, usually naming the fiber involved.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FiberError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return e.Code + ": " + msg
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FiberError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *FiberError) WithDetail(d string) *FiberError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FiberError) WithSuggestion(s string) *FiberError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *FiberError) Wrap(err error) *FiberError {
	e.Wrapped = err
	return e
}

// New creates a FiberError from a registered error code.
func New(code string) *FiberError {
	template, ok := registry[code]
	if !ok {
		return &FiberError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &FiberError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new FiberError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FiberError {
	return &FiberError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a FiberError. Errors that already
// carry a FiberError are returned unchanged.
func FromError(err error, code string) *FiberError {
	if err == nil {
		return nil
	}
	var fe *FiberError
	if errors.As(err, &fe) {
		return fe
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first FiberError in err's chain, or "".
func CodeOf(err error) string {
	var fe *FiberError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
