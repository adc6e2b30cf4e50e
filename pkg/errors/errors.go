// Unified error handling for the acceleration control preprocessor
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// ErrIO covers failures reading the source or writing the destination
	ErrIO ErrorCode = "IO"

	// Embedded override comment errors
	ErrInvalidNumber  ErrorCode = "INVALID_NUMBER"
	ErrInvalidFeature ErrorCode = "INVALID_FEATURE"

	// ErrUnknownSlicer means no "generated by" header identified the producer
	ErrUnknownSlicer ErrorCode = "UNKNOWN_SLICER"

	// ErrConfig covers external settings documents
	ErrConfig ErrorCode = "CONFIG"
)

// PreprocessError is the unified error type of the preprocessor
type PreprocessError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// File is the G-code or settings file being processed (if known)
	File string

	// Line is the 1-based line number in File (if known)
	Line int

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *PreprocessError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	switch {
	case e.File != "" && e.Line > 0:
		msg = fmt.Sprintf("%s (%s:%d)", msg, e.File, e.Line)
	case e.File != "":
		msg = fmt.Sprintf("%s (%s)", msg, e.File)
	case e.Line > 0:
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *PreprocessError) Unwrap() error {
	return e.Err
}

// Is matches another *PreprocessError with the same code, so that
// errors.Is(err, &PreprocessError{Code: ErrUnknownSlicer}) works.
func (e *PreprocessError) Is(target error) bool {
	t, ok := target.(*PreprocessError)
	return ok && t.Code == e.Code
}

// SetFile sets the file being processed
func (e *PreprocessError) SetFile(file string) *PreprocessError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *PreprocessError) SetLine(line int) *PreprocessError {
	e.Line = line
	return e
}

// New creates a new PreprocessError
func New(code ErrorCode, message string) *PreprocessError {
	return &PreprocessError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *PreprocessError {
	return &PreprocessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IOError creates an error for a failed read or write
func IOError(op string, err error) *PreprocessError {
	return Wrap(err, ErrIO, fmt.Sprintf("I/O processing G-code file: %s failed", op))
}

// InvalidNumberError creates an error for a malformed numeric field of an override comment
func InvalidNumberError(line int, field, value string, err error) *PreprocessError {
	return Wrap(err, ErrInvalidNumber, fmt.Sprintf("invalid numeric value %q for %s", value, field)).
		SetLine(line)
}

// InvalidFeatureError creates an error for an unknown feature name in an override comment
func InvalidFeatureError(line int, name string, err error) *PreprocessError {
	return Wrap(err, ErrInvalidFeature, fmt.Sprintf("invalid feature type %q", name)).
		SetLine(line)
}

// UnknownSlicerError creates the error for a file without a recognized producer header
func UnknownSlicerError() *PreprocessError {
	return New(ErrUnknownSlicer, "slicer could not be identified")
}

// ConfigError creates an error for an unusable external settings document
func ConfigError(path, reason string, err error) *PreprocessError {
	return Wrap(err, ErrConfig, reason).SetFile(path)
}

// Is checks if err (or anything it wraps) carries the given error code
func Is(err error, code ErrorCode) bool {
	return stderrors.Is(err, &PreprocessError{Code: code})
}

// IsOverride checks if err was caused by a malformed embedded override comment
func IsOverride(err error) bool {
	return Is(err, ErrInvalidNumber) || Is(err, ErrInvalidFeature)
}
