// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user input outside the accepted bounds.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGeocodeNotFound indicates the geocoder returned no results
	// for the given address.
	ErrGeocodeNotFound = errors.New("no location found for address")

	// ErrGeocodeUnavailable indicates the geocoding service failed or
	// returned a non-success status.
	ErrGeocodeUnavailable = errors.New("geocoding service unavailable")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// APIError represents a Telegram Bot API failure with context.
type APIError struct {
	Method     string
	StatusCode int
	ErrorCode  int
	Desc       string
}

func (e *APIError) Error() string {
	if e.ErrorCode > 0 {
		return fmt.Sprintf("telegram api error (method=%s, code=%d): %s", e.Method, e.ErrorCode, e.Desc)
	}
	return fmt.Sprintf("telegram api error (method=%s, status=%d): %s", e.Method, e.StatusCode, e.Desc)
}

// NewAPIError creates a new Telegram API error.
func NewAPIError(method string, statusCode, errorCode int, desc string) *APIError {
	return &APIError{
		Method:     method,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Desc:       desc,
	}
}
