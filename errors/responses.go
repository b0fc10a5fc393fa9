// Package errors provides error response utilities.
package errors

import (
	"errors"
)

// As is a wrapper around errors.As for better error type assertion without a
// second import of the standard library package.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is a wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap is a wrapper around errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
