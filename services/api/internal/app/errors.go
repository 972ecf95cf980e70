package app

import (
	"errors"
	"fmt"

	"booktracker/pkg/validation"
)

var (
	// ErrUnauthorized is returned by identity-scoped operations called without a session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is shown to end users as is, and does not reveal
	// whether the username exists.
	ErrInvalidCredentials = errors.New("Username or password incorrect.")

	// ErrNoSession is returned by Logout when the caller holds no session.
	ErrNoSession = errors.New("no active session")

	// ErrInvalidID matches every *InvalidIDError.
	ErrInvalidID = errors.New("invalid id")
)

// ValidationError carries the field errors of a malformed request body.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
}

// RuleViolation is a business-rule rejection such as a duplicate or a
// dangling reference.
type RuleViolation struct {
	Field   string
	Message string
}

func (e *RuleViolation) Error() string {
	return e.Field + ": " + e.Message
}

// InvalidIDError reports a path identifier that is not an integer.
type InvalidIDError struct {
	Message string
}

func (e *InvalidIDError) Error() string { return e.Message }

func (e *InvalidIDError) Is(target error) bool { return target == ErrInvalidID }

func validate(body validation.Body, fields ...validation.FieldRules) error {
	if errs := validation.Validate(body, fields...); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func violation(field, message string) error {
	return &RuleViolation{Field: field, Message: message}
}
