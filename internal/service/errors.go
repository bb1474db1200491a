package service

import (
	"fmt"

	"github.com/educacao-adventista/matriculometro/internal/validation"
)

// ValidationError reports missing, negative or malformed input.
type ValidationError struct {
	Message string
	Fields  []validation.FieldError
}

func NewValidationError(msg string, fields ...validation.FieldError) error {
	return &ValidationError{Message: msg, Fields: fields}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError reports a category that is already taken.
type ConflictError struct {
	Category string
}

func (e *ConflictError) Error() string {
	if e.Category == "" {
		return "goal conflicts with an existing goal"
	}
	return fmt.Sprintf("category '%s' already exists", e.Category)
}
