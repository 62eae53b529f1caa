package model

import "github.com/m-mizutani/goerr/v2"

// ErrValidation is the sentinel wrapped by every ValidationError
var ErrValidation = goerr.New("validation failed")

// ValidationError reports the first payload field that failed validation.
// Message is safe to return to API callers.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Payload field names
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldAssignedTo  = "assigned_to"
	FieldDueDate     = "due_date"
)
