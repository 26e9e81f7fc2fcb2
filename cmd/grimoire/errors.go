package main

import "fmt"

// commandError wraps a CLI-command failure with an operator-facing
// suggestion, mirroring the teacher's add.go error shape.
type commandError struct {
	operation  string
	context    string
	cause      error
	suggestion string
}

func newCommandError(operation, context string, cause error, suggestion string) error {
	return &commandError{operation: operation, context: context, cause: cause, suggestion: suggestion}
}

func (e *commandError) Error() string {
	return fmt.Sprintf("Failed to %s: %s\n\nError: %v\n\nSuggestion: %s", e.operation, e.context, e.cause, e.suggestion)
}

func (e *commandError) Unwrap() error { return e.cause }
