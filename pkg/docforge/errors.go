package docforge

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports input rejected by a store operation.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	parts := []string{fmt.Sprintf("%d validation issues:", len(e.Issues))}
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

// NewValidationError creates a validation error with a single issue
func NewValidationError(field, message string) error {
	return &ValidationError{Issues: []ValidationIssue{{Field: field, Message: message}}}
}

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// TemplateLoadError reports a template folder or template file that cannot be read.
type TemplateLoadError struct {
	Path  string
	Cause error
}

func (e *TemplateLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template load error for '%s': %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("template load error for '%s'", e.Path)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Cause
}

// NewTemplateLoadError creates a new template load error
func NewTemplateLoadError(path string, cause error) error {
	return &TemplateLoadError{Path: path, Cause: cause}
}

// SerializationError reports a failure writing a package part.
type SerializationError struct {
	Part  string
	Cause error
}

func (e *SerializationError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("serialization error in %s: %v", e.Part, e.Cause)
	}
	return fmt.Sprintf("serialization error: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a new serialization error
func NewSerializationError(part string, cause error) error {
	return &SerializationError{Part: part, Cause: cause}
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFoundError checks if an error is a not-found error
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsTemplateLoadError checks if an error is a template load error
func IsTemplateLoadError(err error) bool {
	var target *TemplateLoadError
	return errors.As(err, &target)
}

// IsSerializationError checks if an error is a serialization error
func IsSerializationError(err error) bool {
	var target *SerializationError
	return errors.As(err, &target)
}
