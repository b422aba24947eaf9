package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks collaborator failures (metadata, storage, messaging)
	// that callers surface as empty or negative results.
	ErrTransient = errors.New("transient failure")
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable configuration. Fatal at
	// startup, never raised on the runtime path.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks references to records that do not exist or do not
	// belong to the caller.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether an error is a collaborator failure that should
// degrade to an empty or negative result rather than abort the caller.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
