package validator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxKeyLength is the longest key accepted by the stores, in bytes
	MaxKeyLength = 250

	// reservedKeyChars may not appear in keys
	reservedKeyChars = `{}()/\@`
)

// ValidateKey checks if a string is a legal cache key
func ValidateKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Message: "key cannot be empty"}
	}

	if len(key) > MaxKeyLength {
		return &ValidationError{Field: "key", Message: fmt.Sprintf("key too long (max %d bytes)", MaxKeyLength)}
	}

	if !utf8.ValidString(key) {
		return &ValidationError{Field: "key", Message: "key must be valid UTF-8"}
	}

	if i := strings.IndexAny(key, reservedKeyChars); i >= 0 {
		return &ValidationError{Field: "key", Message: fmt.Sprintf("key contains reserved character %q", key[i])}
	}

	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return &ValidationError{Field: "key", Message: "key contains whitespace or control characters"}
		}
	}

	return nil
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
