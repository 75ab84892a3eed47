// Package input parses structured fragments of free-form user messages.
package input

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyList indicates the input contained no values at all.
	ErrEmptyList = errors.New("empty value list")
	// ErrEmptyValue indicates at least one comma-separated value was blank.
	ErrEmptyValue = errors.New("empty value in list")
)

// ParseCommaSeparated splits input on commas and trims each value. The
// parse is idempotent on its own ", "-joined output.
func ParseCommaSeparated(input string) ([]string, error) {
	parts := strings.Split(input, ",")

	values := make([]string, 0, len(parts))
	for _, part := range parts {
		values = append(values, strings.TrimSpace(part))
	}

	if len(values) == 1 && values[0] == "" {
		return nil, ErrEmptyList
	}

	for _, value := range values {
		if value == "" {
			return nil, ErrEmptyValue
		}
	}

	return values, nil
}
