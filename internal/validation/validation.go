package validation

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID   = fmt.Errorf("invalid UUID format")
	ErrInvalidSymbol = fmt.Errorf("invalid asset symbol")
)

// symbolPattern matches exchange-style ticker symbols.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateSymbol checks if a string is a plausible asset symbol: 1 to 10
// uppercase letters or digits.
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}
