package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Decimal columns are stored as exact TEXT. Timestamps are stored as unix
// milliseconds so range queries stay integer comparisons.

// ParseDecimal parses a stored decimal column value.
func ParseDecimal(str string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse decimal %q: %w", str, err)
	}
	return d, nil
}

// parseNullDecimal parses a nullable decimal column into a pointer, keeping
// NULL as nil.
func parseNullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := ParseDecimal(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// decimalArg converts an optional decimal into a bind argument, mapping nil
// to NULL.
func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// stringArg converts an optional string into a bind argument, mapping the
// empty string to NULL.
func stringArg(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// fromUnixMilli converts a stored timestamp to UTC wall-clock time.
func fromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
