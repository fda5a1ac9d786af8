package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Error handling and scanning utilities for SQLite.

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// SQLite unique constraint error message
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed: UNIQUE")
}

// isNoRows checks if an error indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// boolToInt converts a bool to the 0/1 representation stored in SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableTime formats an optional timestamp for storage, NULL when absent.
// RFC3339Nano keeps sub-second precision through the text column.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

// parseNullableTime parses an optional RFC3339Nano column value.
func parseNullableTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil
	}
	return &t
}
