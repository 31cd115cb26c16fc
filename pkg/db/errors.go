package db

import (
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

// pgUniqueViolationCode is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether err carries a Postgres unique violation.
// When constraintName is provided, the violated constraint must match it too.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	dump := pkgerrors.Dump(err)
	if dump.PGCode != pgUniqueViolationCode {
		return false
	}
	if constraintName != "" {
		return dump.PGConstraint == constraintName
	}
	return true
}
