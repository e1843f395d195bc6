package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Persistence failures are classified so the telemetry endpoint can tell
// an operator whether the database is misconfigured (permissions,
// missing schema) or plain broken. This system assumes a trusted
// operator audience for that detail.
var (
	// ErrPermissionDenied indicates the database role lacks privileges
	// for the attempted operation.
	ErrPermissionDenied = errors.New("store permission denied")

	// ErrSchemaMissing indicates a referenced table does not exist,
	// typically because migrations have not been run.
	ErrSchemaMissing = errors.New("store schema missing")

	// ErrDuplicate indicates a unique constraint violation, e.g. creating
	// a link whose slug is already taken.
	ErrDuplicate = errors.New("store duplicate record")
)

const (
	pgCodeInsufficientPrivilege = "42501"
	pgCodeUndefinedTable        = "42P01"
	pgCodeUniqueViolation       = "23505"
)

// classify maps driver errors onto the store error taxonomy. Unknown
// errors pass through unchanged as generic store failures.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeInsufficientPrivilege:
			return fmt.Errorf("%w: %s", ErrPermissionDenied, pgErr.Message)
		case pgCodeUndefinedTable:
			return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
		case pgCodeUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Message)
		}
	}

	return err
}

// Code extracts the driver error code for diagnostics, if any.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}
