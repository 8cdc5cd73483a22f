package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL unique_violation.
const uniqueViolation = "23505"

// MapError translates storage-level errors into the caller's domain
// sentinels: sql.ErrNoRows becomes notFoundErr, a unique-constraint
// violation becomes duplicateErr, anything else passes through.
func MapError(err error, notFoundErr, duplicateErr error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return duplicateErr
	}
	return err
}
