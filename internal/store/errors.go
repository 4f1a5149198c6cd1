package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist or, for owner-scoped
// statements, when no row matched both the id and the owner.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write.
var ErrConflict = errors.New("conflict")

// ErrInvalidValue is returned when Postgres cannot store a value, such as
// an integer out of column range or a string holding a NUL byte.
var ErrInvalidValue = errors.New("invalid value")

const (
	pqUniqueViolation           = "23505"
	pqInvalidTextRepresentation = "22P02"
	pqNumericValueOutOfRange    = "22003"
	pqCharacterNotInRepertoire  = "22021"
)

// translateError maps driver errors onto the package sentinels. Errors it
// does not recognise are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrConflict
		case pqInvalidTextRepresentation:
			// A malformed uuid can never match a row.
			return ErrNotFound
		case pqNumericValueOutOfRange, pqCharacterNotInRepertoire:
			return fmt.Errorf("%w: %s", ErrInvalidValue, pqErr.Message)
		}
	}
	return err
}
