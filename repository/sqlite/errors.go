package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fastygo/focus/domain"
)

// translate maps driver failures onto the domain taxonomy. notFound is
// returned for sql.ErrNoRows.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable("record store timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.Unavailable("request canceled", err)
	}

	var sErr *sqlite.Error
	if errors.As(err, &sErr) {
		switch sErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return domain.WrapError(domain.ErrCodeConflict, "record already exists", err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return domain.WrapError(domain.ErrCodeInvalid, "record violates a constraint", err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return domain.WrapError(domain.ErrCodeInvalid, "referenced record does not exist", err)
		}
	}
	if isTransientSQLiteErr(err) {
		return domain.Unavailable("record store busy", err)
	}
	return err
}

func isUniqueOn(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
