package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/focus/domain"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeNotNull         = "23502"
	codeForeignKey      = "23503"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// translate maps driver failures onto the domain taxonomy. notFound is
// returned for pgx.ErrNoRows.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return domain.Unavailable("record store timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.Unavailable("request canceled", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return domain.WrapError(domain.ErrCodeConflict, "record already exists", err)
		case codeCheckViolation, codeNotNull:
			return domain.WrapError(domain.ErrCodeInvalid, "record violates a constraint", err)
		case codeForeignKey:
			return domain.WrapError(domain.ErrCodeInvalid, "referenced record does not exist", err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.Unavailable("record store unreachable", err)
	}
	return err
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 100:
		return 100
	}
	return limit
}
