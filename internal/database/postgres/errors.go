package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/catalogts/internal/errs"
)

// mapError classifies pgx errors. Errors without a SQLSTATE come from the
// dial, TLS or auth handshake and count as connection failures.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	case errors.Is(err, pgx.ErrNoRows):
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case errors.As(err, &pgErr):
		return errs.Wrap(sqlStateKind(pgErr.Code), msg+": "+pgErr.Message, err)
	default:
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
}

// sqlStateKind looks at the exact code first, then the two-character class.
func sqlStateKind(code string) errs.ErrKind {
	switch code {
	case "57014": // query_canceled, raised by statement_timeout
		return errs.ErrKindTimeout
	case "42501": // insufficient_privilege
		return errs.ErrKindPermissionDenied
	}
	switch {
	case strings.HasPrefix(code, "28"):
		return errs.ErrKindPermissionDenied
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"), strings.HasPrefix(code, "57"):
		return errs.ErrKindConnectionFailed
	}
	return errs.ErrKindQueryFailed
}

// mapScanError classifies a Scan failure. The row is already in memory, so
// anything but cancellation is a conversion problem with the query result.
func mapScanError(err error) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, "scan failed", err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, "scan failed", err)
}
