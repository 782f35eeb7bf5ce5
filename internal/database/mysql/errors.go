package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/catalogts/internal/errs"
)

// Server error numbers, see
// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
var serverErrorKinds = map[uint16]errs.ErrKind{
	1044: errs.ErrKindPermissionDenied, // ER_DBACCESS_DENIED_ERROR
	1045: errs.ErrKindPermissionDenied, // ER_ACCESS_DENIED_ERROR
	1142: errs.ErrKindPermissionDenied, // ER_TABLEACCESS_DENIED_ERROR
	1143: errs.ErrKindPermissionDenied, // ER_COLUMNACCESS_DENIED_ERROR
	1040: errs.ErrKindConnectionFailed, // ER_CON_COUNT_ERROR
	1049: errs.ErrKindConnectionFailed, // ER_BAD_DB_ERROR
	1203: errs.ErrKindConnectionFailed, // ER_TOO_MANY_USER_CONNECTIONS
	2002: errs.ErrKindConnectionFailed,
	2003: errs.ErrKindConnectionFailed,
	2006: errs.ErrKindConnectionFailed,
	2013: errs.ErrKindConnectionFailed,
	3024: errs.ErrKindTimeout, // ER_QUERY_TIMEOUT
}

// mapError classifies err. Anything that is not a server error is treated
// as a connection problem.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var serverErr *mysql.MySQLError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	case errors.Is(err, sql.ErrNoRows):
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case errors.As(err, &serverErr):
		kind, ok := serverErrorKinds[serverErr.Number]
		if !ok {
			kind = errs.ErrKindQueryFailed
		}
		return errs.Wrap(kind, msg+": "+serverErr.Message, err)
	default:
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
}

// mapScanError classifies a Scan failure. The row is already in memory, so
// anything but cancellation is a conversion problem with the query result.
func mapScanError(err error) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, "scan failed", err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, "scan failed", err)
}
