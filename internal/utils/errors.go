package utils

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const (
	// pqQueryCanceled is SQLSTATE 57014, raised when lib/pq cancels a
	// statement because its context ended.
	pqQueryCanceled = "57014"
	// mysqlQueryInterrupted is ER_QUERY_INTERRUPTED.
	mysqlQueryInterrupted = 1317
)

// Common application errors used across services.
var (
	ErrSourceUnavailable = errors.New("source store unavailable")
	ErrTargetUnavailable = errors.New("target store unavailable")
	ErrStepDependency    = errors.New("prerequisite step did not complete")
	ErrRunAborted        = errors.New("run aborted")
)

// IsConnectionError reports whether err means the store could not be reached
// or the session was lost, as opposed to a failure of a single statement.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08xxx connection exception, 57P01..57P03 server shutdown / not accepting
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsCancellation reports whether err stems from a cancelled or expired
// context, including the server-side errors drivers return for a statement
// interrupted that way.
func IsCancellation(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqQueryCanceled
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlQueryInterrupted
}

// IsConstraintViolation reports whether err is an integrity constraint
// violation (SQLSTATE class 23).
func IsConstraintViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == "23"
}

// ErrorType returns a short label for err suitable for metrics.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsCancellation(err):
		return "cancelled"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrTargetUnavailable):
		return "target_unavailable"
	case errors.Is(err, ErrStepDependency):
		return "dependency"
	case errors.Is(err, ErrRunAborted):
		return "aborted"
	case IsConstraintViolation(err):
		return "constraint"
	default:
		return "database"
	}
}
