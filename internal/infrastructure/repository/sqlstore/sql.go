package sqlstore

import (
	"database/sql"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

func isNotFound(err error) bool {
	return crerr.Is(err, sql.ErrNoRows)
}

// isBindParameterMismatch matches the error poolers in transaction mode raise when a cached
// statement was prepared with a different parameter count.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "bind message supplies")
}

func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unnamed prepared statement does not exist") || strings.Contains(msg, "(26000)")
}

// shouldRetryLiteral reports whether a parameterized read should be retried with inlined literals.
func shouldRetryLiteral(err error) bool {
	return isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err)
}
