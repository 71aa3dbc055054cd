package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrTableMissing is returned when the dishes table does not exist.
	ErrTableMissing = errors.New("dishes table does not exist")
)

// Kind classifies a storage failure.
type Kind int

const (
	// KindQuery covers statement-level failures: bad SQL, constraint
	// violations, missing relations.
	KindQuery Kind = iota
	// KindUnavailable means the store could not be reached at all.
	KindUnavailable
)

func (k Kind) String() string {
	if k == KindUnavailable {
		return "unavailable"
	}
	return "query"
}

// StorageError wraps any failure raised while talking to the store.
type StorageError struct {
	Op   string
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err means the store could not be reached.
func IsUnavailable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == KindUnavailable
}

// SQLSTATE codes the repository reacts to.
const (
	codeUndefinedTable  = "42P01"
	codeDuplicateTable  = "42P07"
	codeDuplicateColumn = "42701"
	codeUniqueViolation = "23505"
	codeTooManyConns    = "53300"
	codeAdminShutdown   = "57P01"
	codeCannotConnect   = "57P03"
)

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if isUndefinedTable(err) {
		err = fmt.Errorf("%w: %w", ErrTableMissing, err)
	}
	return &StorageError{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindUnavailable
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			return KindUnavailable
		case pgErr.Code == codeTooManyConns, pgErr.Code == codeAdminShutdown, pgErr.Code == codeCannotConnect:
			return KindUnavailable
		}
		return KindQuery
	}

	// Errors raised before anything reached the server are connection problems.
	if pgconn.SafeToRetry(err) {
		return KindUnavailable
	}
	return KindQuery
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUndefinedTable(err error) bool {
	return pgCode(err) == codeUndefinedTable
}

// isSchemaConflict reports whether a DDL statement lost a race against
// another session creating the same table or column.
func isSchemaConflict(err error) bool {
	switch pgCode(err) {
	case codeDuplicateTable, codeDuplicateColumn, codeUniqueViolation:
		return true
	}
	return false
}
