package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/assetguard/internal/repository"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// resultCode returns the extended SQLite result code carried by err.
func resultCode(err error) (int, bool) {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code(), true
	}
	return 0, false
}

func isForeignKeyViolation(err error) bool {
	code, ok := resultCode(err)
	return ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func isUniqueViolation(err error) bool {
	code, ok := resultCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// isUnavailable reports lock contention and use of a closed handle. The
// latter comes from database/sql and has no result code.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := resultCode(err); ok {
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	return strings.Contains(err.Error(), "database is closed")
}

// wrapErr annotates err with the failed action, tagging transient failures
// with repository.ErrUnavailable.
func wrapErr(action string, err error) error {
	if isUnavailable(err) && !errors.Is(err, repository.ErrUnavailable) {
		return fmt.Errorf("failed to %s: %w: %w", action, repository.ErrUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
