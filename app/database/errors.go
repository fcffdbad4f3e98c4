package database

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/statalih/statalih/app/feed"
)

const uniqueViolation = "UNIQUE constraint failed: "

// conflictOrErr turns SQLite uniqueness violations into *feed.ConflictError
// and returns every other error unchanged.
func conflictOrErr(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	code := sqliteErr.Code()
	msg := sqliteErr.Error()
	isUnique := code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, uniqueViolation))
	if !isUnique {
		return err
	}

	return &feed.ConflictError{Field: conflictField(msg), Err: err}
}

// conflictField extracts the column list from messages like
// "UNIQUE constraint failed: items.feed_id, items.guid (2067)".
func conflictField(msg string) string {
	_, cols, found := strings.Cut(msg, uniqueViolation)
	if !found {
		return "unknown"
	}
	cols, _, _ = strings.Cut(cols, " (")

	parts := strings.Split(cols, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if _, col, ok := strings.Cut(part, "."); ok {
			part = col
		}
		parts[i] = part
	}

	return strings.Join(parts, ",")
}
