// Package repository implements data access on top of database/sql.
// This file defines sentinel error values shared by the repositories so
// that handlers can map storage outcomes onto HTTP statuses without
// inspecting driver errors themselves. Uniqueness violations surface as
// conflict-style sentinels produced from the MySQL duplicate-key error,
// which means the invariants hold under concurrent writers too: the
// storage engine picks the single winner.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update loses to a
// uniqueness constraint and no more specific sentinel applies.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key error
// (error 1062, ER_DUP_ENTRY).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// duplicateOn reports whether err is a duplicate-key error on the named
// unique key. MySQL embeds the key name in the 1062 message.
func duplicateOn(err error, key string) bool {
	return isDuplicate(err) && strings.Contains(err.Error(), key)
}
