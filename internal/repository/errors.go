// Package repository defines the MySQL data access layer and the error
// types reused across repositories. These sentinel values allow higher
// layers such as services to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot be performed because of
// the current state of the row (e.g. a review already exists).
var ErrConflict = errors.New("conflict")

// ErrEmailExists and ErrBarNumberExists report unique key violations on
// the accounts table.
var (
	ErrEmailExists     = errors.New("email already exists")
	ErrBarNumberExists = errors.New("bar number already exists")
)

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique violation and, if so, the
// message text that names the violated index.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return me.Message, true
	}
	return "", false
}

// accountConflict maps an accounts insert error onto the matching sentinel.
func accountConflict(err error) error {
	msg, ok := duplicateKey(err)
	if !ok {
		return err
	}
	if strings.Contains(msg, "bar_number") {
		return ErrBarNumberExists
	}
	return ErrEmailExists
}
