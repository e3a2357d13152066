package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

var (
	// ErrNotFound is returned when a lookup by id or name matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("record already exists")
	// ErrMissingReference is returned when a foreign key points at no row.
	ErrMissingReference = errors.New("referenced record does not exist")
	// ErrInvalid is returned when a value violates a column constraint.
	ErrInvalid = errors.New("invalid record")
)

// classify maps sqlite constraint failures onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrMissingReference, err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return err
	}
	if isUniqueConstraintErr(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// isUniqueConstraintErr returns true when the error text indicates a unique violation.
// Drivers wrapped by other layers lose the typed sqlite3.Error.
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint failed")
}

// nullableString returns nil for "" (meaning no file) else the value.
func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// saveRow updates the row identified by id, inserting it with that id when the
// update touched nothing. It returns the id of the written row.
func saveRow(db DBExecutor, id int64, update, insert, insertWithID string, args ...interface{}) (int64, error) {
	if id == 0 {
		res, err := db.Exec(insert, args...)
		if err != nil {
			return 0, classify(err)
		}
		return res.LastInsertId()
	}

	res, err := db.Exec(update, append(args, id)...)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return id, nil
	}
	if _, err := db.Exec(insertWithID, append([]interface{}{id}, args...)...); err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// deleteRow removes the row with id from table, reporting ErrNotFound when absent.
func deleteRow(db DBExecutor, table string, id int64) error {
	res, err := db.Exec(`DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, table, id)
	}
	return nil
}
