package store

import (
	"database/sql"
	"errors"

	"modernc.org/sqlite"
)

// Extended result codes from sqlite3.h.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

var sqliteDialect = dialect{
	name:   "sqlite",
	idType: "TEXT",
	isConflict: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		code := sqliteErr.Code()
		return code == sqliteConstraintPrimaryKey || code == sqliteConstraintUnique
	},
}

// NewSQLite constructs a SQLite-backed person store on an open pool.
func NewSQLite(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: sqliteDialect}
}
