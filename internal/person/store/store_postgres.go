package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for duplicate keys.
const uniqueViolation pq.ErrorCode = "23505"

var postgresDialect = dialect{
	name:          "postgres",
	idType:        "UUID",
	numberedBinds: true,
	isConflict: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
	},
}

// NewPostgres constructs a PostgreSQL-backed person store on an open pool.
func NewPostgres(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: postgresDialect}
}
