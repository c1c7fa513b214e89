package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Options selects and tunes a backend.
type Options struct {
	// URL picks the backend by scheme: postgres:// or postgresql:// for
	// PostgreSQL, sqlite:, sqlite:// or file: for SQLite, memory: for the
	// in-process map.
	URL             string
	SchemaMode      SchemaMode
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// Open connects to the backend named by opts.URL and applies the schema mode.
func Open(ctx context.Context, opts Options) (Backend, error) {
	scheme, rest, ok := strings.Cut(opts.URL, ":")
	if !ok {
		return nil, fmt.Errorf("store url %q has no scheme", opts.URL)
	}
	mode := opts.SchemaMode
	if mode == "" {
		mode = SchemaNone
	}

	var (
		s   *SQLStore
		err error
	)
	switch strings.ToLower(scheme) {
	case "memory":
		return NewInMemory(), nil
	case "postgres", "postgresql":
		s, err = openSQL("postgres", opts.URL, opts, NewPostgres)
	case "sqlite":
		s, err = openSQL("sqlite", strings.TrimPrefix(rest, "//"), opts, NewSQLite)
	case "file":
		s, err = openSQL("sqlite", opts.URL, opts, NewSQLite)
	default:
		return nil, fmt.Errorf("unsupported store url scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	if err := s.ApplySchema(ctx, mode); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func openSQL(driver, dsn string, opts Options, build func(*sql.DB) *SQLStore) (*SQLStore, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// one writer at a time; also keeps a :memory: database alive and shared
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		return build(db), nil
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return build(db), nil
}
