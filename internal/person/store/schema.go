package store

import (
	"context"
	"fmt"
)

// SchemaMode controls what Open does to the person table.
type SchemaMode string

const (
	// SchemaCreateDrop recreates the table on open and drops it on Close.
	SchemaCreateDrop SchemaMode = "create-drop"
	// SchemaValidate fails unless the table already has the expected columns.
	SchemaValidate SchemaMode = "validate"
	// SchemaMigrate creates the table and indexes when missing.
	SchemaMigrate SchemaMode = "migrate"
	// SchemaNone leaves the database untouched.
	SchemaNone SchemaMode = "none"
)

// ParseSchemaMode accepts the configuration spelling of a schema mode.
func ParseSchemaMode(s string) (SchemaMode, error) {
	switch m := SchemaMode(s); m {
	case SchemaCreateDrop, SchemaValidate, SchemaMigrate, SchemaNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown schema mode %q", s)
	}
}

func (d dialect) schemaDDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS person (
	id ` + d.idType + ` PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS person_first_name_lower_idx ON person (LOWER(first_name))`,
		`CREATE INDEX IF NOT EXISTS person_last_name_lower_idx ON person (LOWER(last_name))`,
	}
}

// ApplySchema brings the person table in line with mode.
func (s *SQLStore) ApplySchema(ctx context.Context, mode SchemaMode) error {
	switch mode {
	case SchemaNone:
		return nil
	case SchemaValidate:
		rows, err := s.db.QueryContext(ctx, selectPerson+` WHERE 1 = 0`)
		if err != nil {
			return fmt.Errorf("validate person schema: %w", err)
		}
		return rows.Close()
	case SchemaCreateDrop:
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS person`); err != nil {
			return fmt.Errorf("drop person table: %w", err)
		}
		s.dropOnClose = true
		return s.createSchema(ctx)
	case SchemaMigrate:
		return s.createSchema(ctx)
	default:
		return fmt.Errorf("unknown schema mode %q", mode)
	}
}

func (s *SQLStore) createSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schemaDDL() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create person schema: %w", err)
		}
	}
	return nil
}
