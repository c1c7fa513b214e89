package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"peopleapi/internal/person/models"
	"peopleapi/pkg/platform/sentinel"
)

const selectPerson = `SELECT id, first_name, last_name FROM person`

// dialect carries the differences between SQL engines. Queries are written
// with ? placeholders and rebound per dialect.
type dialect struct {
	name          string
	idType        string
	numberedBinds bool
	isConflict    func(error) bool
}

func (d dialect) rebind(query string) string {
	if !d.numberedBinds {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore persists persons in a relational database through database/sql.
// The same statements serve PostgreSQL and SQLite.
type SQLStore struct {
	db          *sql.DB
	dialect     dialect
	dropOnClose bool
}

func (s *SQLStore) Insert(ctx context.Context, p *models.Person) error {
	_, err := s.db.ExecContext(ctx,
		s.dialect.rebind(`INSERT INTO person (id, first_name, last_name) VALUES (?, ?, ?)`),
		p.ID.String(), p.FirstName, p.LastName)
	if err != nil {
		if s.dialect.isConflict(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *SQLStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(selectPerson+` WHERE id = ?`), id.String())
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find person by id: %w", err)
	}
	return p, nil
}

func (s *SQLStore) FindAll(ctx context.Context) ([]*models.Person, error) {
	return s.Search(ctx, models.Filter{})
}

func (s *SQLStore) Search(ctx context.Context, filter models.Filter) ([]*models.Person, error) {
	var (
		conds []string
		args  []any
	)
	if filter.FirstName != "" {
		conds = append(conds, `LOWER(first_name) LIKE LOWER(?) ESCAPE '\'`)
		args = append(args, containsPattern(filter.FirstName))
	}
	if filter.LastName != "" {
		conds = append(conds, `LOWER(last_name) LIKE LOWER(?) ESCAPE '\'`)
		args = append(args, containsPattern(filter.LastName))
	}
	query := selectPerson
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	defer rows.Close()

	persons := make([]*models.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	return persons, nil
}

func (s *SQLStore) Update(ctx context.Context, p *models.Person) error {
	res, err := s.db.ExecContext(ctx,
		s.dialect.rebind(`UPDATE person SET first_name = ?, last_name = ? WHERE id = ?`),
		p.FirstName, p.LastName, p.ID.String())
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update person rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM person WHERE id = ?`), id.String())
	if err != nil {
		return false, fmt.Errorf("delete person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete person rows affected: %w", err)
	}
	return affected > 0, nil
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", sentinel.ErrUnavailable, s.dialect.name, err)
	}
	return nil
}

// Close drops the table when the store was opened in create-drop mode and
// then closes the connection pool.
func (s *SQLStore) Close() error {
	var dropErr error
	if s.dropOnClose {
		if _, err := s.db.Exec(`DROP TABLE IF EXISTS person`); err != nil {
			dropErr = fmt.Errorf("drop person table: %w", err)
		}
	}
	return errors.Join(dropErr, s.db.Close())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*models.Person, error) {
	var p models.Person
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName); err != nil {
		return nil, err
	}
	return &p, nil
}
