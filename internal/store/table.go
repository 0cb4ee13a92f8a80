package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Where is a field-equality predicate for Find queries. Multiple Where
// values are combined with AND.
type Where struct {
	Field string
	Value any
}

// Eq builds a Where matching rows whose field equals value.
func Eq(field string, value any) Where {
	return Where{Field: field, Value: value}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// table describes how one collection maps onto its SQL table.
// columns[0] is always the id column.
type table[T any] struct {
	name    string
	columns []string
	scan    func(rowScanner) (T, error)
	values  func(T) []any
}

func (t table[T]) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t table[T]) selectList() string {
	return strings.Join(t.columns, ", ")
}

func (t table[T]) insert(ctx context.Context, tx *sql.Tx, v T) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, t.selectList(), placeholders)

	if _, err := tx.ExecContext(ctx, query, t.values(v)...); err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

func (t table[T]) findByID(ctx context.Context, tx *sql.Tx, id string) (T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.selectList(), t.name)

	v, err := t.scan(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("find %s %s: %w", t.name, id, err)
	}
	return v, nil
}

// find returns every row matching all predicates, in insertion order.
// Returns an empty slice (not nil) when nothing matches.
func (t table[T]) find(ctx context.Context, tx *sql.Tx, where []Where) ([]T, error) {
	var (
		conds []string
		args  []any
	)
	for _, w := range where {
		if !t.hasColumn(w.Field) {
			return nil, fmt.Errorf("find %s: unknown field %q", t.name, w.Field)
		}
		conds = append(conds, w.Field+" = ?")
		args = append(args, w.Value)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", t.selectList(), t.name)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid ASC"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.name, err)
	}

	return out, nil
}

// save overwrites every non-id column of an existing row.
func (t table[T]) save(ctx context.Context, tx *sql.Tx, v T) error {
	sets := make([]string, 0, len(t.columns)-1)
	for _, c := range t.columns[1:] {
		sets = append(sets, c+" = ?")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))

	vals := t.values(v)
	args := append(vals[1:], vals[0])

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save %s: %w", t.name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save %s: rows affected: %w", t.name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// removeByID deletes a row and returns it as it was.
func (t table[T]) removeByID(ctx context.Context, tx *sql.Tx, id string) (T, error) {
	v, err := t.findByID(ctx, tx, id)
	if err != nil {
		return v, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name)
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		var zero T
		return zero, fmt.Errorf("remove %s %s: %w", t.name, id, err)
	}
	return v, nil
}
