package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/recipebox/internal/recipe"
)

// Create inserts r and returns the assigned id. Any id carried by r is
// ignored; the row always gets a fresh one.
func (s *Store) Create(ctx context.Context, r recipe.Recipe) (int64, error) {
	payload, err := recipe.Encode(r)
	if err != nil {
		return 0, fmt.Errorf("create recipe: %w", err)
	}

	var id int64
	err = s.withConn(ctx, "create", func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, `
			INSERT INTO recipes (name, payload)
			VALUES (?, ?)
		`, r.Name, string(payload))
		if err != nil {
			return recipe.NewPersistenceError("create", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return recipe.NewPersistenceError("create", fmt.Errorf("last insert id: %w", err))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("recipe created", "id", id, "name", r.Name)
	return id, nil
}

// Update overwrites the persisted recipe r.
// Returns recipe.ErrNotFound if no row has r's id.
func (s *Store) Update(ctx context.Context, r recipe.Recipe) error {
	if r.ID == nil {
		return &recipe.ValidationError{Field: "id", Message: "update requires a persisted recipe"}
	}
	id := *r.ID

	payload, err := recipe.Encode(r)
	if err != nil {
		return fmt.Errorf("update recipe %d: %w", id, err)
	}

	return s.withConn(ctx, "update", func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, `
			UPDATE recipes SET name = ?, payload = ?
			WHERE id = ?
		`, r.Name, string(payload), id)
		if err != nil {
			return recipe.NewPersistenceError("update", err)
		}
		return requireAffected(result, "update", id)
	})
}

// Delete removes the recipe with the given id.
// Returns recipe.ErrNotFound if no row has that id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.withConn(ctx, "delete", func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
		if err != nil {
			return recipe.NewPersistenceError("delete", err)
		}
		return requireAffected(result, "delete", id)
	})
}

// Duplicate copies the recipe with the given id into a new row with a fresh
// id and identical name and payload. The copy is a single INSERT ... SELECT,
// so it is atomic without an explicit transaction.
// Returns recipe.ErrNotFound if no row has that id.
func (s *Store) Duplicate(ctx context.Context, id int64) error {
	return s.withConn(ctx, "duplicate", func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, `
			INSERT INTO recipes (name, payload)
			SELECT name, payload FROM recipes WHERE id = ?
		`, id)
		if err != nil {
			return recipe.NewPersistenceError("duplicate", err)
		}
		return requireAffected(result, "duplicate", id)
	})
}

// requireAffected maps a zero-row result to recipe.ErrNotFound.
func requireAffected(result sql.Result, op string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return recipe.NewPersistenceError(op, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return fmt.Errorf("%s recipe %d: %w", op, id, recipe.ErrNotFound)
	}
	return nil
}
