package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recipebox/internal/recipe"
)

// FetchAll returns the list-view projection of every recipe, ordered by id.
// A payload that fails to decode aborts the whole fetch.
//
// Returns an empty slice (not nil) if the catalog is empty.
func (s *Store) FetchAll(ctx context.Context) ([]recipe.RecipeLight, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]recipe.RecipeLight, 0, len(records))
	for _, rec := range records {
		light, err := recipe.DecodeLight(rec.Payload, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch all: recipe %d: %w", rec.ID, err)
		}
		out = append(out, light)
	}
	return out, nil
}

// FetchByID returns the full recipe with the given id.
// Returns recipe.ErrNotFound if no row has that id.
func (s *Store) FetchByID(ctx context.Context, id int64) (recipe.Recipe, error) {
	var rec recipe.StoredRecord
	err := s.withConn(ctx, "fetch", func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, `
			SELECT id, name, payload FROM recipes WHERE id = ?
		`, id).Scan(&rec.ID, &rec.Name, &rec.Payload)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("fetch recipe %d: %w", id, recipe.ErrNotFound)
		}
		if err != nil {
			return recipe.NewPersistenceError("fetch", err)
		}
		return nil
	})
	if err != nil {
		return recipe.Recipe{}, err
	}

	r, err := recipe.DecodeRecord(rec)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("fetch recipe %d: %w", id, err)
	}
	return r, nil
}

// FindIDByName returns the id of a recipe with the given name, or nil if
// there is none. An empty name returns nil without querying.
//
// Names are not unique; when several recipes share a name the most recently
// created one wins, which is the one a just-completed Add produced.
func (s *Store) FindIDByName(ctx context.Context, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}

	var id int64
	found := true
	err := s.withConn(ctx, "find by name", func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, `
			SELECT id FROM recipes
			WHERE name = ?
			ORDER BY id DESC
			LIMIT 1
		`, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return recipe.NewPersistenceError("find by name", err)
		}
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &id, nil
}

// Records returns every stored row undecoded, ordered by id.
//
// Returns an empty slice (not nil) if the catalog is empty.
func (s *Store) Records(ctx context.Context) ([]recipe.StoredRecord, error) {
	var records []recipe.StoredRecord
	err := s.withConn(ctx, "fetch all", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT id, name, payload FROM recipes
			ORDER BY id ASC
		`)
		if err != nil {
			return recipe.NewPersistenceError("fetch all", err)
		}
		defer rows.Close()

		for rows.Next() {
			var rec recipe.StoredRecord
			if err := rows.Scan(&rec.ID, &rec.Name, &rec.Payload); err != nil {
				return recipe.NewPersistenceError("fetch all", fmt.Errorf("scan: %w", err))
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return recipe.NewPersistenceError("fetch all", fmt.Errorf("iterate: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = []recipe.StoredRecord{}
	}
	return records, nil
}

// Count returns the number of stored recipes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.withConn(ctx, "count", func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&n); err != nil {
			return recipe.NewPersistenceError("count", err)
		}
		return nil
	})
	return n, err
}
