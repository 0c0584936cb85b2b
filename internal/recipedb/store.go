// Package recipedb keeps a SQLite snapshot of the canonical recipes from the
// last ingest, including multi-product recipes the flat file cannot carry.
package recipedb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"prodplan/internal/recipe"
)

// Store manages the recipe snapshot in SQLite.
type Store struct {
	DBPath string
	db     *sql.DB
}

const (
	roleProduct    = "product"
	roleIngredient = "ingredient"
)

// Meta keys written by the CLI.
const (
	MetaIngestedAt = "ingested_at"
	MetaRunID      = "run_id"
	MetaSources    = "sources"
)

// Open opens or creates the snapshot database.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve recipe db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure recipe db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open recipe db: %w", err)
	}

	store := &Store{
		DBPath: absPath,
		db:     db,
	}

	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS recipes (
	name TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	energy_required REAL NOT NULL,
	enabled INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS components (
	recipe TEXT NOT NULL REFERENCES recipes(name) ON DELETE CASCADE,
	role TEXT NOT NULL,
	position INTEGER NOT NULL,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	amount REAL NOT NULL,
	PRIMARY KEY (recipe, role, position)
);

CREATE INDEX IF NOT EXISTS idx_components_name ON components(name, role);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	key TEXT PRIMARY KEY,
	value TEXT
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("create recipe schema: %w", err)
	}
	return nil
}

// ReplaceAll swaps the stored snapshot for recipes in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, recipes []recipe.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM components"); err != nil {
		return fmt.Errorf("clear components: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM recipes"); err != nil {
		return fmt.Errorf("clear recipes: %w", err)
	}

	insertRecipe, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO recipes (name, category, energy_required, enabled)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare recipe insert: %w", err)
	}
	defer insertRecipe.Close()

	insertComponent, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO components (recipe, role, position, kind, name, amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare component insert: %w", err)
	}
	defer insertComponent.Close()

	for _, r := range recipes {
		if _, err := insertRecipe.ExecContext(ctx, r.Name, r.Category, r.CycleTime, r.Enabled); err != nil {
			return fmt.Errorf("insert recipe %s: %w", r.Name, err)
		}
		for role, list := range map[string][]recipe.Component{roleProduct: r.Products, roleIngredient: r.Ingredients} {
			for i, c := range list {
				if _, err := insertComponent.ExecContext(ctx, r.Name, role, i, string(c.Kind), c.Name, c.Amount); err != nil {
					return fmt.Errorf("insert %s of %s: %w", role, r.Name, err)
				}
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshot_meta (key, value) VALUES (?, ?)
	`, MetaIngestedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("stamp snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List returns every stored recipe ordered by name.
func (s *Store) List(ctx context.Context) ([]recipe.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, category, energy_required, enabled
		FROM recipes
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []recipe.Recipe
	index := make(map[string]int)
	for rows.Next() {
		var r recipe.Recipe
		if err := rows.Scan(&r.Name, &r.Category, &r.CycleTime, &r.Enabled); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		index[r.Name] = len(recipes)
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}

	comps, err := s.db.QueryContext(ctx, `
		SELECT recipe, role, kind, name, amount
		FROM components
		ORDER BY recipe ASC, role ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer comps.Close()

	for comps.Next() {
		var owner, role, kind string
		var c recipe.Component
		if err := comps.Scan(&owner, &role, &kind, &c.Name, &c.Amount); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		if c.Kind, err = recipe.ParseComponentKind(kind); err != nil {
			return nil, fmt.Errorf("component of %s: %w", owner, err)
		}
		i, ok := index[owner]
		if !ok {
			continue
		}
		switch role {
		case roleProduct:
			recipes[i].Products = append(recipes[i].Products, c)
		case roleIngredient:
			recipes[i].Ingredients = append(recipes[i].Ingredients, c)
		}
	}
	if err := comps.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}

	return recipes, nil
}

// Producers returns the names of recipes listing item among their products.
func (s *Store) Producers(ctx context.Context, item string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT recipe FROM components
		WHERE name = ? AND role = ?
		ORDER BY recipe ASC
	`, item, roleProduct)
	if err != nil {
		return nil, fmt.Errorf("query producers: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan producer: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate producers: %w", err)
	}
	return names, nil
}

// Categories returns the distinct recipe categories in lexical order.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM recipes ORDER BY category ASC")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// Count returns the number of stored recipes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return n, nil
}

// GetMeta retrieves a snapshot metadata value. A missing key yields "".
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta: %w", err)
	}
	return value, nil
}

// SetMeta sets a snapshot metadata value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshot_meta (key, value)
		VALUES (?, ?)
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}
