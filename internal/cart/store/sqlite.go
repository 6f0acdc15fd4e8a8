package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS carts (
	id      TEXT PRIMARY KEY,
	doc     TEXT NOT NULL,
	version INTEGER NOT NULL
)`

// SQLiteStore is the embedded single-file backend. Each cart is stored
// as a JSON document in the doc column, with the version alongside it
// for conditional replaces.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps the driver from ever returning SQLITE_BUSY
	// to a concurrent writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Cart, error) {
	var (
		doc     string
		version int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT doc, version FROM carts WHERE id = ?`, id).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return decodeCartRow(doc, version)
}

func (s *SQLiteStore) Put(ctx context.Context, cart *domain.Cart) error {
	prev := cart.Version
	cart.Version = prev + 1
	doc, err := json.Marshal(cart)
	if err != nil {
		cart.Version = prev
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if prev == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO carts (id, doc, version) VALUES (?, ?, 1) ON CONFLICT (id) DO NOTHING`,
			cart.ID, string(doc))
		if err != nil {
			cart.Version = prev
			return fmt.Errorf("failed to insert cart: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			cart.Version = prev
			return ErrVersionConflict
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE carts SET doc = ?, version = ? WHERE id = ? AND version = ?`,
		string(doc), cart.Version, cart.ID, prev)
	if err != nil {
		cart.Version = prev
		return fmt.Errorf("failed to replace cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		cart.Version = prev
		return ErrVersionConflict
	}
	return nil
}

func (s *SQLiteStore) Scan(ctx context.Context) (CartCursor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc, version FROM carts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan carts: %w", err)
	}
	return &sqliteCursor{rows: rows}, nil
}

func decodeCartRow(doc string, version int64) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal([]byte(doc), &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	// The column is authoritative; the document copy can lag behind a
	// concurrent version bump.
	cart.Version = version
	return &cart, nil
}

type sqliteCursor struct {
	rows *sql.Rows
	cart *domain.Cart
	err  error
}

func (c *sqliteCursor) Next(_ context.Context) bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	var (
		doc     string
		version int64
	)
	if err := c.rows.Scan(&doc, &version); err != nil {
		c.err = err
		return false
	}
	cart, err := decodeCartRow(doc, version)
	if err != nil {
		c.err = err
		return false
	}
	c.cart = cart
	return true
}

func (c *sqliteCursor) Cart() *domain.Cart { return c.cart }

func (c *sqliteCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *sqliteCursor) Close(_ context.Context) error { return c.rows.Close() }
