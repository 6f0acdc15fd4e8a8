package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/domain"
)

// CategoryStore adapts Repository's connection for category rows. It
// exists so the two repository interfaces can be wired independently
// while sharing one pool.
type CategoryStore struct {
	db *sql.DB
}

func (r *Repository) Categories() *CategoryStore {
	return &CategoryStore{db: r.db}
}

func (s *CategoryStore) Get(ctx context.Context, id int) (*domain.Category, error) {
	query := `
		SELECT id, name, image, parent_category_id
		FROM categories
		WHERE id = $1
	`
	c, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, image, parent_category_id FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryStore) Add(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (name, image, parent_category_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	added := *c
	err := s.db.QueryRowContext(ctx, query,
		c.Name, nullString(c.Image), nullInt(c.ParentCategoryID)).Scan(&added.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	return &added, nil
}

func (s *CategoryStore) Update(ctx context.Context, c *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $1, image = $2, parent_category_id = $3
		WHERE id = $4
	`
	res, err := s.db.ExecContext(ctx, query,
		c.Name, nullString(c.Image), nullInt(c.ParentCategoryID), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c      domain.Category
		image  sql.NullString
		parent sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &image, &parent); err != nil {
		return nil, err
	}
	c.Image = image.String
	if parent.Valid {
		p := int(parent.Int64)
		c.ParentCategoryID = &p
	}
	return &c, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
