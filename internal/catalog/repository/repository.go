package repository

import (
	"context"
	"errors"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/domain"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type ProductRepository interface {
	Get(ctx context.Context, id int) (*domain.Product, error)
	// List returns all products, or only those in categoryID when it is
	// positive.
	List(ctx context.Context, categoryID int) ([]*domain.Product, error)
	Add(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int) (bool, error)
}

type CategoryRepository interface {
	Get(ctx context.Context, id int) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Add(ctx context.Context, c *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int) (bool, error)
}
