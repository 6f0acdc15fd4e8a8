package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/repository"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) Get(ctx context.Context, categoryID int) (*domain.Category, error) {
	if categoryID <= 0 {
		return nil, fmt.Errorf("%w: category id must be positive", ErrInvalidArgument)
	}
	c, err := s.repo.Get(ctx, categoryID)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Add(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidArgument)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	return s.repo.Add(ctx, c)
}

func (s *CategoryService) Update(ctx context.Context, c *domain.Category) error {
	if c == nil {
		return fmt.Errorf("%w: category is required", ErrInvalidArgument)
	}
	if c.ID <= 0 {
		return fmt.Errorf("%w: category id must be positive", ErrInvalidArgument)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	err := s.repo.Update(ctx, c)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

func (s *CategoryService) Delete(ctx context.Context, categoryID int) (bool, error) {
	if categoryID <= 0 {
		return false, fmt.Errorf("%w: category id must be positive", ErrInvalidArgument)
	}
	return s.repo.Delete(ctx, categoryID)
}
