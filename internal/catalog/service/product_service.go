package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/publisher"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/repository"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrProductNotFound = errors.New("product not found")
)

type ProductService struct {
	repo      repository.ProductRepository
	publisher publisher.Publisher
	logger    *slog.Logger
}

func NewProductService(repo repository.ProductRepository, pub publisher.Publisher, logger *slog.Logger) *ProductService {
	return &ProductService{repo: repo, publisher: pub, logger: logger}
}

func (s *ProductService) Get(ctx context.Context, productID int) (*domain.Product, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id must be positive", ErrInvalidArgument)
	}
	p, err := s.repo.Get(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *ProductService) List(ctx context.Context, categoryID int) ([]*domain.Product, error) {
	return s.repo.List(ctx, categoryID)
}

func (s *ProductService) Add(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: product is required", ErrInvalidArgument)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	return s.repo.Add(ctx, p)
}

// Update persists the product and, when the update changed a field carts
// copy (name, image, price), publishes a product-changed event. The
// catalog write has already committed by then; a publish failure is
// surfaced to the caller but does not roll the update back.
func (s *ProductService) Update(ctx context.Context, p *domain.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product is required", ErrInvalidArgument)
	}
	if p.ID <= 0 {
		return fmt.Errorf("%w: product id must be positive", ErrInvalidArgument)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	existing, err := s.repo.Get(ctx, p.ID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	if existing.Name == p.Name && existing.Image == p.Image && existing.Price == p.Price {
		return nil
	}

	event := publisher.ProductChangedEvent{
		ID:       p.ID,
		Name:     p.Name,
		ImageURL: p.Image,
		Price:    p.Price,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("product %d updated but change notification failed: %w", p.ID, err)
	}
	s.logger.Info("product change published", "product_id", p.ID)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, productID int) (bool, error) {
	if productID <= 0 {
		return false, fmt.Errorf("%w: product id must be positive", ErrInvalidArgument)
	}
	return s.repo.Delete(ctx, productID)
}
