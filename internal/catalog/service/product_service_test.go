package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/publisher"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/repository"
)

type mockProductRepo struct {
	products map[int]*domain.Product
	nextID   int
	err      error
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[int]*domain.Product), nextID: 1}
}

func (m *mockProductRepo) Get(_ context.Context, id int) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) List(_ context.Context, categoryID int) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if categoryID > 0 && p.CategoryID != categoryID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockProductRepo) Add(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	added := *p
	added.ID = m.nextID
	m.nextID++
	cp := added
	m.products[added.ID] = &cp
	return &added, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	delete(m.products, id)
	return true, nil
}

type mockPublisher struct {
	events []publisher.ProductChangedEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event publisher.ProductChangedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func newTestProductService() (*ProductService, *mockProductRepo, *mockPublisher) {
	repo := newMockProductRepo()
	pub := &mockPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProductService(repo, pub, logger), repo, pub
}

func sampleProduct(t *testing.T) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct("Espresso", 1, 3.50, 10, "strong", "https://cdn.example.com/espresso.png")
	require.NoError(t, err)
	return p
}

func TestProductUpdate_PublishesWhenCopiedFieldChanges(t *testing.T) {
	svc, _, pub := newTestProductService()
	ctx := context.Background()

	added, err := svc.Add(ctx, sampleProduct(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(p *domain.Product)
	}{
		{"price change", func(p *domain.Product) { p.Price = 4.00 }},
		{"name change", func(p *domain.Product) { p.Name = p.Name + " XL" }},
		{"image change", func(p *domain.Product) { p.Image = "https://cdn.example.com/new.png" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(pub.events)

			current, err := svc.Get(ctx, added.ID)
			require.NoError(t, err)
			tt.mutate(current)
			require.NoError(t, svc.Update(ctx, current))

			require.Len(t, pub.events, before+1)
			event := pub.events[len(pub.events)-1]
			assert.Equal(t, current.ID, event.ID)
			assert.Equal(t, current.Name, event.Name)
			assert.Equal(t, current.Image, event.ImageURL)
			assert.Equal(t, current.Price, event.Price)
		})
	}
}

func TestProductUpdate_NoEventWhenCartFieldsUnchanged(t *testing.T) {
	svc, _, pub := newTestProductService()
	ctx := context.Background()

	added, err := svc.Add(ctx, sampleProduct(t))
	require.NoError(t, err)

	// Amount and description are not copied into carts.
	added.Amount = 99
	added.Description = "even stronger"
	require.NoError(t, svc.Update(ctx, added))

	assert.Empty(t, pub.events)
}

func TestProductUpdate_PublishFailureSurfaced(t *testing.T) {
	svc, repo, pub := newTestProductService()
	ctx := context.Background()
	pub.err = errors.New("broker unavailable")

	added, err := svc.Add(ctx, sampleProduct(t))
	require.NoError(t, err)

	added.Price = 5.00
	err = svc.Update(ctx, added)
	require.Error(t, err)

	// The catalog write itself has committed.
	stored, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.00, stored.Price)
}

func TestProductUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestProductService()

	p := sampleProduct(t)
	p.ID = 42
	err := svc.Update(context.Background(), p)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductUpdate_InvalidArguments(t *testing.T) {
	svc, _, _ := newTestProductService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Update(ctx, nil), ErrInvalidArgument)

	p := sampleProduct(t)
	assert.ErrorIs(t, svc.Update(ctx, p), ErrInvalidArgument, "missing id")

	p.ID = 1
	p.Name = ""
	assert.ErrorIs(t, svc.Update(ctx, p), ErrInvalidArgument)
}

func TestProductGet_NotFound(t *testing.T) {
	svc, _, _ := newTestProductService()

	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProductDelete(t *testing.T) {
	svc, _, _ := newTestProductService()
	ctx := context.Background()

	added, err := svc.Add(ctx, sampleProduct(t))
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, added.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
