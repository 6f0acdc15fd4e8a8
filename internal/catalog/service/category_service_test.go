package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/repository"
)

type mockCategoryRepo struct {
	categories map[int]*domain.Category
	nextID     int
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[int]*domain.Category), nextID: 1}
}

func (m *mockCategoryRepo) Get(_ context.Context, id int) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCategoryRepo) List(context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.categories {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockCategoryRepo) Add(_ context.Context, c *domain.Category) (*domain.Category, error) {
	added := *c
	added.ID = m.nextID
	m.nextID++
	m.categories[added.ID] = &added
	return &added, nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *domain.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id int) (bool, error) {
	if _, ok := m.categories[id]; !ok {
		return false, nil
	}
	delete(m.categories, id)
	return true, nil
}

func TestCategoryCRUD(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())
	ctx := context.Background()

	c, err := domain.NewCategory("Coffee", "", nil)
	require.NoError(t, err)

	added, err := svc.Add(ctx, c)
	require.NoError(t, err)
	assert.NotZero(t, added.ID)

	got, err := svc.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Name)

	got.Name = "Coffee & Tea"
	require.NoError(t, svc.Update(ctx, got))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Coffee & Tea", all[0].Name)

	deleted, err := svc.Delete(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.Get(ctx, added.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_InvalidArguments(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())
	ctx := context.Background()

	_, err := svc.Get(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Add(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.ErrorIs(t, svc.Update(ctx, nil), ErrInvalidArgument)

	_, err = svc.Delete(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCategoryUpdate_NotFound(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())

	c, err := domain.NewCategory("Coffee", "", nil)
	require.NoError(t, err)
	c.ID = 42

	assert.ErrorIs(t, svc.Update(context.Background(), c), ErrCategoryNotFound)
}
