package store

import (
	"context"
	"sort"
	"sync"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
)

// MemoryStore implements CartStore with mutex-guarded in-memory storage.
// It keeps the same conditional-replace semantics as the real backends,
// which makes it the reference implementation for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]domain.Cart)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (s *MemoryStore) Put(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.carts[cart.ID]
	if cart.Version == 0 {
		if exists {
			return ErrVersionConflict
		}
	} else if !exists || stored.Version != cart.Version {
		return ErrVersionConflict
	}

	cart.Version++
	s.carts[cart.ID] = *cloneCart(*cart)
	return nil
}

// Scan snapshots the current keys and reads each cart as the cursor
// advances, mirroring the weak consistency of the real backends.
func (s *MemoryStore) Scan(_ context.Context) (CartCursor, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.carts))
	for id := range s.carts {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return &memoryCursor{store: s, ids: ids}, nil
}

// Len reports the number of stored carts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}

func cloneCart(cart domain.Cart) *domain.Cart {
	c := cart
	c.Items = make([]domain.CartItem, len(cart.Items))
	copy(c.Items, cart.Items)
	return &c
}

type memoryCursor struct {
	store *MemoryStore
	ids   []string
	cart  *domain.Cart
}

func (c *memoryCursor) Next(ctx context.Context) bool {
	for len(c.ids) > 0 {
		id := c.ids[0]
		c.ids = c.ids[1:]
		cart, err := c.store.Get(ctx, id)
		if err != nil {
			continue // deleted since the snapshot
		}
		c.cart = cart
		return true
	}
	return false
}

func (c *memoryCursor) Cart() *domain.Cart { return c.cart }

func (c *memoryCursor) Err() error { return nil }

func (c *memoryCursor) Close(context.Context) error { return nil }
