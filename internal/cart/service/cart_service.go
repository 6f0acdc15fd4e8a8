package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/cache"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/store"
)

var (
	// ErrInvalidArgument marks malformed caller input. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCartNotFound is the service-level "no such cart" signal,
	// distinct from an existing cart with zero items.
	ErrCartNotFound = errors.New("cart not found")
)

// putAttempts bounds the read-modify-write retry loop when a concurrent
// writer bumps the cart version between our Get and Put.
const putAttempts = 5

type CartService struct {
	store  store.CartStore
	cache  cache.CartCache
	logger *slog.Logger
	sfg    singleflight.Group // prevents cache stampede on the read path
}

func NewCartService(s store.CartStore, c cache.CartCache, logger *slog.Logger) *CartService {
	return &CartService{store: s, cache: c, logger: logger}
}

// AddItem appends item to the cart, creating the cart if this is its
// first item. Items with the same product id coexist; callers that want
// a single line per product remove the old one first.
func (s *CartService) AddItem(ctx context.Context, cartID string, item domain.CartItem) error {
	if err := validateCartID(cartID); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	err := s.withConflictRetry(ctx, cartID, func() error {
		cart, err := s.store.Get(ctx, cartID)
		switch {
		case errors.Is(err, store.ErrCartNotFound):
			cart = &domain.Cart{ID: cartID, Items: []domain.CartItem{item}}
		case err != nil:
			return err
		default:
			cart.Items = append(cart.Items, item)
		}
		return s.store.Put(ctx, cart)
	})
	if err != nil {
		return err
	}

	s.invalidateCache(cartID)
	return nil
}

// GetItems returns the cart's items, or ErrCartNotFound if the cart has
// never been created. An existing cart with no items yields an empty
// slice, not an error.
func (s *CartService) GetItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}

	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", "cart_id", cartID, "error", err)
		}

		cart, err = s.store.Get(ctx, cartID)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, cartID, cart); err != nil {
				s.logger.Warn("cart cache set failed", "cart_id", cartID, "error", err)
			}
		}()

		return cart, nil
	})
	if errors.Is(err, store.ErrCartNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	cart := v.(*domain.Cart)
	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)
	return items, nil
}

// RemoveItem removes the first item with itemID from the cart. It
// reports false without writing when the cart does not exist or holds no
// such item.
func (s *CartService) RemoveItem(ctx context.Context, cartID string, itemID int) (bool, error) {
	if err := validateCartID(cartID); err != nil {
		return false, err
	}
	if itemID <= 0 {
		return false, fmt.Errorf("%w: item id must be positive", ErrInvalidArgument)
	}

	removed := false
	err := s.withConflictRetry(ctx, cartID, func() error {
		removed = false
		cart, err := s.store.Get(ctx, cartID)
		if errors.Is(err, store.ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		idx := -1
		for i, item := range cart.Items {
			if item.ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}

		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		if err := s.store.Put(ctx, cart); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.invalidateCache(cartID)
	}
	return removed, nil
}

// withConflictRetry re-runs the whole read-modify-write when Put loses a
// version race, so two concurrent writers both land instead of one
// silently overwriting the other.
func (s *CartService) withConflictRetry(ctx context.Context, cartID string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= putAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		s.logger.Debug("cart version conflict, retrying", "cart_id", cartID, "attempt", attempt)
	}
	return fmt.Errorf("cart %s: %w after %d attempts", cartID, err, putAttempts)
}

func (s *CartService) invalidateCache(cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		s.logger.Warn("cart cache invalidate failed", "cart_id", cartID, "error", err)
	}
}

func validateCartID(cartID string) error {
	id, err := uuid.Parse(cartID)
	if err != nil {
		return fmt.Errorf("%w: cart id must be a UUID", ErrInvalidArgument)
	}
	if id == uuid.Nil {
		return fmt.Errorf("%w: cart id must not be the nil UUID", ErrInvalidArgument)
	}
	return nil
}
