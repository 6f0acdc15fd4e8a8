package cache

import (
	"context"
	"errors"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
)

// CartCache is a read-through cache in front of the cart store. Both the
// request path and the product-changed consumer invalidate entries after
// writing, so a hit is at worst as stale as the configured TTL.
type CartCache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	Set(ctx context.Context, cartID string, cart *domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}

var ErrCacheMiss = errors.New("cache miss")
