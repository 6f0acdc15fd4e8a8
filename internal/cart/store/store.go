package store

import (
	"context"
	"errors"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrVersionConflict = errors.New("cart version conflict")
)

// CartStore is the persistence boundary for cart aggregates, keyed by
// cart id. Backends must be safe for concurrent use; the process owns a
// single store instance shared by the request path and the consumer.
//
// Put is a conditional insert-or-replace: a cart with Version 0 is
// inserted (ErrVersionConflict if the key already exists), otherwise the
// stored document is replaced only while its version still matches,
// after which the version is bumped. Callers retry the whole
// read-modify-write on ErrVersionConflict.
type CartStore interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Put(ctx context.Context, cart *domain.Cart) error
	Scan(ctx context.Context) (CartCursor, error)
}

// CartCursor iterates every stored cart. Iteration is weakly consistent:
// carts written during the scan may be missed or seen twice, which the
// fan-out consumer tolerates because applying an event is idempotent.
type CartCursor interface {
	Next(ctx context.Context) bool
	Cart() *domain.Cart
	Err() error
	Close(ctx context.Context) error
}
