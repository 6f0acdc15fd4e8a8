package publisher

import "context"

// ProductChangedEvent is the queue payload sent when a product update
// touches a field carts have copied. It carries the full new values,
// not a diff.
type ProductChangedEvent struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    float64 `json:"price"`
}

type Publisher interface {
	Publish(ctx context.Context, event ProductChangedEvent) error
	Close() error
}
