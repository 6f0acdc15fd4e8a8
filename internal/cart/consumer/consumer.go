package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/cache"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/store"
)

// ProductChangedEvent mirrors the catalog's queue payload: the new
// authoritative values for a product, not a diff. An empty imageUrl
// clears the copied image.
type ProductChangedEvent struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    float64 `json:"price"`
}

func (e ProductChangedEvent) validate() error {
	probe := domain.CartItem{ID: e.ID, Name: "probe", Quantity: 1}
	if e.ID <= 0 {
		return errors.New("product id must be positive")
	}
	if _, err := probe.ApplyProductChange(e.Name, e.ImageURL, e.Price); err != nil {
		return err
	}
	return nil
}

// MessageFetcher is the subset of kafka.Reader the consumer needs.
// Offsets are committed explicitly, after the fan-out has been written,
// so a crash mid-apply redelivers the event.
type MessageFetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterWriter receives messages that exhausted their apply retries
// or cannot be decoded at all. kafka.Writer satisfies it.
type DeadLetterWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	// applyAttempts bounds in-process retries per message before it is
	// routed to the dead-letter topic. Redelivery after a crash is on
	// top of this, so a poison message never loops forever.
	applyAttempts = 4

	cartPutAttempts = 5
)

type Config struct {
	Brokers         []string
	Topic           string
	GroupID         string
	DeadLetterTopic string
}

// Consumer applies product-changed events to every stored cart. It runs
// for the service's lifetime and stops when its context is cancelled,
// finishing the in-flight message first.
type Consumer struct {
	store      store.CartStore
	cache      cache.CartCache
	fetcher    MessageFetcher
	deadLetter DeadLetterWriter
	logger     *slog.Logger
}

func New(s store.CartStore, c cache.CartCache, logger *slog.Logger, cfg Config) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MaxBytes: 10e6, // 10MB
	})
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.DeadLetterTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Consumer{store: s, cache: c, fetcher: reader, deadLetter: writer, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.processNext(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			c.logger.Error("failed to process message", "error", err)
		}
	}
}

func (c *Consumer) Close() {
	if err := c.fetcher.Close(); err != nil {
		c.logger.Error("failed to close kafka reader", "error", err)
	}
	if err := c.deadLetter.Close(); err != nil {
		c.logger.Error("failed to close dead-letter writer", "error", err)
	}
}

func (c *Consumer) processNext(ctx context.Context) error {
	m, err := c.fetcher.FetchMessage(ctx)
	if err != nil {
		return err
	}

	var event ProductChangedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Error("undecodable product-changed event", "error", err)
		return c.park(ctx, m, err)
	}
	if err := event.validate(); err != nil {
		c.logger.Error("invalid product-changed event", "product_id", event.ID, "error", err)
		return c.park(ctx, m, err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), applyAttempts-1), ctx)
	applyErr := backoff.Retry(func() error {
		return c.apply(ctx, event)
	}, policy)

	if applyErr != nil {
		if ctx.Err() != nil {
			// Shutting down: leave the message unacknowledged so the
			// group redelivers it.
			return applyErr
		}
		c.logger.Error("product-changed fan-out kept failing", "product_id", event.ID, "error", applyErr)
		return c.park(ctx, m, applyErr)
	}

	return c.fetcher.CommitMessages(ctx, m)
}

// park routes a message to the dead-letter topic and acknowledges it.
func (c *Consumer) park(ctx context.Context, m kafka.Message, cause error) error {
	dead := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers, kafka.Header{
			Key: "dead-letter-reason", Value: []byte(cause.Error()),
		}),
	}
	if err := c.deadLetter.WriteMessages(ctx, dead); err != nil {
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}
	return c.fetcher.CommitMessages(ctx, m)
}

// apply scans every cart and rewrites the line items that reference the
// changed product. Re-applying the same event is a no-op, so redelivery
// and double-scanning are safe. Failures on individual carts do not stop
// the scan; they are joined and reported so the whole event is retried.
func (c *Consumer) apply(ctx context.Context, event ProductChangedEvent) error {
	cur, err := c.store.Scan(ctx)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var errs []error
	for cur.Next(ctx) {
		if err := c.updateCart(ctx, cur.Cart(), event); err != nil {
			errs = append(errs, fmt.Errorf("cart %s: %w", cur.Cart().ID, err))
		}
	}
	if err := cur.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Consumer) updateCart(ctx context.Context, cart *domain.Cart, event ProductChangedEvent) error {
	for attempt := 0; attempt < cartPutAttempts; attempt++ {
		changed := false
		for i := range cart.Items {
			if cart.Items[i].ID != event.ID {
				continue
			}
			ch, err := cart.Items[i].ApplyProductChange(event.Name, event.ImageURL, event.Price)
			if err != nil {
				return err
			}
			changed = changed || ch
		}
		if !changed {
			return nil
		}

		err := c.store.Put(ctx, cart)
		if err == nil {
			c.invalidateCache(cart.ID)
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}

		// Lost a race with the request path; reload and re-apply.
		cart, err = c.store.Get(ctx, cart.ID)
		if errors.Is(err, store.ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return store.ErrVersionConflict
}

func (c *Consumer) invalidateCache(cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.cache.Delete(ctx, cartID); err != nil {
		c.logger.Warn("cart cache invalidate failed", "cart_id", cartID, "error", err)
	}
}
