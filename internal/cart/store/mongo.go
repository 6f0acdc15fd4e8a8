package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type mongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore returns a CartStore backed by a MongoDB collection, one
// document per cart with the cart id as _id.
func NewMongoStore(db *mongo.Database) CartStore {
	return &mongoStore{collection: db.Collection("carts")}
}

func (s *mongoStore) Get(ctx context.Context, id string) (*domain.Cart, error) {
	var cart domain.Cart

	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (s *mongoStore) Put(ctx context.Context, cart *domain.Cart) error {
	if cart.Version == 0 {
		cart.Version = 1
		_, err := s.collection.InsertOne(ctx, cart)
		if err != nil {
			cart.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to insert cart: %w", err)
		}
		return nil
	}

	prev := cart.Version
	cart.Version = prev + 1
	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": cart.ID, "version": prev}, cart)
	if err != nil {
		cart.Version = prev
		return fmt.Errorf("failed to replace cart: %w", err)
	}
	if res.MatchedCount == 0 {
		cart.Version = prev
		return ErrVersionConflict
	}
	return nil
}

func (s *mongoStore) Scan(ctx context.Context) (CartCursor, error) {
	cur, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan carts: %w", err)
	}
	return &mongoCursor{cur: cur}, nil
}

type mongoCursor struct {
	cur  *mongo.Cursor
	cart *domain.Cart
	err  error
}

func (c *mongoCursor) Next(ctx context.Context) bool {
	if c.err != nil || !c.cur.Next(ctx) {
		return false
	}
	var cart domain.Cart
	if err := c.cur.Decode(&cart); err != nil {
		c.err = fmt.Errorf("failed to decode cart: %w", err)
		return false
	}
	c.cart = &cart
	return true
}

func (c *mongoCursor) Cart() *domain.Cart { return c.cart }

func (c *mongoCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.cur.Err()
}

func (c *mongoCursor) Close(ctx context.Context) error { return c.cur.Close(ctx) }
