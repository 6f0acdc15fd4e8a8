package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var markupPattern = regexp.MustCompile("<[^>]+>")

// Cart is the aggregate root persisted as a single document. Version is
// the optimistic concurrency token: 0 means "not persisted yet", every
// successful store write bumps it by one.
type Cart struct {
	ID      string     `bson:"_id" json:"id"`
	Items   []CartItem `bson:"items" json:"items"`
	Version int64      `bson:"version" json:"version"`
}

// CartItem is a line in a cart. The id is the catalog product id; name,
// image and price are copies of the catalog values at the time the item
// was added and are refreshed by product-changed events.
type CartItem struct {
	ID           int     `bson:"product_id" json:"id"`
	Name         string  `bson:"name" json:"name"`
	ImageURI     string  `bson:"image_uri,omitempty" json:"imageUri,omitempty"`
	ImageAltText string  `bson:"image_alt_text,omitempty" json:"imageAltText,omitempty"`
	Price        float64 `bson:"price" json:"price"`
	Quantity     int     `bson:"quantity" json:"quantity"`
}

// NewCartItem validates every field so that an invalid value never enters
// a cart. Name and alt text are trimmed; empty image fields stay empty.
func NewCartItem(id int, name string, price float64, quantity int, imageURI, imageAltText string) (CartItem, error) {
	item := CartItem{ID: id, Quantity: quantity}
	if id <= 0 {
		return CartItem{}, errors.New("item id must be positive")
	}
	if quantity <= 0 {
		return CartItem{}, errors.New("quantity must be positive")
	}
	cleanName, err := plainText(name)
	if err != nil {
		return CartItem{}, fmt.Errorf("name: %w", err)
	}
	if cleanName == "" {
		return CartItem{}, errors.New("name is required")
	}
	item.Name = cleanName

	if err := item.setImage(imageURI); err != nil {
		return CartItem{}, err
	}

	alt := strings.TrimSpace(imageAltText)
	if alt != "" {
		if alt, err = plainText(alt); err != nil {
			return CartItem{}, fmt.Errorf("image alt text: %w", err)
		}
	}
	item.ImageAltText = alt

	if price < 0 {
		return CartItem{}, errors.New("price must be non-negative")
	}
	item.Price = price

	return item, nil
}

// Validate re-runs the construction rules, for items that arrive already
// assembled (decoded request bodies).
func (i CartItem) Validate() error {
	_, err := NewCartItem(i.ID, i.Name, i.Price, i.Quantity, i.ImageURI, i.ImageAltText)
	return err
}

// ApplyProductChange overwrites the catalog-owned fields with the new
// authoritative values, leaving quantity and alt text alone. It reports
// whether the item actually changed so callers can skip no-op writes.
func (i *CartItem) ApplyProductChange(name string, imageURL string, price float64) (bool, error) {
	cleanName, err := plainText(name)
	if err != nil {
		return false, fmt.Errorf("name: %w", err)
	}
	if cleanName == "" {
		return false, errors.New("name is required")
	}
	if price < 0 {
		return false, errors.New("price must be non-negative")
	}

	updated := *i
	updated.Name = cleanName
	updated.Price = price
	if err := updated.setImage(imageURL); err != nil {
		return false, err
	}

	if updated == *i {
		return false, nil
	}
	*i = updated
	return true, nil
}

func (i *CartItem) setImage(raw string) error {
	if strings.TrimSpace(raw) == "" {
		i.ImageURI = ""
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("image uri must be an absolute http or https url")
	}
	i.ImageURI = raw
	return nil
}

func plainText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if markupPattern.MatchString(s) {
		return "", errors.New("must be plain text without markup")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", errors.New("contains control characters")
		}
	}
	return s, nil
}
