package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const maxNameLength = 50

var markupPattern = regexp.MustCompile("<[^>]+>")

// Product is a catalog entry. Name, Image and Price are the fields carts
// copy, so changing any of them triggers a product-changed event.
type Product struct {
	ID          int
	Name        string
	Description string
	Image       string
	CategoryID  int
	Price       float64
	Amount      uint
}

func NewProduct(name string, categoryID int, price float64, amount uint, description, image string) (*Product, error) {
	p := &Product{Description: strings.TrimSpace(description)}

	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	p.Name = name

	if categoryID <= 0 {
		return nil, errors.New("category id must be positive")
	}
	p.CategoryID = categoryID

	if price < 0 {
		return nil, errors.New("price must be non-negative")
	}
	p.Price = price

	if amount == 0 {
		return nil, errors.New("amount must be positive")
	}
	p.Amount = amount

	image, err = validateImage(image)
	if err != nil {
		return nil, err
	}
	p.Image = image

	return p, nil
}

func (p *Product) Validate() error {
	if p.ID < 0 {
		return errors.New("id must be non-negative")
	}
	_, err := NewProduct(p.Name, p.CategoryID, p.Price, p.Amount, p.Description, p.Image)
	return err
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	if markupPattern.MatchString(name) {
		return "", errors.New("name must be plain text without markup")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", errors.New("name contains control characters")
		}
	}
	return name, nil
}

func validateImage(image string) (string, error) {
	if strings.TrimSpace(image) == "" {
		return "", nil
	}
	u, err := url.Parse(image)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.New("image must be an absolute http or https url")
	}
	return image, nil
}
