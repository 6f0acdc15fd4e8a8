package domain

import "errors"

// Category groups products; ParentCategoryID is nil for a root category.
type Category struct {
	ID               int
	Name             string
	Image            string
	ParentCategoryID *int
}

func NewCategory(name, image string, parentCategoryID *int) (*Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	image, err = validateImage(image)
	if err != nil {
		return nil, err
	}
	if parentCategoryID != nil && *parentCategoryID <= 0 {
		return nil, errors.New("parent category id must be positive")
	}
	return &Category{Name: name, Image: image, ParentCategoryID: parentCategoryID}, nil
}

func (c *Category) Validate() error {
	if c.ID < 0 {
		return errors.New("id must be non-negative")
	}
	_, err := NewCategory(c.Name, c.Image, c.ParentCategoryID)
	return err
}
