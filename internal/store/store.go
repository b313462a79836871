// Package store provides an interface for product storage operations.
package store

import "context"

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindAll returns every product in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*Product, error)

	// Create assigns a fresh identifier to fields and appends the product.
	Create(ctx context.Context, fields ProductFields) (*Product, error)

	// Update replaces every mutable field of the product, keeping its position.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, fields ProductFields) (*Product, error)

	// DeleteByID removes a product by its ID and returns it.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) (*Product, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int, error)
}

// Product represents a product entity in the store.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	InStock     bool
}

// ProductFields holds the mutable part of a Product.
type ProductFields struct {
	Name        string
	Description string
	Price       float64
	Category    string
	InStock     bool
}

func (f ProductFields) toProduct(id string) Product {
	return Product{
		ID:          id,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Category:    f.Category,
		InStock:     f.InStock,
	}
}
