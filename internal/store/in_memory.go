package store

import (
	"context"
	"slices"
	"sync"

	"github.com/abgdnv/productapi/internal/errors"
	"github.com/google/uuid"
)

// inMemory implements ProductStore on an ordered slice guarded by a RWMutex.
// Callers always receive copies.
type inMemory struct {
	mu       sync.RWMutex
	products []Product
	newID    func() string
}

// NewInMemoryStore creates a new instance of ProductStore holding the given seed products.
func NewInMemoryStore(seed ...Product) ProductStore {
	return &inMemory{
		products: slices.Clone(seed),
		newID:    uuid.NewString,
	}
}

// FindAll retrieves all products.
func (s *inMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, len(s.products))
	copy(list, s.products)
	return list, nil
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// Create creates a new product and returns it.
func (s *inMemory) Create(_ context.Context, fields ProductFields) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	product := fields.toProduct(id)
	s.products = append(s.products, product)
	return &product, nil
}

// Update replaces the mutable fields of a product in place.
func (s *inMemory) Update(_ context.Context, id string, fields ProductFields) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	s.products[i] = fields.toProduct(id)
	p := s.products[i]
	return &p, nil
}

// DeleteByID deletes a product by its ID.
func (s *inMemory) DeleteByID(_ context.Context, id string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	removed := s.products[i]
	s.products = slices.Delete(s.products, i, i+1)
	return &removed, nil
}

func (s *inMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

// indexOf must be called with the lock held.
func (s *inMemory) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}
