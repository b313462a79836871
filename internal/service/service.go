// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/query"
	"github.com/abgdnv/productapi/internal/store"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns one page of products matching opts.
	FindAll(ctx context.Context, opts query.Options) (*ProductPage, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns a NotFound error if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// Search returns every product whose name or description contains term.
	Search(ctx context.Context, term string) ([]ProductDto, error)

	// Stats aggregates the whole catalog.
	Stats(ctx context.Context) (*query.Stats, error)

	// Create adds a new product built from already validated fields.
	Create(ctx context.Context, fields store.ProductFields) (*ProductDto, error)

	// Update replaces every mutable field of a product.
	// Returns a NotFound error if no product exists with the given ID.
	Update(ctx context.Context, id string, fields store.ProductFields) (*ProductDto, error)

	// DeleteByID removes a product and returns it.
	// Returns a NotFound error if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) (*ProductDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository       store.ProductStore
	publisher        messaging.Publisher
	mutationsCounter metric.Int64Counter
	logger           *slog.Logger
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("product-api")
	mutationsCounter, err := meter.Int64Counter("products_mutations", metric.WithDescription("Total number of product mutations"))
	if err != nil {
		panic(fmt.Sprintf("failed to create products_mutations counter: %v", err))
	}
	return &Service{
		repository:       repo,
		publisher:        publisher,
		mutationsCounter: mutationsCounter,
		logger:           logger.With("component", "service"),
	}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
}

// ProductPage is one page of a filtered product list.
type ProductPage struct {
	Products   []ProductDto     `json:"products"`
	Pagination query.Pagination `json:"pagination"`
}

// FindAll filters and paginates the catalog.
func (s *Service) FindAll(ctx context.Context, opts query.Options) (*ProductPage, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	result := query.Apply(products, opts)
	return &ProductPage{
		Products:   toDtos(result.Products),
		Pagination: result.Pagination,
	}, nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "failed to fetch product by ID %s: %w")
	}
	return toDto(product), nil
}

// Search returns all matches without pagination.
func (s *Service) Search(ctx context.Context, term string) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(query.Search(products, term)), nil
}

// Stats computes statistics over the full, unfiltered catalog.
func (s *Service) Stats(ctx context.Context) (*query.Stats, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	stats := query.ComputeStats(products)
	return &stats, nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, fields store.ProductFields) (*ProductDto, error) {
	created, err := s.repository.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.afterMutation(ctx, events.ProductCreated, created)
	return toDto(created), nil
}

// Update modifies an existing product and returns the updated product as a ProductDto.
func (s *Service) Update(ctx context.Context, id string, fields store.ProductFields) (*ProductDto, error) {
	updated, err := s.repository.Update(ctx, id, fields)
	if err != nil {
		return nil, notFoundOr(err, id, "failed to update product with ID %s: %w")
	}
	s.afterMutation(ctx, events.ProductUpdated, updated)
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID and returns the removed product.
func (s *Service) DeleteByID(ctx context.Context, id string) (*ProductDto, error) {
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "failed to delete product with ID %s: %w")
	}
	s.afterMutation(ctx, events.ProductDeleted, deleted)
	return toDto(deleted), nil
}

// afterMutation publishes the product event and counts the mutation.
// A failed publish never fails the request.
func (s *Service) afterMutation(ctx context.Context, action events.ProductAction, p *store.Product) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.ProductEvent{
		Carrier:    carrier,
		Action:     action,
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Price:      p.Price,
		InStock:    p.InStock,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish product event", "action", action, "ID", p.ID, "error", err)
	}
	s.mutationsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", string(action))))
}

// notFoundOr turns a missing product into a NotFound error and wraps anything else with format.
func notFoundOr(err error, id, format string) error {
	if errors.Is(err, perrors.ErrProductNotFound) {
		return perrors.NotFound(fmt.Sprintf("Product with id %s not found", id), err)
	}
	return fmt.Errorf(format, id, err)
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    product.Category,
		InStock:     product.InStock,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}
