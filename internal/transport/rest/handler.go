// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productapi/internal/auth"
	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/pipeline"
	"github.com/abgdnv/productapi/internal/query"
	"github.com/abgdnv/productapi/internal/service"
	"github.com/abgdnv/productapi/internal/validation"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service   service.ProductService
	verifier  auth.Verifier
	validator *validation.Validator
	pipeline  *pipeline.Pipeline
	logger    *slog.Logger
}

// NewHandler creates a new Handler with the provided service and credential verifier.
func NewHandler(service service.ProductService, verifier auth.Verifier, logger *slog.Logger) *Handler {
	logger = logger.With("component", "rest")
	return &Handler{
		service:   service,
		verifier:  verifier,
		validator: validation.New(),
		pipeline:  pipeline.New(logger),
		logger:    logger,
	}
}

// ProductMessage is the body of successful mutations.
type ProductMessage struct {
	Message string              `json:"message"`
	Product *service.ProductDto `json:"product"`
}

// SearchResult is the body of GET /api/products/search.
type SearchResult struct {
	Query   string               `json:"query"`
	Results []service.ProductDto `json:"results"`
	Count   int                  `json:"count"`
}

// RegisterRoutes registers the HTTP routes for the product API.
// Unmatched routes and methods are answered by the not-found responder.
func (h *Handler) RegisterRoutes(r chi.Router) {
	notFound := pipeline.NotFound(h.logger)
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	authenticate := pipeline.Authenticate(h.verifier)
	validate := pipeline.ValidateProduct(h.validator)

	r.Get("/", h.pipeline.Handle(h.Welcome))
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.pipeline.Handle(h.FindAll))
		r.Post("/", h.pipeline.Stages(authenticate, validate).Then(h.Create))
		r.Get("/search", h.pipeline.Handle(h.Search))
		r.Get("/stats", h.pipeline.Handle(h.Stats))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.pipeline.Handle(h.FindByID))
			r.Put("/", h.pipeline.Stages(authenticate, validate).Then(h.Update))
			r.Delete("/", h.pipeline.Stages(authenticate).Then(h.DeleteByID))
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// Welcome lists the available endpoints.
func (h *Handler) Welcome(_ context.Context, _ *pipeline.Request) (*pipeline.Response, error) {
	return ok(map[string]any{
		"message": "Welcome to the Product API!",
		"endpoints": map[string]string{
			"getAllProducts": "GET /api/products",
			"getProduct":     "GET /api/products/:id",
			"createProduct":  "POST /api/products",
			"updateProduct":  "PUT /api/products/:id",
			"deleteProduct":  "DELETE /api/products/:id",
			"searchProducts": "GET /api/products/search?q=query",
			"getStats":       "GET /api/products/stats",
		},
		"note": "For POST, PUT, and DELETE operations, include the API key in the " + h.verifier.Header() + " header",
	}), nil
}

// FindAll retrieves a filtered, paginated list of products.
func (h *Handler) FindAll(ctx context.Context, req *pipeline.Request) (*pipeline.Response, error) {
	opts := query.ParseOptions(req.Query)
	h.logger.DebugContext(ctx, "Received request to find all products", "page", opts.Page, "limit", opts.Limit)
	page, err := h.service.FindAll(ctx, opts)
	if err != nil {
		return nil, err
	}
	return ok(page), nil
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(ctx context.Context, req *pipeline.Request) (*pipeline.Response, error) {
	id := req.Param("id")
	h.logger.DebugContext(ctx, "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ok(found), nil
}

// Search returns every product matching the q parameter.
func (h *Handler) Search(ctx context.Context, req *pipeline.Request) (*pipeline.Response, error) {
	q := req.Query.Get("q")
	if q == "" {
		return nil, perrors.Validation(`Search query parameter "q" is required`)
	}
	results, err := h.service.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return ok(SearchResult{Query: q, Results: results, Count: len(results)}), nil
}

// Stats returns catalog statistics.
func (h *Handler) Stats(ctx context.Context, _ *pipeline.Request) (*pipeline.Response, error) {
	stats, err := h.service.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return ok(stats), nil
}

// Create handles the creation of a new product.
func (h *Handler) Create(ctx context.Context, req *pipeline.Request) (*pipeline.Response, error) {
	created, err := h.service.Create(ctx, req.Product)
	if err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "Product created successfully", "ID", created.ID, "Name", created.Name)
	return &pipeline.Response{
		Status: http.StatusCreated,
		Body:   ProductMessage{Message: "Product created successfully", Product: created},
	}, nil
}

// Update replaces a product's fields.
func (h *Handler) Update(ctx context.Context, req *pipeline.Request) (*pipeline.Response, error) {
	updated, err := h.service.Update(ctx, req.Param("id"), req.Product)
	if err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	return ok(ProductMessage{Message: "Product updated successfully", Product: updated}), nil
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(ctx context.Context, req *pipeline.Request) (*pipeline.Response, error) {
	deleted, err := h.service.DeleteByID(ctx, req.Param("id"))
	if err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "Product deleted successfully", "ID", deleted.ID)
	return ok(ProductMessage{Message: "Product deleted successfully", Product: deleted}), nil
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func ok(body any) *pipeline.Response {
	return &pipeline.Response{Status: http.StatusOK, Body: body}
}
