// Package query filters, searches, paginates and aggregates product lists.
package query

import (
	"net/url"
	"strings"

	"github.com/abgdnv/productapi/internal/store"
	"github.com/abgdnv/productapi/pkg/web"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Options are the list parameters recognised on GET /api/products.
// Zero values disable the matching filter.
type Options struct {
	Category string
	InStock  *bool
	Search   string
	Page     int
	Limit    int
}

// Pagination describes the slice returned by Apply.
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

// Result is one page of filtered products.
type Result struct {
	Products   []store.Product
	Pagination Pagination
}

// ParseOptions reads Options from query values. Invalid page and limit values
// fall back to their defaults.
func ParseOptions(values url.Values) Options {
	opts := Options{
		Category: values.Get("category"),
		Search:   values.Get("search"),
		Page:     web.IntParamOrDefault(values, "page", DefaultPage, web.Gt(0)),
		Limit:    web.IntParamOrDefault(values, "limit", DefaultLimit, web.Gt(0)),
	}
	if v := values.Get("inStock"); v != "" {
		inStock := strings.EqualFold(v, "true")
		opts.InStock = &inStock
	}
	return opts
}

// Apply filters products by category, then stock, then search term, and returns the requested page.
func Apply(products []store.Product, opts Options) Result {
	page, limit := opts.Page, opts.Limit
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	filtered := make([]store.Product, 0, len(products))
	for _, p := range products {
		if opts.Category != "" && !strings.EqualFold(p.Category, opts.Category) {
			continue
		}
		if opts.InStock != nil && p.InStock != *opts.InStock {
			continue
		}
		if opts.Search != "" && !matches(p, strings.ToLower(opts.Search)) {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	start := total
	// page-1 < ceil(total/limit) keeps (page-1)*limit from overflowing
	if page-1 < (total+limit-1)/limit {
		start = (page - 1) * limit
	}
	end := total
	if total-start > limit {
		end = start + limit
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return Result{
		Products: filtered[start:end:end],
		Pagination: Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalProducts: total,
			HasNext:       end < total,
			HasPrev:       page > 1,
		},
	}
}

// Search returns every product whose name or description contains term, ignoring case.
func Search(products []store.Product, term string) []store.Product {
	needle := strings.ToLower(term)
	results := make([]store.Product, 0)
	for _, p := range products {
		if matches(p, needle) {
			results = append(results, p)
		}
	}
	return results
}

// matches expects a lower-cased needle.
func matches(p store.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}
