// Package validation checks product payloads before they reach the store.
package validation

import (
	"errors"
	"strings"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/store"
	"github.com/go-playground/validator/v10"
)

// candidate mirrors a product payload. Pointers distinguish absent or mistyped fields from zero values.
// Violations are reported in field order.
type candidate struct {
	Name        string   `validate:"required"`
	Description string   `validate:"required"`
	Price       *float64 `validate:"required,gte=0"`
	Category    string   `validate:"required"`
	InStock     *bool    `validate:"required"`
}

var messages = map[string]string{
	"Name":        "Name is required and must be a non-empty string",
	"Description": "Description is required and must be a non-empty string",
	"Price":       "Price is required and must be a non-negative number",
	"Category":    "Category is required and must be a non-empty string",
	"InStock":     "inStock is required and must be a boolean",
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Product validates a decoded JSON object and returns the normalized fields.
// Every violated rule is reported in a single Validation error. A nil body is
// checked as an empty object.
func (v *Validator) Product(body map[string]any) (store.ProductFields, error) {
	if body == nil {
		body = map[string]any{}
	}

	c := candidate{
		Name:        trimmedString(body["name"]),
		Description: trimmedString(body["description"]),
		Category:    trimmedString(body["category"]),
	}
	if price, ok := body["price"].(float64); ok {
		c.Price = &price
	}
	if inStock, ok := body["inStock"].(bool); ok {
		c.InStock = &inStock
	}

	if err := v.validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return store.ProductFields{}, perrors.Internal("", err)
		}
		violations := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			violations = append(violations, messages[fieldErr.StructField()])
		}
		return store.ProductFields{}, perrors.Validation(strings.Join(violations, ", "))
	}

	return store.ProductFields{
		Name:        c.Name,
		Description: c.Description,
		Price:       *c.Price,
		Category:    c.Category,
		InStock:     *c.InStock,
	}, nil
}

// trimmedString returns "" for anything that is not a JSON string.
func trimmedString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
