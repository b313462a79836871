package pipeline

import (
	"context"

	"github.com/abgdnv/productapi/internal/auth"
	"github.com/abgdnv/productapi/internal/validation"
)

// Authenticate rejects requests whose credential header does not hold the configured key.
func Authenticate(verifier auth.Verifier) Stage {
	return func(ctx context.Context, req *Request) error {
		return verifier.Verify(ctx, req.Header.Get(verifier.Header()))
	}
}

// ValidateProduct checks the JSON body and stores the normalized fields in req.Product.
func ValidateProduct(v *validation.Validator) Stage {
	return func(_ context.Context, req *Request) error {
		body, err := req.JSON()
		if err != nil {
			return err
		}
		fields, err := v.Product(body)
		if err != nil {
			return err
		}
		req.Product = fields
		return nil
	}
}
