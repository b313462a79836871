// Package auth checks the shared-secret credential presented on mutating requests.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/pkg/config"
)

type Verifier interface {
	// Header is the name of the request header carrying the credential.
	Header() string
	Verify(ctx context.Context, credential string) error
}

// APIKeyVerifier compares the credential with a single static key.
type APIKeyVerifier struct {
	header string
	secret []byte
}

func NewAPIKeyVerifier(cfg config.APIKeyConfig) *APIKeyVerifier {
	return &APIKeyVerifier{
		header: cfg.Header,
		secret: []byte(cfg.APIKey),
	}
}

func (v *APIKeyVerifier) Header() string {
	return v.header
}

func (v *APIKeyVerifier) Verify(_ context.Context, credential string) error {
	if credential == "" {
		return perrors.Authentication(fmt.Sprintf("API key is required in %s header", v.header))
	}
	if subtle.ConstantTimeCompare([]byte(credential), v.secret) != 1 {
		return perrors.Authentication("Invalid API key")
	}
	return nil
}
