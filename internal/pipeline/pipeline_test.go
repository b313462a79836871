package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abgdnv/productapi/internal/auth"
	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/validation"
	"github.com/abgdnv/productapi/pkg/config"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{"name":"Desk","description":"Oak desk","price":150,"category":"furniture","inStock":true}`

const allViolations = "Name is required and must be a non-empty string, " +
	"Description is required and must be a non-empty string, " +
	"Price is required and must be a non-negative number, " +
	"Category is required and must be a non-empty string, " +
	"inStock is required and must be a boolean"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) web.ErrorDetail {
	t.Helper()
	var body web.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

// newRouter mounts a guarded POST route whose handler records whether it ran.
func newRouter(handlerCalled *bool) *chi.Mux {
	p := New(discardLogger())
	verifier := auth.NewAPIKeyVerifier(config.APIKeyConfig{Header: "X-API-Key", APIKey: "secret"})
	r := chi.NewRouter()
	r.NotFound(NotFound(discardLogger()))
	r.MethodNotAllowed(NotFound(discardLogger()))
	r.Post("/items/{id}", p.Stages(Authenticate(verifier), ValidateProduct(validation.New())).Then(
		func(_ context.Context, req *Request) (*Response, error) {
			*handlerCalled = true
			return &Response{Status: http.StatusCreated, Body: map[string]any{"id": req.Param("id"), "name": req.Product.Name}}, nil
		}))
	return r
}

func Test_Chain_StageOrdering(t *testing.T) {
	testCases := []struct {
		name          string
		apiKey        string
		body          string
		wantStatus    int
		wantType      string
		wantMessage   string
		wantHandlerOK bool
	}{
		{
			name:          "all stages pass",
			apiKey:        "secret",
			body:          validBody,
			wantStatus:    http.StatusCreated,
			wantHandlerOK: true,
		},
		{
			name:        "missing credential stops before validation",
			body:        `{"name":""}`,
			wantStatus:  http.StatusUnauthorized,
			wantType:    "AuthenticationError",
			wantMessage: "API key is required in X-API-Key header",
		},
		{
			name:        "malformed JSON with missing credential is still unauthorized",
			body:        `{"name":`,
			wantStatus:  http.StatusUnauthorized,
			wantType:    "AuthenticationError",
			wantMessage: "API key is required in X-API-Key header",
		},
		{
			name:        "wrong credential",
			apiKey:      "nope",
			body:        validBody,
			wantStatus:  http.StatusUnauthorized,
			wantType:    "AuthenticationError",
			wantMessage: "Invalid API key",
		},
		{
			name:        "invalid payload",
			apiKey:      "secret",
			body:        `{"name":"Desk","description":"Oak desk","category":"furniture","inStock":"true"}`,
			wantStatus:  http.StatusBadRequest,
			wantType:    "ValidationError",
			wantMessage: "Price is required and must be a non-negative number, inStock is required and must be a boolean",
		},
		{
			name:        "malformed JSON",
			apiKey:      "secret",
			body:        `{"name":`,
			wantStatus:  http.StatusBadRequest,
			wantType:    "ValidationError",
			wantMessage: "Invalid JSON payload",
		},
		{
			name:        "JSON array reports every rule",
			apiKey:      "secret",
			body:        `[1,2]`,
			wantStatus:  http.StatusBadRequest,
			wantType:    "ValidationError",
			wantMessage: allViolations,
		},
		{
			name:        "JSON null reports every rule",
			apiKey:      "secret",
			body:        `null`,
			wantStatus:  http.StatusBadRequest,
			wantType:    "ValidationError",
			wantMessage: allViolations,
		},
		{
			name:        "empty body reports every rule",
			apiKey:      "secret",
			wantStatus:  http.StatusBadRequest,
			wantType:    "ValidationError",
			wantMessage: allViolations,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			handlerCalled := false
			router := newRouter(&handlerCalled)
			req := httptest.NewRequest(http.MethodPost, "/items/7", strings.NewReader(tc.body))
			if tc.apiKey != "" {
				req.Header.Set("X-API-Key", tc.apiKey)
			}
			rec := httptest.NewRecorder()

			// when
			router.ServeHTTP(rec, req)

			// then
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantHandlerOK, handlerCalled)
			if tc.wantHandlerOK {
				assert.JSONEq(t, `{"id":"7","name":"Desk"}`, rec.Body.String())
				return
			}
			detail := decodeError(t, rec)
			assert.Equal(t, tc.wantType, detail.Type)
			assert.Equal(t, tc.wantMessage, detail.Message)
			assert.Equal(t, tc.wantStatus, detail.StatusCode)
		})
	}
}

func Test_Handle_ErrorTranslation(t *testing.T) {
	testCases := []struct {
		name        string
		handler     HandlerFunc
		wantStatus  int
		wantType    string
		wantMessage string
	}{
		{
			name: "typed not found",
			handler: func(context.Context, *Request) (*Response, error) {
				return nil, perrors.NotFound("Product with id 9 not found", perrors.ErrProductNotFound)
			},
			wantStatus:  http.StatusNotFound,
			wantType:    "NotFoundError",
			wantMessage: "Product with id 9 not found",
		},
		{
			name: "plain error is hidden",
			handler: func(context.Context, *Request) (*Response, error) {
				return nil, errors.New("disk on fire")
			},
			wantStatus:  http.StatusInternalServerError,
			wantType:    "InternalServerError",
			wantMessage: "Internal Server Error",
		},
		{
			name: "panic is captured",
			handler: func(context.Context, *Request) (*Response, error) {
				panic("unexpected")
			},
			wantStatus:  http.StatusInternalServerError,
			wantType:    "InternalServerError",
			wantMessage: "Internal Server Error",
		},
		{
			name: "missing response",
			handler: func(context.Context, *Request) (*Response, error) {
				return nil, nil
			},
			wantStatus:  http.StatusInternalServerError,
			wantType:    "InternalServerError",
			wantMessage: "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			handler := New(discardLogger()).Handle(tc.handler)
			rec := httptest.NewRecorder()

			// when
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

			// then
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			detail := decodeError(t, rec)
			assert.Equal(t, tc.wantType, detail.Type)
			assert.Equal(t, tc.wantMessage, detail.Message)
		})
	}
}

func Test_Handle_QueryAndParamsWithoutRouter(t *testing.T) {
	// given
	handler := New(discardLogger()).Handle(func(_ context.Context, req *Request) (*Response, error) {
		return &Response{Status: http.StatusOK, Body: map[string]string{"q": req.Query.Get("q"), "id": req.Param("id")}}, nil
	})
	rec := httptest.NewRecorder()

	// when
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=lap", nil))

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"q":"lap","id":""}`, rec.Body.String())
}

func Test_NotFound(t *testing.T) {
	testCases := []struct {
		name        string
		method      string
		target      string
		wantMessage string
	}{
		{name: "unknown method", method: http.MethodPatch, target: "/items/1", wantMessage: "Route PATCH /items/1 not found"},
		{name: "unknown path", method: http.MethodGet, target: "/nowhere?x=1", wantMessage: "Route GET /nowhere?x=1 not found"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			handlerCalled := false
			router := newRouter(&handlerCalled)
			rec := httptest.NewRecorder()

			// when
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))

			// then
			assert.Equal(t, http.StatusNotFound, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, "NotFoundError", detail.Type)
			assert.Equal(t, tc.wantMessage, detail.Message)
			assert.Equal(t, http.StatusNotFound, detail.StatusCode)
		})
	}
}
