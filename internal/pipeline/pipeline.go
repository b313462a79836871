// Package pipeline runs requests through an ordered list of stages and a handler,
// and turns every outcome into exactly one response.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/store"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request payloads.
const maxBodyBytes = 1 << 20

// Request is the per-request context threaded through the stages.
type Request struct {
	Method string
	URL    *url.URL
	Params map[string]string
	Query  url.Values
	Header http.Header
	// Product is filled in by the validation stage.
	Product store.ProductFields

	body    io.Reader
	decoded bool
	json    map[string]any
}

// Param returns the named path parameter or "".
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// JSON decodes the body once and returns it as an object. An empty body or a
// JSON value that is not an object yields nil; malformed JSON is a Validation error.
func (r *Request) JSON() (map[string]any, error) {
	if r.decoded {
		return r.json, nil
	}
	r.decoded = true
	if r.body == nil {
		return nil, nil
	}
	var v any
	if err := json.NewDecoder(r.body).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, perrors.Validation("Invalid JSON payload")
	}
	r.json, _ = v.(map[string]any)
	return r.json, nil
}

// Stage may reject a request by returning an error or enrich it for the next stage.
type Stage func(ctx context.Context, req *Request) error

// HandlerFunc produces the successful response of a route.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

type Response struct {
	Status int
	Body   any
}

type Pipeline struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logger.With("component", "pipeline")}
}

// Chain is an ordered list of stages waiting for its handler.
type Chain struct {
	p      *Pipeline
	stages []Stage
}

func (p *Pipeline) Stages(stages ...Stage) Chain {
	return Chain{p: p, stages: stages}
}

// Handle builds a route that runs h without any gating stage.
func (p *Pipeline) Handle(h HandlerFunc) http.HandlerFunc {
	return p.Stages().Then(h)
}

// Then builds the http.HandlerFunc running the stages in order, stopping at the
// first error, then h. Errors and panics are translated by the terminal responder.
func (c Chain) Then(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := newRequest(w, r)
		resp, err := c.run(ctx, req, h)
		if err != nil {
			c.p.respondError(ctx, w, r, err)
			return
		}
		web.RespondJSON(w, c.p.logger, resp.Status, resp.Body)
	}
}

func (c Chain) run(ctx context.Context, req *Request, h HandlerFunc) (resp *Response, err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			resp, err = nil, perrors.Internal("", fmt.Errorf("panic: %v", rvr))
		}
	}()
	for _, stage := range c.stages {
		if err := stage(ctx, req); err != nil {
			return nil, err
		}
	}
	resp, err = h(ctx, req)
	if err == nil && resp == nil {
		err = perrors.Internal("", errors.New("handler returned no response"))
	}
	return resp, err
}

func (p *Pipeline) respondError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	status, errType, message := perrors.Translate(err)
	if status >= http.StatusInternalServerError {
		p.logger.ErrorContext(ctx, "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		p.logger.WarnContext(ctx, "Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	web.RespondError(w, p.logger, status, errType, message)
}

// NotFound answers requests no route matched, naming the method and original URL.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		message := fmt.Sprintf("Route %s %s not found", r.Method, r.URL.RequestURI())
		logger.WarnContext(r.Context(), "Route not found", "method", r.Method, "path", r.URL.Path)
		web.RespondError(w, logger, http.StatusNotFound, perrors.KindNotFound.Type(), message)
	}
}

func newRequest(w http.ResponseWriter, r *http.Request) *Request {
	req := &Request{
		Method: r.Method,
		URL:    r.URL,
		Params: map[string]string{},
		Query:  r.URL.Query(),
		Header: r.Header,
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			req.Params[key] = rctx.URLParams.Values[i]
		}
	}
	if r.Body != nil && r.Body != http.NoBody {
		req.body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}
	return req
}
