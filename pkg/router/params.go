package router

import (
	"context"
	"net/http"
)

type paramsKey struct{}

// Params maps the ":name" segments of a matched pattern to their values.
// A trailing "/*" is stored under "wildcard".
type Params map[string]string

// Get returns the named value, or "" when the pattern has no such segment.
func (p Params) Get(key string) string {
	return p[key]
}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// WithParams attaches matched params to ctx.
func WithParams(ctx context.Context, params Params) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// ParamsFromContext returns the params the router matched for a request.
func ParamsFromContext(ctx context.Context) (Params, bool) {
	params, ok := ctx.Value(paramsKey{}).(Params)
	return params, ok
}

// Param is shorthand for reading one matched value in a handler.
func Param(r *http.Request, name string) string {
	p, _ := ParamsFromContext(r.Context())
	return p.Get(name)
}
