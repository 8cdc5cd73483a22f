// Package middleware provides the HTTP middleware stack and the
// request logging and CORS layers the server mounts on it.
package middleware

import "net/http"

// System is an ordered middleware stack. Use appends; Apply wraps a
// handler so the first layer added runs first.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	layers []func(http.Handler) http.Handler
}

// New returns an empty stack.
func New() System {
	return &stack{layers: []func(http.Handler) http.Handler{}}
}

func (s *stack) Use(fn func(http.Handler) http.Handler) {
	s.layers = append(s.layers, fn)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.layers) - 1; i >= 0; i-- {
		handler = s.layers[i](handler)
	}
	return handler
}
