// Package module mounts route trees under single-level path prefixes,
// each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gradethread/gradethread/pkg/middleware"
)

// Module serves an inner router under a prefix, stripping the prefix
// before dispatch so the inner patterns stay prefix-agnostic.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New builds a Module for prefix, which must be a single-level path
// like "/api". Invalid prefixes panic; they are programmer error.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler wraps the inner router with the module middleware stack.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Serve dispatches req to the inner router with the prefix removed.
// The request is shallow-cloned so the caller's URL stays intact.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	stripped := strippedPath(req.URL.Path, m.prefix)
	m.Handler().ServeHTTP(w, cloneRequest(req, stripped))
}

// Use appends mw to the module middleware stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

func cloneRequest(req *http.Request, path string) *http.Request {
	clone := new(http.Request)
	*clone = *req
	clone.URL = new(url.URL)
	*clone.URL = *req.URL
	clone.URL.Path = path
	clone.URL.RawPath = ""
	return clone
}

func strippedPath(full, prefix string) string {
	path := full[len(prefix):]
	if path == "" {
		return "/"
	}
	return path
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
