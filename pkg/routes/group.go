// Package routes declares route tables as data so handlers can expose
// them and servers can mount them without knowing each other.
package routes

import "net/http"

// Group nests routes under a shared prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register mounts every route in groups, including nested children,
// onto mux with its prefix chain applied.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		registerGroup(mux, "", g)
	}
}

func registerGroup(mux *http.ServeMux, parent string, g Group) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		mux.HandleFunc(r.Method+" "+prefix+r.Pattern, r.Handler)
	}
	for _, child := range g.Children {
		registerGroup(mux, prefix, child)
	}
}
