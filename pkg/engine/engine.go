// Package engine wires the core pipeline together: loading mock sources
// into a registry at build time, and matching plus rendering at request
// time. It also provides the HTTP boundary (Handler, Server) that adapts
// net/http to the core's request/response descriptors.
package engine

import (
	"fmt"
	"os"

	"github.com/textmock/textmock/internal/matching"
	"github.com/textmock/textmock/internal/parser"
	"github.com/textmock/textmock/internal/registry"
	"github.com/textmock/textmock/internal/render"
	"github.com/textmock/textmock/pkg/mockfile"
)

// Load parses a single mock source and builds a registry from it. The
// name is used to prefix error positions ("file:line:column: message") so
// the author can fix the source without knowing the core's internals.
func Load(name, src string) (*registry.Registry, error) {
	defs, err := parseNamed(name, src)
	if err != nil {
		return nil, err
	}
	return registry.Build(defs), nil
}

// LoadFiles reads and parses the given mock files in order and builds one
// registry over all of them. Ordinals are global across files, so
// first-match precedence follows the file list order. Any error aborts
// the whole load; no partial mock set is ever served.
func LoadFiles(paths []string) (*registry.Registry, error) {
	var all []*mockfile.Definition
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading mock file: %w", err)
		}
		defs, err := parseNamed(path, string(data))
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			def.Ordinal = len(all)
			all = append(all, def)
		}
	}
	return registry.Build(all), nil
}

// NewHolder wraps a loaded registry in a swap-on-reload holder, so
// embedders don't have to reach into the internal packages.
func NewHolder(reg *registry.Registry) *registry.Holder {
	return registry.NewHolder(reg)
}

func parseNamed(name, src string) ([]*mockfile.Definition, error) {
	defs, err := parser.Parse(src, render.Default())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", name, err)
	}
	return defs, nil
}

// Handle matches a request descriptor against the registry and renders
// the selected definition's response. A nil response with a nil error
// means no mock matched; the caller owns the default-response policy. A
// non-nil error is a render-time invariant violation and must be treated
// as a per-request failure, never swallowed.
func Handle(reg *registry.Registry, req *mockfile.Request, builtins render.Builtins) (*mockfile.Response, error) {
	def, captures := matching.Select(reg, req)
	if def == nil {
		return nil, nil
	}
	return render.Response(def, captures, builtins)
}
