// Package providers implements swappable query compilation strategies.
// Each provider knows how to lower a declared {type, select} query into the
// request shape its platform expects. The registry maps descriptor provider
// tags to strategies; compilation never executes a plan.
package providers

import (
	"sort"
	"strings"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

// Provider is the interface for query compilation strategies.
type Provider interface {
	// Name returns the provider tag ("fiware"). Tags are canonical
	// lowercase; descriptor spellings match case-insensitively.
	Name() string

	// Capabilities returns the query abilities this strategy supports.
	Capabilities() CapabilitySet

	// Compile lowers the source's declared query into a plan. Unrecognized
	// attributes are warnings, never failures.
	Compile(src *descriptor.DataSource) (*ir.QueryPlan, diag.List)
}

// Registry holds all registered provider strategies.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a strategy to the registry, keyed by its canonical tag.
func (r *Registry) Register(p Provider) {
	r.providers[strings.ToLower(p.Name())] = p
}

// Get returns a strategy by tag, matching case-insensitively.
func (r *Registry) Get(tag string) (Provider, bool) {
	p, ok := r.providers[strings.ToLower(tag)]
	return p, ok
}

// List returns all registered tags, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile resolves the source's provider tag and delegates to its strategy.
// An unregistered tag is a fatal diagnostic naming the registered set.
func (r *Registry) Compile(src *descriptor.DataSource) (*ir.QueryPlan, diag.List) {
	p, ok := r.Get(src.Provider)
	if !ok {
		d := diag.Errorf(diag.CodeUnknownProvider, src.Path+".provider",
			"provider %q is not registered", src.Provider)
		d.Hint = "registered providers: " + strings.Join(r.List(), ", ")
		return nil, diag.List{d}
	}
	return p.Compile(src)
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewFiware())
	r.Register(NewDataskop())
	r.Register(NewFotec())
	return r
}
