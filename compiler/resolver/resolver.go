// Package resolver links extracted entities across sections: visualizations
// to the data sources they read, and role references to the application's
// declared role set. It classifies every visualization field against the
// source projection so later stages know what the provider returns directly
// and what must be derived.
package resolver

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

// FieldClass says how a visualization field is satisfied.
type FieldClass string

const (
	// ClassProjected fields come straight out of the source query projection.
	ClassProjected FieldClass = "projected"
	// ClassDerived fields are absent from the projection and must be
	// computed, joined, or defaulted downstream.
	ClassDerived FieldClass = "derived"
)

// FieldRef is one visualization field with its classification.
type FieldRef struct {
	Name  string
	Class FieldClass
}

// Binding ties a visualization to its resolved data source. Source is nil
// when the reference dangles; Fields is only populated for resolved bindings.
type Binding struct {
	Vis    *descriptor.Visualization
	Source *descriptor.DataSource
	Fields []FieldRef
}

// Resolution is the cross-reference index the later stages consume.
type Resolution struct {
	// Sources maps data source names to entities, first declaration wins.
	Sources map[string]*descriptor.DataSource
	// Bindings holds one entry per visualization, in declaration order.
	Bindings []Binding
}

// Resolver checks referential integrity over a descriptor. Resolution of the
// visualizations can fan out over a bounded number of goroutines; output
// order and content are identical for any worker count.
type Resolver struct {
	// Workers bounds the fan-out. Values below 2 resolve sequentially.
	Workers int
}

func New() *Resolver {
	return &Resolver{Workers: 1}
}

// Resolve builds the cross-reference index and reports every dangling source
// reference and undeclared role in one pass.
func (r *Resolver) Resolve(d *descriptor.Descriptor) (*Resolution, diag.List) {
	res := &Resolution{
		Sources:  make(map[string]*descriptor.DataSource, len(d.Sources)),
		Bindings: make([]Binding, len(d.Visualizations)),
	}
	for i := range d.Sources {
		s := &d.Sources[i]
		if _, taken := res.Sources[s.Name]; !taken {
			res.Sources[s.Name] = s
		}
	}
	declared := roleSet{
		members: make(map[string]bool, len(d.Application.Roles)),
		pool:    strings.Join(d.Application.Roles, ", "),
	}
	for _, role := range d.Application.Roles {
		declared.members[role] = true
	}

	var out diag.List

	workers := r.Workers
	if workers > len(d.Visualizations) {
		workers = len(d.Visualizations)
	}
	if workers < 2 {
		for i := range d.Visualizations {
			res.Bindings[i] = r.bind(&d.Visualizations[i], res.Sources, declared, &out)
		}
	} else {
		// Each goroutine owns a disjoint set of indexes and a private
		// diagnostic slot per visualization; the merge below restores
		// declaration order no matter how the work was scheduled.
		perVis := make([]diag.List, len(d.Visualizations))
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := w; i < len(d.Visualizations); i += workers {
					res.Bindings[i] = r.bind(&d.Visualizations[i], res.Sources, declared, &perVis[i])
				}
			}(w)
		}
		wg.Wait()
		for _, l := range perVis {
			out.Merge(l)
		}
	}

	for i := range d.Envs {
		env := &d.Envs[i]
		for j, role := range env.Roles {
			if !declared.has(role) {
				out.Append(declared.undeclared(fmt.Sprintf("%s.roles[%d]", env.Path, j), role))
			}
		}
	}

	return res, out
}

// roleSet is the application's declared role closure. Membership is exact;
// roles are identifiers, not vocabulary tags.
type roleSet struct {
	members map[string]bool
	pool    string
}

func (s roleSet) has(role string) bool { return s.members[role] }

func (s roleSet) undeclared(path, role string) diag.Diagnostic {
	d := diag.Errorf(diag.CodeUndeclaredRole, path, "role %q is not declared by the application", role)
	if s.pool != "" {
		d.Hint = "declared roles: " + s.pool
	}
	return d
}

func (r *Resolver) bind(vis *descriptor.Visualization, sources map[string]*descriptor.DataSource, declared roleSet, out *diag.List) Binding {
	b := Binding{Vis: vis}

	src, ok := sources[vis.Source]
	if !ok {
		out.Append(diag.Errorf(diag.CodeDanglingReference, vis.Path+".source",
			"visualization %q references unknown data source %q", vis.Name, vis.Source))
	} else {
		b.Source = src
		// Classification is exact: a field whose spelling differs from the
		// projection only by case is still derived.
		projected := make(map[string]bool, len(src.Query.Select))
		for _, f := range src.Query.Select {
			projected[f] = true
		}
		b.Fields = make([]FieldRef, 0, len(vis.Data))
		for _, f := range vis.Data {
			class := ClassDerived
			if projected[f] {
				class = ClassProjected
			}
			b.Fields = append(b.Fields, FieldRef{Name: f, Class: class})
		}
	}

	for i, role := range vis.Roles {
		if !declared.has(role) {
			out.Append(declared.undeclared(fmt.Sprintf("%s.roles[%d]", vis.Path, i), role))
		}
	}
	return b
}
