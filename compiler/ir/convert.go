package ir

import (
	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/resolver"
)

// FromParts assembles a document from the stage outputs. Plans are keyed by
// data source name; a source without a plan stays unplanned. Bindings pair
// with visualizations by declaration index.
func FromParts(
	d *descriptor.Descriptor,
	res *resolver.Resolution,
	plans map[string]*QueryPlan,
	compat descriptor.Compat,
	compilerVersion string,
	warnings diag.List,
) *Document {
	doc := &Document{
		SchemaVersion:   SchemaV1,
		CompilerVersion: compilerVersion,
		Compatibility:   string(compat),
		Service: Service{
			Name:    d.Service.Name,
			Scope:   d.Service.Scope,
			Version: d.Service.Version.String(),
		},
		DataSources: make(map[string]DataSource, len(d.Sources)),
		Application: Application{
			Type:   d.Application.Type,
			Layout: d.Application.Layout,
			Roles:  append([]string{}, d.Application.Roles...),
		},
		Visualizations: make(map[string]Visualization, len(d.Visualizations)),
		DeploymentEnvs: make(map[string]DeploymentEnv, len(d.Envs)),
		Warnings:       append([]diag.Diagnostic(nil), warnings...),
	}

	for _, s := range d.Sources {
		ds := DataSource{
			Name:     s.Name,
			Provider: s.Provider,
			Type:     s.Type,
			URI:      s.URI,
			Query: Query{
				Type:   s.Query.Type,
				Select: append([]string{}, s.Query.Select...),
			},
		}
		if p := plans[s.Name]; p != nil {
			ds.Plan = p
		}
		doc.DataSources[s.Name] = ds
	}

	for i, v := range d.Visualizations {
		iv := Visualization{
			Name:   v.Name,
			Type:   v.Type,
			Source: v.Source,
			Data:   make([]Field, 0, len(v.Data)),
			Roles:  append([]string(nil), v.Roles...),
		}
		if len(v.Extra) > 0 {
			iv.Extra = make(map[string]descriptor.Value, len(v.Extra))
			for k, val := range v.Extra {
				iv.Extra[k] = val
			}
		}
		if res != nil && i < len(res.Bindings) && res.Bindings[i].Fields != nil {
			for _, f := range res.Bindings[i].Fields {
				iv.Data = append(iv.Data, Field{Name: f.Name, Class: string(f.Class)})
			}
		} else {
			// No binding means nothing projected the field.
			for _, name := range v.Data {
				iv.Data = append(iv.Data, Field{Name: name, Class: ClassDerived})
			}
		}
		doc.Visualizations[v.Name] = iv
	}

	for _, e := range d.Envs {
		env := DeploymentEnv{
			Name:  e.Name,
			URI:   e.URI,
			Port:  e.Port,
			Type:  e.Type,
			Roles: append([]string(nil), e.Roles...),
		}
		if len(e.Credentials) > 0 {
			env.Credentials = make(map[string]string, len(e.Credentials))
			for k, val := range e.Credentials {
				env.Credentials[k] = val
			}
		}
		doc.DeploymentEnvs[e.Name] = env
	}

	return doc
}
