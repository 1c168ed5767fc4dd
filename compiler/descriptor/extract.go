package descriptor

import (
	"strings"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/parser"
)

// visEntityKeys mirrors the visualization grammar. Scalar keys outside this
// set are strays the original grammar tolerates; they are absorbed into the
// extra mapping, with explicit extra entries winning on conflict.
var visEntityKeys = map[string]bool{
	"name": true, "type": true, "source": true, "data": true, "extra": true, "roles": true,
}

// Extractor projects a structurally valid document tree into typed entities.
// It owns the intra-section integrity checks: duplicate keys and key/name
// mismatches. Cross-section references are the resolver's business.
type Extractor struct {
	// VisTypes is the registered visualization type vocabulary. A type
	// outside it is a fatal diagnostic, not a crash.
	VisTypes []string
}

func NewExtractor() *Extractor {
	return &Extractor{VisTypes: append([]string(nil), VisTypes...)}
}

// Extract walks the tree and returns the entity set plus everything it found
// wrong with it. Extraction is exhaustive: one run reports all duplicates and
// mismatches across all sections.
func (e *Extractor) Extract(doc *parser.Document) (*Descriptor, diag.List) {
	var out diag.List
	d := &Descriptor{}

	root := doc.Root
	if root == nil || root.Kind != parser.KindMap {
		return d, out
	}

	e.extractService(root, d, &out)
	e.extractSources(root, d, &out)
	e.extractApplication(root, d, &out)
	e.extractDeployment(root, d, &out)

	for i := range out {
		if out[i].File == "" {
			out[i].File = doc.Filename
		}
	}
	return d, out
}

func (e *Extractor) extractService(root *parser.Node, d *Descriptor, out *diag.List) {
	sec, ok := root.Lookup("service")
	if !ok || sec.Kind != parser.KindMap {
		return
	}
	d.Service.Name = stringAt(sec, "name")
	d.Service.Scope = stringAt(sec, "scope")

	if d.Service.Scope != "" {
		if _, known := Canonical(Scopes, d.Service.Scope); !known {
			out.Append(vocabWarn(sec, "service.scope", "scope", d.Service.Scope, Scopes))
		}
	}

	ver, ok := sec.Lookup("version")
	if !ok {
		return
	}
	v, err := versionFromNode(ver)
	if err != nil {
		pd := diag.Errorf(diag.CodeParse, ver.Path, "%s", err.Error())
		pd.Line, pd.Column = ver.Line, ver.Column
		out.Append(pd)
		return
	}
	d.Service.Version = v
}

func versionFromNode(n *parser.Node) (Version, error) {
	if n.Kind == parser.KindString {
		return ParseVersion(n.Str)
	}
	// Structured form: {major, minor, patch} with integer components.
	var v Version
	for _, part := range []struct {
		key string
		dst *int
	}{
		{"major", &v.Major}, {"minor", &v.Minor}, {"patch", &v.Patch},
	} {
		c, ok := n.Lookup(part.key)
		if !ok || c.Kind != parser.KindInt || c.Int < 0 {
			return Version{}, &versionShapeError{}
		}
		*part.dst = int(c.Int)
	}
	return v, nil
}

type versionShapeError struct{}

func (*versionShapeError) Error() string {
	return "structured version needs non-negative integer major, minor, and patch"
}

func (e *Extractor) extractSources(root *parser.Node, d *Descriptor, out *diag.List) {
	sec, ok := root.Lookup("data_sources")
	if !ok || sec.Kind != parser.KindMap {
		return
	}
	coll, ok := sec.Lookup("measurements")
	if !ok || coll.Kind != parser.KindMap {
		return
	}

	seen := make(map[string]bool, len(coll.Fields))
	for _, f := range coll.Fields {
		if f.Value.Kind != parser.KindMap {
			continue
		}
		if seen[f.Key] {
			dd := diag.Errorf(diag.CodeDuplicateKey, f.Value.Path, "duplicate data source %q", f.Key)
			dd.Line, dd.Column = f.Line, f.Column
			out.Append(dd)
			continue
		}
		seen[f.Key] = true

		src := DataSource{
			Name:     stringAt(f.Value, "name"),
			Provider: stringAt(f.Value, "provider"),
			Type:     stringAt(f.Value, "type"),
			URI:      stringAt(f.Value, "uri"),
			Path:     f.Value.Path,
		}
		if q, ok := f.Value.Lookup("query"); ok && q.Kind == parser.KindMap {
			src.Query.Type = stringAt(q, "type")
			if sel, ok := q.Lookup("select"); ok && sel.Kind == parser.KindList {
				for _, item := range sel.Items {
					src.Query.Select = append(src.Query.Select, item.StringValue())
				}
			}
		}

		if src.Name != f.Key {
			md := diag.Errorf(diag.CodeKeyMismatch, f.Value.Path+".name",
				"data source name %q does not match its map key %q", src.Name, f.Key)
			md.Line, md.Column = f.Line, f.Column
			out.Append(md)
		}
		if src.Type != "" {
			if _, known := Canonical(SourceTypes, src.Type); !known {
				out.Append(vocabWarn(f.Value, f.Value.Path+".type", "source type", src.Type, SourceTypes))
			}
		}

		d.Sources = append(d.Sources, src)
	}
}

func (e *Extractor) extractApplication(root *parser.Node, d *Descriptor, out *diag.List) {
	sec, ok := root.Lookup("application")
	if !ok || sec.Kind != parser.KindMap {
		return
	}
	d.Application.Type = stringAt(sec, "type")
	d.Application.Layout = stringAt(sec, "layout")

	if d.Application.Type != "" {
		if _, known := Canonical(AppTypes, d.Application.Type); !known {
			out.Append(vocabWarn(sec, "application.type", "application type", d.Application.Type, AppTypes))
		}
	}
	if d.Application.Layout != "" {
		if _, known := Canonical(Layouts, d.Application.Layout); !known {
			out.Append(vocabWarn(sec, "application.layout", "layout", d.Application.Layout, Layouts))
		}
	}

	if roles, ok := sec.Lookup("roles"); ok && roles.Kind == parser.KindList {
		seen := make(map[string]bool, len(roles.Items))
		for _, item := range roles.Items {
			role := item.StringValue()
			if role == "" {
				continue
			}
			if seen[role] {
				dd := diag.Errorf(diag.CodeDuplicateKey, item.Path, "duplicate role %q", role)
				dd.Line, dd.Column = item.Line, item.Column
				out.Append(dd)
				continue
			}
			seen[role] = true
			d.Application.Roles = append(d.Application.Roles, role)
		}
	}

	vises, ok := sec.Lookup("visualizations")
	if !ok || vises.Kind != parser.KindMap {
		return
	}
	seen := make(map[string]bool, len(vises.Fields))
	for _, f := range vises.Fields {
		if f.Value.Kind != parser.KindMap {
			continue
		}
		if seen[f.Key] {
			dd := diag.Errorf(diag.CodeDuplicateKey, f.Value.Path, "duplicate visualization %q", f.Key)
			dd.Line, dd.Column = f.Line, f.Column
			out.Append(dd)
			continue
		}
		seen[f.Key] = true
		d.Visualizations = append(d.Visualizations, e.visFromNode(f, out))
	}
}

func (e *Extractor) visFromNode(f parser.Field, out *diag.List) Visualization {
	node := f.Value
	vis := Visualization{
		Name:   stringAt(node, "name"),
		Type:   stringAt(node, "type"),
		Source: stringAt(node, "source"),
		Path:   node.Path,
	}
	if data, ok := node.Lookup("data"); ok && data.Kind == parser.KindList {
		for _, item := range data.Items {
			vis.Data = append(vis.Data, item.StringValue())
		}
	}
	if roles, ok := node.Lookup("roles"); ok && roles.Kind == parser.KindList {
		for _, item := range roles.Items {
			if s := item.StringValue(); s != "" {
				vis.Roles = append(vis.Roles, s)
			}
		}
	}

	extra := make(map[string]Value)
	if ex, ok := node.Lookup("extra"); ok && ex.Kind == parser.KindMap {
		for _, ef := range ex.Fields {
			if v, ok := valueFromNode(ef.Value); ok {
				extra[ef.Key] = v
			}
		}
	}
	for _, nf := range node.Fields {
		if visEntityKeys[nf.Key] {
			continue
		}
		if _, taken := extra[nf.Key]; taken {
			continue
		}
		if v, ok := valueFromNode(nf.Value); ok {
			extra[nf.Key] = v
		}
	}
	if len(extra) > 0 {
		vis.Extra = extra
	}

	if vis.Name != f.Key {
		md := diag.Errorf(diag.CodeKeyMismatch, node.Path+".name",
			"visualization name %q does not match its map key %q", vis.Name, f.Key)
		md.Line, md.Column = f.Line, f.Column
		out.Append(md)
	}
	if vis.Type != "" {
		if _, registered := Canonical(e.VisTypes, vis.Type); !registered {
			td := diag.Errorf(diag.CodeUnknownVisType, node.Path+".type",
				"visualization type %q is not registered (registered: %s)",
				vis.Type, strings.Join(e.VisTypes, ", "))
			td.Line, td.Column = node.Line, node.Column
			out.Append(td)
		}
	}
	return vis
}

func (e *Extractor) extractDeployment(root *parser.Node, d *Descriptor, out *diag.List) {
	sec, ok := root.Lookup("deployment")
	if !ok || sec.Kind != parser.KindMap {
		return
	}
	envs, ok := sec.Lookup("env")
	if !ok || envs.Kind != parser.KindMap {
		return
	}

	seen := make(map[string]bool, len(envs.Fields))
	for _, f := range envs.Fields {
		if f.Value.Kind != parser.KindMap {
			continue
		}
		if seen[f.Key] {
			dd := diag.Errorf(diag.CodeDuplicateKey, f.Value.Path, "duplicate deployment environment %q", f.Key)
			dd.Line, dd.Column = f.Line, f.Column
			out.Append(dd)
			continue
		}
		seen[f.Key] = true

		env := DeploymentEnv{
			Name: stringAt(f.Value, "name"),
			URI:  stringAt(f.Value, "uri"),
			Type: stringAt(f.Value, "type"),
			Path: f.Value.Path,
		}
		if p, ok := f.Value.Lookup("port"); ok && p.Kind == parser.KindInt {
			env.Port = int(p.Int)
		}
		if creds, ok := f.Value.Lookup("credentials"); ok && creds.Kind == parser.KindMap {
			env.Credentials = make(map[string]string, len(creds.Fields))
			for _, cf := range creds.Fields {
				env.Credentials[cf.Key] = cf.Value.StringValue()
			}
		}
		if roles, ok := f.Value.Lookup("roles"); ok && roles.Kind == parser.KindList {
			for _, item := range roles.Items {
				if s := item.StringValue(); s != "" {
					env.Roles = append(env.Roles, s)
				}
			}
		}

		if env.Name != f.Key {
			md := diag.Errorf(diag.CodeKeyMismatch, f.Value.Path+".name",
				"deployment environment name %q does not match its map key %q", env.Name, f.Key)
			md.Line, md.Column = f.Line, f.Column
			out.Append(md)
		}
		if env.Type != "" {
			if _, known := Canonical(DeploymentTypes, env.Type); !known {
				out.Append(vocabWarn(f.Value, f.Value.Path+".type", "deployment type", env.Type, DeploymentTypes))
			}
		}

		d.Envs = append(d.Envs, env)
	}
}

func valueFromNode(n *parser.Node) (Value, bool) {
	switch n.Kind {
	case parser.KindString:
		return StringValue(n.Str), true
	case parser.KindInt:
		return NumberValue(float64(n.Int)), true
	case parser.KindFloat:
		return NumberValue(n.Float), true
	case parser.KindBool:
		return BoolValue(n.Bool), true
	default:
		return Value{}, false
	}
}

func stringAt(n *parser.Node, key string) string {
	v, ok := n.Lookup(key)
	if !ok {
		return ""
	}
	return v.StringValue()
}

func vocabWarn(n *parser.Node, path, what, got string, vocab []string) diag.Diagnostic {
	d := diag.Warnf(diag.CodeUnknownAttribute, path, "%s %q is not a known tag", what, got)
	d.Hint = "known tags: " + strings.Join(vocab, ", ")
	d.Line, d.Column = n.Line, n.Column
	return d
}
