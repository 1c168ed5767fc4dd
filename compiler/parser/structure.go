package parser

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Known keys per grammar production. Anything else is either absorbed into
// `extra` (visualizations) or reported as an unknown attribute.
var (
	serviceKeys = map[string]bool{"name": true, "scope": true, "version": true}
	dataKeys    = map[string]bool{"measurements": true}
	sourceKeys  = map[string]bool{"name": true, "provider": true, "type": true, "uri": true, "query": true}
	queryKeys   = map[string]bool{"type": true, "select": true}
	appKeys     = map[string]bool{"type": true, "layout": true, "roles": true, "visualizations": true}
	deployKeys  = map[string]bool{"env": true}
	envKeys     = map[string]bool{"name": true, "uri": true, "port": true, "type": true, "credentials": true, "roles": true}
)

type rawService struct {
	Name string `validate:"required"`
}

type rawSource struct {
	Name      string   `validate:"required"`
	Provider  string   `validate:"required"`
	URI       string   `validate:"required,url"`
	QueryType string   `validate:"required"`
	Select    []string `validate:"required,unique"`
}

type rawApplication struct {
	Type string `validate:"required"`
}

type rawVis struct {
	Name   string `validate:"required"`
	Type   string `validate:"required"`
	Source string `validate:"required"`
}

type rawEnv struct {
	Name string `validate:"required"`
	URI  string `validate:"required,url"`
	Port int    `validate:"gte=0,lte=65535"`
	Type string `validate:"required"`
}

// CheckStructure validates the descriptor grammar over the parsed tree.
// Every structural violation is reported; the check never stops at the
// first finding.
func CheckStructure(doc *Document) diag.List {
	var out diag.List
	root := doc.Root
	if root == nil || root.Kind != KindMap {
		out.Append(diag.Errorf(diag.CodeParse, "", "descriptor root must be a map, got %s", kindOf(root)))
		return stampFile(out, doc.Filename)
	}

	checkService(root, &out)
	checkDataSources(root, &out)
	checkApplication(root, &out)
	checkDeployment(root, &out)
	return stampFile(out, doc.Filename)
}

func checkService(root *Node, out *diag.List) {
	sec, ok := requireSection(root, "service", out)
	if !ok {
		return
	}
	warnUnknownKeys(sec, serviceKeys, out)

	rec := rawService{}
	clean := true
	if v, present := sec.Lookup("name"); present {
		s, ok := expectStringNode(v, out)
		clean = clean && ok
		rec.Name = s
	}
	if v, present := sec.Lookup("scope"); present {
		_, ok := expectStringNode(v, out)
		clean = clean && ok
	}
	switch v, present := sec.Lookup("version"); {
	case !present:
		out.Append(diag.Errorf(diag.CodeParse, childPath(sec.Path, "version"), "required value is missing or empty"))
		clean = false
	case v.Kind != KindString && v.Kind != KindMap:
		out.Append(withPos(diag.Errorf(diag.CodeParse, v.Path, "expected version string like \"1.0.0\", got %s", v.Kind), v))
		clean = false
	}
	if clean {
		validateRecord(rec, map[string]fieldRef{
			"Name": {childPath(sec.Path, "name"), sec},
		}, out)
	}
}

func checkDataSources(root *Node, out *diag.List) {
	sec, ok := requireSection(root, "data_sources", out)
	if !ok {
		return
	}
	warnUnknownKeys(sec, dataKeys, out)

	coll, present := sec.Lookup("measurements")
	if !present || coll.Kind != KindMap || len(coll.Fields) == 0 {
		path := childPath(sec.Path, "measurements")
		if present && coll.Kind != KindMap {
			out.Append(withPos(diag.Errorf(diag.CodeParse, path, "expected map, got %s", coll.Kind), coll))
			return
		}
		out.Append(diag.Errorf(diag.CodeParse, path, "at least one data source is required"))
		return
	}

	for _, f := range coll.Fields {
		checkSource(f.Value, out)
	}
}

func checkSource(node *Node, out *diag.List) {
	if node.Kind != KindMap {
		out.Append(withPos(diag.Errorf(diag.CodeParse, node.Path, "expected map, got %s", node.Kind), node))
		return
	}
	warnUnknownKeys(node, sourceKeys, out)

	rec := rawSource{}
	refs := map[string]fieldRef{
		"Name":      {childPath(node.Path, "name"), node},
		"Provider":  {childPath(node.Path, "provider"), node},
		"URI":       {childPath(node.Path, "uri"), node},
		"QueryType": {childPath(node.Path, "query.type"), node},
		"Select":    {childPath(node.Path, "query.select"), node},
	}
	clean := true

	for _, key := range []string{"name", "provider", "type"} {
		if v, present := node.Lookup(key); present {
			s, ok := expectStringNode(v, out)
			clean = clean && ok
			switch key {
			case "name":
				rec.Name = s
			case "provider":
				rec.Provider = s
			}
		}
	}
	if v, present := node.Lookup("uri"); present {
		s, ok := expectStringNode(v, out)
		clean = clean && ok
		rec.URI = s
		refs["URI"] = fieldRef{v.Path, v}
	}

	query, present := node.Lookup("query")
	if !present {
		out.Append(withPos(diag.Errorf(diag.CodeParse, childPath(node.Path, "query"), "missing required key %q", "query"), node))
		return
	}
	if query.Kind != KindMap {
		out.Append(withPos(diag.Errorf(diag.CodeParse, query.Path, "expected map, got %s", query.Kind), query))
		return
	}
	warnUnknownKeys(query, queryKeys, out)
	if v, qok := query.Lookup("type"); qok {
		s, ok := expectStringNode(v, out)
		clean = clean && ok
		rec.QueryType = s
		refs["QueryType"] = fieldRef{v.Path, v}
	}
	if v, qok := query.Lookup("select"); qok {
		sel, ok := expectStringList(v, out)
		clean = clean && ok
		rec.Select = sel
		refs["Select"] = fieldRef{v.Path, v}
	}

	if clean {
		validateRecord(rec, refs, out)
	}
}

func checkApplication(root *Node, out *diag.List) {
	sec, ok := requireSection(root, "application", out)
	if !ok {
		return
	}
	warnUnknownKeys(sec, appKeys, out)

	rec := rawApplication{}
	clean := true
	if v, present := sec.Lookup("type"); present {
		s, ok := expectStringNode(v, out)
		clean = clean && ok
		rec.Type = s
	}
	if v, present := sec.Lookup("layout"); present {
		_, ok := expectStringNode(v, out)
		clean = clean && ok
	}
	if v, present := sec.Lookup("roles"); present {
		_, ok := expectStringList(v, out)
		clean = clean && ok
	}
	if clean {
		validateRecord(rec, map[string]fieldRef{
			"Type": {childPath(sec.Path, "type"), sec},
		}, out)
	}

	vises, present := sec.Lookup("visualizations")
	if !present {
		return
	}
	if vises.Kind != KindMap {
		out.Append(withPos(diag.Errorf(diag.CodeParse, vises.Path, "expected map, got %s", vises.Kind), vises))
		return
	}
	for _, f := range vises.Fields {
		checkVis(f.Value, out)
	}
}

func checkVis(node *Node, out *diag.List) {
	if node.Kind != KindMap {
		out.Append(withPos(diag.Errorf(diag.CodeParse, node.Path, "expected map, got %s", node.Kind), node))
		return
	}

	rec := rawVis{}
	refs := map[string]fieldRef{
		"Name":   {childPath(node.Path, "name"), node},
		"Type":   {childPath(node.Path, "type"), node},
		"Source": {childPath(node.Path, "source"), node},
	}
	clean := true

	for _, f := range node.Fields {
		switch f.Key {
		case "name", "type", "source":
			s, ok := expectStringNode(f.Value, out)
			clean = clean && ok
			switch f.Key {
			case "name":
				rec.Name = s
			case "type":
				rec.Type = s
			case "source":
				rec.Source = s
			}
			refs[exportKey(f.Key)] = fieldRef{f.Value.Path, f.Value}
		case "data":
			_, ok := expectStringList(f.Value, out)
			clean = clean && ok
		case "roles":
			_, ok := expectStringList(f.Value, out)
			clean = clean && ok
		case "extra":
			checkExtra(f.Value, out)
		default:
			// Scalar strays are absorbed into extra during extraction;
			// containers cannot be carried that way.
			if f.Value.Kind == KindMap || f.Value.Kind == KindList {
				out.Append(withPos(diag.Warnf(diag.CodeUnknownAttribute, f.Value.Path, "unknown attribute %q ignored", f.Key), f.Value))
			}
		}
	}

	if clean {
		validateRecord(rec, refs, out)
	}
}

func checkExtra(node *Node, out *diag.List) {
	if node.Kind != KindMap {
		out.Append(withPos(diag.Errorf(diag.CodeParse, node.Path, "expected map, got %s", node.Kind), node))
		return
	}
	for _, f := range node.Fields {
		switch f.Value.Kind {
		case KindString, KindInt, KindFloat, KindBool:
		default:
			out.Append(withPos(diag.Errorf(diag.CodeParse, f.Value.Path, "extra values must be scalars, got %s", f.Value.Kind), f.Value))
		}
	}
}

func checkDeployment(root *Node, out *diag.List) {
	sec, ok := requireSection(root, "deployment", out)
	if !ok {
		return
	}
	warnUnknownKeys(sec, deployKeys, out)

	envs, present := sec.Lookup("env")
	if !present || envs.Kind != KindMap || len(envs.Fields) == 0 {
		path := childPath(sec.Path, "env")
		if present && envs.Kind != KindMap {
			out.Append(withPos(diag.Errorf(diag.CodeParse, path, "expected map, got %s", envs.Kind), envs))
			return
		}
		out.Append(diag.Errorf(diag.CodeParse, path, "at least one deployment environment is required"))
		return
	}

	for _, f := range envs.Fields {
		checkEnv(f.Value, out)
	}
}

func checkEnv(node *Node, out *diag.List) {
	if node.Kind != KindMap {
		out.Append(withPos(diag.Errorf(diag.CodeParse, node.Path, "expected map, got %s", node.Kind), node))
		return
	}
	warnUnknownKeys(node, envKeys, out)

	rec := rawEnv{}
	refs := map[string]fieldRef{
		"Name": {childPath(node.Path, "name"), node},
		"URI":  {childPath(node.Path, "uri"), node},
		"Port": {childPath(node.Path, "port"), node},
		"Type": {childPath(node.Path, "type"), node},
	}
	clean := true

	for _, key := range []string{"name", "uri", "type"} {
		if v, present := node.Lookup(key); present {
			s, ok := expectStringNode(v, out)
			clean = clean && ok
			switch key {
			case "name":
				rec.Name = s
			case "uri":
				rec.URI = s
				refs["URI"] = fieldRef{v.Path, v}
			case "type":
				rec.Type = s
			}
		}
	}
	if v, present := node.Lookup("port"); present {
		if v.Kind != KindInt {
			out.Append(withPos(diag.Errorf(diag.CodeParse, v.Path, "expected int, got %s", v.Kind), v))
			clean = false
		} else {
			rec.Port = int(v.Int)
			refs["Port"] = fieldRef{v.Path, v}
		}
	} else {
		out.Append(withPos(diag.Errorf(diag.CodeParse, childPath(node.Path, "port"), "required value is missing or empty"), node))
		clean = false
	}
	if v, present := node.Lookup("credentials"); present {
		if v.Kind != KindMap {
			out.Append(withPos(diag.Errorf(diag.CodeParse, v.Path, "expected map, got %s", v.Kind), v))
			clean = false
		} else {
			for _, f := range v.Fields {
				_, ok := expectStringNode(f.Value, out)
				clean = clean && ok
			}
		}
	}
	if v, present := node.Lookup("roles"); present {
		_, ok := expectStringList(v, out)
		clean = clean && ok
	}

	if clean {
		validateRecord(rec, refs, out)
	}
}

type fieldRef struct {
	Path string
	Node *Node
}

func validateRecord(rec any, refs map[string]fieldRef, out *diag.List) {
	err := validate.Struct(rec)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Append(diag.Errorf(diag.CodeParse, "", "validate descriptor record: %v", err))
		return
	}
	for _, fe := range verrs {
		ref := refs[fe.StructField()]
		out.Append(withPos(diag.Errorf(diag.CodeParse, ref.Path, "%s", violationMessage(fe)), ref.Node))
	}
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required value is missing or empty"
	case "url":
		return fmt.Sprintf("%q is not a valid absolute URI", fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("port %v is outside the valid range [0, 65535]", fe.Value())
	case "unique":
		return "duplicate entries are not allowed"
	default:
		return fmt.Sprintf("violates %q constraint", fe.Tag())
	}
}

func requireSection(root *Node, key string, out *diag.List) (*Node, bool) {
	sec, ok := root.Lookup(key)
	if !ok {
		out.Append(diag.Errorf(diag.CodeParse, key, "missing required section %q", key))
		return nil, false
	}
	if sec.Kind != KindMap {
		out.Append(withPos(diag.Errorf(diag.CodeParse, key, "section %q must be a map, got %s", key, sec.Kind), sec))
		return nil, false
	}
	return sec, true
}

func warnUnknownKeys(sec *Node, known map[string]bool, out *diag.List) {
	for _, f := range sec.Fields {
		if known[f.Key] {
			continue
		}
		d := diag.Warnf(diag.CodeUnknownAttribute, childPath(sec.Path, f.Key), "unknown attribute %q ignored", f.Key)
		d.Line = f.Line
		d.Column = f.Column
		out.Append(d)
	}
}

// expectStringNode reports a kind mismatch and returns the string payload.
func expectStringNode(n *Node, out *diag.List) (string, bool) {
	if n.Kind != KindString {
		out.Append(withPos(diag.Errorf(diag.CodeParse, n.Path, "expected string, got %s", n.Kind), n))
		return "", false
	}
	return n.Str, true
}

func expectStringList(n *Node, out *diag.List) ([]string, bool) {
	if n.Kind != KindList {
		out.Append(withPos(diag.Errorf(diag.CodeParse, n.Path, "expected list, got %s", n.Kind), n))
		return nil, false
	}
	items := make([]string, 0, len(n.Items))
	ok := true
	for _, item := range n.Items {
		s, itemOK := expectStringNode(item, out)
		ok = ok && itemOK
		items = append(items, s)
	}
	return items, ok
}

func kindOf(n *Node) string {
	if n == nil {
		return "nothing"
	}
	return n.Kind.String()
}

func withPos(d diag.Diagnostic, n *Node) diag.Diagnostic {
	if n != nil {
		d.Line = n.Line
		d.Column = n.Column
	}
	return d
}

func stampFile(l diag.List, filename string) diag.List {
	for i := range l {
		if l[i].File == "" {
			l[i].File = filename
		}
	}
	return l
}

func exportKey(key string) string {
	switch key {
	case "name":
		return "Name"
	case "type":
		return "Type"
	case "source":
		return "Source"
	default:
		return key
	}
}
