package providers

import (
	"net/http"
	"strings"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

// Dataskop compiles queries against the Dataskop dataset API: a GET on the
// per-type dataset collection, projection in the fields parameter.
type Dataskop struct {
	schemas AttributeSchema
}

func NewDataskop() *Dataskop {
	return &Dataskop{}
}

func NewDataskopWithSchemas(schemas AttributeSchema) *Dataskop {
	return &Dataskop{schemas: schemas}
}

func (p *Dataskop) Name() string { return "dataskop" }

func (p *Dataskop) Capabilities() CapabilitySet {
	return CapabilitySet{
		CapabilityProjection: true,
		CapabilityTimeRange:  true,
		CapabilityPagination: true,
	}
}

func (p *Dataskop) Compile(src *descriptor.DataSource) (*ir.QueryPlan, diag.List) {
	var out diag.List
	checkAttributes(p.schemas, src, &out)

	var params map[string]string
	if len(src.Query.Select) > 0 {
		params = map[string]string{"fields": strings.Join(src.Query.Select, ",")}
	}
	return &ir.QueryPlan{
		Provider:   p.Name(),
		Method:     http.MethodGet,
		Endpoint:   "/api/v1/datasets/" + src.Query.Type,
		Params:     params,
		EntityType: src.Query.Type,
		Attributes: append([]string(nil), src.Query.Select...),
	}, out
}
