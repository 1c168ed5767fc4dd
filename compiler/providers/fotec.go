package providers

import (
	"net/http"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

// Fotec compiles queries for the FOTEC research gateway. The gateway's query
// endpoint returns full entities; it has no projection capability, so the
// selected attributes ride along declaratively for client-side filtering.
type Fotec struct {
	schemas AttributeSchema
}

func NewFotec() *Fotec {
	return &Fotec{}
}

func NewFotecWithSchemas(schemas AttributeSchema) *Fotec {
	return &Fotec{schemas: schemas}
}

func (p *Fotec) Name() string { return "fotec" }

func (p *Fotec) Capabilities() CapabilitySet {
	return CapabilitySet{
		CapabilityTimeRange:  true,
		CapabilityPagination: true,
	}
}

func (p *Fotec) Compile(src *descriptor.DataSource) (*ir.QueryPlan, diag.List) {
	var out diag.List
	checkAttributes(p.schemas, src, &out)

	return &ir.QueryPlan{
		Provider:   p.Name(),
		Method:     http.MethodPost,
		Endpoint:   "/query",
		Params:     map[string]string{"entity": src.Query.Type},
		EntityType: src.Query.Type,
		Attributes: append([]string(nil), src.Query.Select...),
	}, out
}
