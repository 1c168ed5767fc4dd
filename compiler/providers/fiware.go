package providers

import (
	"net/http"
	"strings"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

// Fiware compiles queries against an NGSI v2 context broker: a GET on
// /v2/entities filtered by entity type, with the projection carried in the
// attrs parameter in declaration order.
type Fiware struct {
	schemas AttributeSchema
}

func NewFiware() *Fiware {
	return &Fiware{schemas: DefaultFiwareSchemas}
}

// NewFiwareWithSchemas replaces the built-in attribute schemas, for
// deployments running custom NGSI data models.
func NewFiwareWithSchemas(schemas AttributeSchema) *Fiware {
	return &Fiware{schemas: schemas}
}

func (p *Fiware) Name() string { return "fiware" }

func (p *Fiware) Capabilities() CapabilitySet {
	return CapabilitySet{
		CapabilityProjection:       true,
		CapabilityGeoQuery:         true,
		CapabilityTimeRange:        true,
		CapabilityLiveSubscription: true,
	}
}

func (p *Fiware) Compile(src *descriptor.DataSource) (*ir.QueryPlan, diag.List) {
	var out diag.List
	checkAttributes(p.schemas, src, &out)

	params := map[string]string{"type": src.Query.Type}
	if len(src.Query.Select) > 0 {
		params["attrs"] = strings.Join(src.Query.Select, ",")
	}
	return &ir.QueryPlan{
		Provider:   p.Name(),
		Method:     http.MethodGet,
		Endpoint:   "/v2/entities",
		Params:     params,
		EntityType: src.Query.Type,
		Attributes: append([]string(nil), src.Query.Select...),
	}, out
}
