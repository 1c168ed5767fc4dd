package providers

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

func airSource() *descriptor.DataSource {
	return &descriptor.DataSource{
		Name:     "Measurements",
		Provider: "fiware",
		Type:     "Sensor",
		URI:      "https://data.iiss.at/dataskop/fiwarenosec",
		Query: descriptor.Query{
			Type:   "AirQualityObserved",
			Select: []string{"location", "Nox", "O3", "dateObserved"},
		},
		Path: "data_sources.measurements.Measurements",
	}
}

func TestDefaultRegistryTags(t *testing.T) {
	got := DefaultRegistry().List()
	want := []string{"dataskop", "fiware", "fotec"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRegistryMatchesCaseInsensitively(t *testing.T) {
	r := DefaultRegistry()
	p, ok := r.Get("FIWARE")
	if !ok || p.Name() != "fiware" {
		t.Fatalf("Get(FIWARE) = %v, %v", p, ok)
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	src := airSource()
	src.Provider = "oracle"

	plan, diags := DefaultRegistry().Compile(src)
	if plan != nil {
		t.Fatalf("no plan expected for an unknown provider, got %+v", plan)
	}
	if len(diags) != 1 || diags[0].Code != diag.CodeUnknownProvider {
		t.Fatalf("diagnostics = %v, want one %s", diags, diag.CodeUnknownProvider)
	}
	if diags[0].Path != "data_sources.measurements.Measurements.provider" {
		t.Errorf("path = %q", diags[0].Path)
	}
	if diags[0].Hint != "registered providers: dataskop, fiware, fotec" {
		t.Errorf("hint = %q", diags[0].Hint)
	}
}

func TestFiwarePlan(t *testing.T) {
	plan, diags := DefaultRegistry().Compile(airSource())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if plan.Method != "GET" || plan.Endpoint != "/v2/entities" {
		t.Errorf("plan shape = %s %s", plan.Method, plan.Endpoint)
	}
	if plan.Params["type"] != "AirQualityObserved" {
		t.Errorf("type param = %q", plan.Params["type"])
	}
	// Projection keeps the descriptor's order and spelling, Nox included.
	if plan.Params["attrs"] != "location,Nox,O3,dateObserved" {
		t.Errorf("attrs param = %q", plan.Params["attrs"])
	}
	if !reflect.DeepEqual(plan.Attributes, []string{"location", "Nox", "O3", "dateObserved"}) {
		t.Errorf("attributes = %v", plan.Attributes)
	}
}

func TestFiwareAttributeMatchIsCaseInsensitive(t *testing.T) {
	src := airSource()
	src.Query.Select = []string{"NOX", "pm25", "Location"}

	_, diags := NewFiware().Compile(src)
	if len(diags) != 0 {
		t.Fatalf("case-folded attributes must not warn: %v", diags)
	}
}

func TestFiwareUnknownAttributeWarns(t *testing.T) {
	src := airSource()
	src.Query.Select = []string{"location", "radiation"}

	plan, diags := NewFiware().Compile(src)
	if len(diags) != 1 || diags[0].Code != diag.CodeUnknownAttribute {
		t.Fatalf("diagnostics = %v, want one %s", diags, diag.CodeUnknownAttribute)
	}
	if diags[0].IsFatal() {
		t.Error("unknown attribute must stay a warning")
	}
	if diags[0].Path != "data_sources.measurements.Measurements.query.select[1]" {
		t.Errorf("path = %q", diags[0].Path)
	}
	if !strings.Contains(diags[0].Hint, "NOx") {
		t.Errorf("hint should name the known attributes: %q", diags[0].Hint)
	}
	if plan.Params["attrs"] != "location,radiation" {
		t.Errorf("the plan still carries the attribute verbatim: %q", plan.Params["attrs"])
	}
}

func TestFiwareUnknownEntityTypeNotJudged(t *testing.T) {
	src := airSource()
	src.Query.Type = "ParkingSpot"
	src.Query.Select = []string{"whatever"}

	_, diags := NewFiware().Compile(src)
	if len(diags) != 0 {
		t.Fatalf("no schema means no judgement: %v", diags)
	}
}

func TestDataskopPlan(t *testing.T) {
	src := airSource()
	src.Provider = "dataskop"

	plan, diags := DefaultRegistry().Compile(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if plan.Method != "GET" || plan.Endpoint != "/api/v1/datasets/AirQualityObserved" {
		t.Errorf("plan shape = %s %s", plan.Method, plan.Endpoint)
	}
	if plan.Params["fields"] != "location,Nox,O3,dateObserved" {
		t.Errorf("fields param = %q", plan.Params["fields"])
	}
}

func TestFotecPlanHasNoProjection(t *testing.T) {
	src := airSource()
	src.Provider = "fotec"

	p := NewFotec()
	if p.Capabilities().Has(CapabilityProjection) {
		t.Fatal("fotec must not declare projection")
	}
	plan, diags := p.Compile(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if plan.Method != "POST" || plan.Endpoint != "/query" {
		t.Errorf("plan shape = %s %s", plan.Method, plan.Endpoint)
	}
	if _, exists := plan.Params["fields"]; exists {
		t.Error("a strategy without projection must not emit a projection param")
	}
	if !reflect.DeepEqual(plan.Attributes, []string{"location", "Nox", "O3", "dateObserved"}) {
		t.Errorf("attributes still ride along declaratively: %v", plan.Attributes)
	}
}

func TestCapabilitySet(t *testing.T) {
	caps := NewFiware().Capabilities()
	if !caps.HasAll(CapabilityProjection, CapabilityGeoQuery) {
		t.Error("fiware declares projection and geo queries")
	}
	if missing := caps.Missing(CapabilityPagination); !reflect.DeepEqual(missing, []Capability{CapabilityPagination}) {
		t.Errorf("Missing = %v", missing)
	}
	got := NewFotec().Capabilities().StringSlice()
	want := []string{"pagination", "time_range"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StringSlice() = %v, want %v", got, want)
	}
}
