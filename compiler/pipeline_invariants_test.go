package compiler

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

func TestCompileIdempotent(t *testing.T) {
	first := compileSample(t, airQualityYAML)
	second := compileSample(t, airQualityYAML)

	if !bytes.Equal(first.CanonicalIR, second.CanonicalIR) {
		t.Fatalf("identical input produced different canonical IR")
	}
	if !reflect.DeepEqual(first.Diagnostics, second.Diagnostics) {
		t.Fatalf("identical input produced different diagnostics")
	}
	if first.DescriptorHash != second.DescriptorHash {
		t.Fatalf("descriptor hash is not stable")
	}
}

func TestCompileRoundTripLossless(t *testing.T) {
	res := compileSample(t, airQualityYAML)

	var doc ir.Document
	if err := json.Unmarshal(res.CanonicalIR, &doc); err != nil {
		t.Fatalf("decode canonical IR: %v", err)
	}

	if doc.Service.Name != "Air Quality Madrid" || doc.Service.Scope != "Environment" || doc.Service.Version != "1.0.0" {
		t.Fatalf("service = %+v", doc.Service)
	}

	src := doc.DataSources["Measurements"]
	if src.Provider != "fiware" || src.Type != "Sensor" || src.URI != "https://data.iiss.at/dataskop/fiwarenosec" {
		t.Fatalf("source = %+v", src)
	}
	if src.Query.Type != "AirQualityObserved" {
		t.Fatalf("query type = %q", src.Query.Type)
	}
	if want := []string{"location", "Nox", "O3", "dateObserved"}; !reflect.DeepEqual(src.Query.Select, want) {
		t.Fatalf("select = %v, spellings must survive verbatim", src.Query.Select)
	}

	if doc.Application.Type != "Web" || doc.Application.Layout != "SinglePage" {
		t.Fatalf("application = %+v", doc.Application)
	}
	if want := []string{"User", "Admin"}; !reflect.DeepEqual(doc.Application.Roles, want) {
		t.Fatalf("roles = %v", doc.Application.Roles)
	}

	vis := doc.Visualizations["Air Quality Visualization"]
	if vis.Type != "Map" || vis.Source != "Measurements" {
		t.Fatalf("visualization = %+v", vis)
	}
	names := make([]string, 0, len(vis.Data))
	for _, f := range vis.Data {
		names = append(names, f.Name)
	}
	if want := []string{"location", "address", "NOx", "O3"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("data fields = %v", names)
	}
	if got := vis.Extra["area"]; got.String() != "Madrid" {
		t.Fatalf("extra.area = %v", got)
	}
	if want := []string{"User"}; !reflect.DeepEqual(vis.Roles, want) {
		t.Fatalf("visualization roles = %v", vis.Roles)
	}

	env := doc.DeploymentEnvs["local"]
	if env.URI != "http://localhost/test" || env.Port != 50055 || env.Type != "Docker" {
		t.Fatalf("env = %+v", env)
	}
	if env.Credentials["user"] != "admin" {
		t.Fatalf("credentials = %v", env.Credentials)
	}
	if want := []string{"Admin"}; !reflect.DeepEqual(env.Roles, want) {
		t.Fatalf("env roles = %v", env.Roles)
	}
}

func TestCompileReferentialIntegrityAndRoleClosure(t *testing.T) {
	res := compileSample(t, airQualityYAML)

	declared := make(map[string]bool, len(res.IR.Application.Roles))
	for _, r := range res.IR.Application.Roles {
		declared[r] = true
	}

	for name, vis := range res.IR.Visualizations {
		if _, ok := res.IR.DataSources[vis.Source]; !ok {
			t.Fatalf("visualization %q references missing source %q", name, vis.Source)
		}
		for _, r := range vis.Roles {
			if !declared[r] {
				t.Fatalf("visualization %q carries undeclared role %q", name, r)
			}
		}
	}
	for name, env := range res.IR.DeploymentEnvs {
		for _, r := range env.Roles {
			if !declared[r] {
				t.Fatalf("env %q carries undeclared role %q", name, r)
			}
		}
	}
}

func TestCompileContentHashConsistent(t *testing.T) {
	res := compileSample(t, airQualityYAML)

	var doc ir.Document
	if err := json.Unmarshal(res.CanonicalIR, &doc); err != nil {
		t.Fatalf("decode canonical IR: %v", err)
	}
	recomputed, err := ir.ComputeContentHash(&doc)
	if err != nil {
		t.Fatalf("recompute hash: %v", err)
	}
	if recomputed != doc.ContentHash {
		t.Fatalf("hash %s does not match recomputed %s", doc.ContentHash, recomputed)
	}
}

func TestCompileDiagnosticOrderFollowsStages(t *testing.T) {
	src := strings.Replace(airQualityYAML, "version: 1.0.0", "version: 2.0.0", 1)
	src = strings.Replace(src, "port: 50055", "port: 99999", 1)
	src = strings.Replace(src, "- Admin", "- User", 1)

	first := compileSample(t, src)
	second := compileSample(t, src)
	if !reflect.DeepEqual(first.Diagnostics, second.Diagnostics) {
		t.Fatalf("diagnostic order is not stable across runs")
	}

	index := func(code string) int {
		for i, d := range first.Diagnostics {
			if d.Code == code {
				return i
			}
		}
		t.Fatalf("code %s missing from report: %v", code, first.Diagnostics)
		return -1
	}
	parseAt := index(diag.CodeParse)
	gateAt := index(diag.CodeVersionUnsupported)
	extractAt := index(diag.CodeDuplicateKey)
	if !(parseAt < gateAt && gateAt < extractAt) {
		t.Fatalf("stage order violated: parse=%d gate=%d extract=%d", parseAt, gateAt, extractAt)
	}
}
