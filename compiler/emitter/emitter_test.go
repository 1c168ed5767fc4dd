package emitter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

func compiledDocument() *ir.Document {
	return &ir.Document{
		SchemaVersion: ir.SchemaV1,
		Compatibility: ir.CompatExact,
		Service:       ir.Service{Name: "Air Quality Madrid", Scope: "Environment", Version: "1.0.0"},
		DataSources: map[string]ir.DataSource{
			"Measurements": {
				Name:     "Measurements",
				Provider: "fiware",
				Type:     "Sensor",
				URI:      "https://data.iiss.at/dataskop/fiwarenosec",
				Query:    ir.Query{Type: "AirQualityObserved", Select: []string{"location", "Nox", "O3", "dateObserved"}},
				Plan: &ir.QueryPlan{
					Provider:   "fiware",
					Method:     "GET",
					Endpoint:   "/v2/entities",
					Params:     map[string]string{"type": "AirQualityObserved", "attrs": "location,Nox,O3,dateObserved"},
					EntityType: "AirQualityObserved",
					Attributes: []string{"location", "Nox", "O3", "dateObserved"},
				},
			},
		},
		Application: ir.Application{Type: "Web", Layout: "SinglePage", Roles: []string{"User", "Admin"}},
		Visualizations: map[string]ir.Visualization{
			"Air Quality Visualization": {
				Name:   "Air Quality Visualization",
				Type:   "Map",
				Source: "Measurements",
				Data: []ir.Field{
					{Name: "location", Class: ir.ClassProjected},
					{Name: "address", Class: ir.ClassDerived},
					{Name: "NOx", Class: ir.ClassDerived},
					{Name: "O3", Class: ir.ClassProjected},
				},
				Roles: []string{"User"},
			},
		},
		DeploymentEnvs: map[string]ir.DeploymentEnv{
			"local": {Name: "local", URI: "http://localhost/test", Port: 50055, Type: "Docker", Roles: []string{"Admin"}},
		},
	}
}

func TestEmitStampsVersionAndHash(t *testing.T) {
	doc := compiledDocument()
	b, err := New("0.3.0").Emit(doc)
	if err != nil {
		t.Fatal(err)
	}
	if doc.CompilerVersion != "0.3.0" {
		t.Errorf("compiler version = %q", doc.CompilerVersion)
	}
	if len(doc.ContentHash) != 64 {
		t.Errorf("content hash = %q", doc.ContentHash)
	}

	var back ir.Document
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.ContentHash != doc.ContentHash {
		t.Error("emitted bytes carry a different hash than the document")
	}

	want, err := ir.ComputeContentHash(&back)
	if err != nil {
		t.Fatal(err)
	}
	if back.ContentHash != want {
		t.Error("stamped hash does not match the canonical content")
	}
}

func TestEmitIdempotent(t *testing.T) {
	e := New("0.3.0")
	doc := compiledDocument()

	first, err := e.Emit(doc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Emit(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("emitting twice must be byte-identical")
	}

	fresh, err := e.Emit(compiledDocument())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, fresh) {
		t.Error("equal documents must emit equal bytes")
	}
}

func TestEmitRejectsBrokenDocument(t *testing.T) {
	doc := compiledDocument()
	vis := doc.Visualizations["Air Quality Visualization"]
	vis.Source = "Telemetry"
	doc.Visualizations["Air Quality Visualization"] = vis

	_, err := New("0.3.0").Emit(doc)
	if err == nil || !strings.Contains(err.Error(), "ir abi") {
		t.Fatalf("err = %v, want abi rejection", err)
	}
}

func TestEmitFile(t *testing.T) {
	e := New("0.3.0")
	doc := compiledDocument()
	path := filepath.Join(t.TempDir(), "out", "airquality.ir.json")

	if err := e.EmitFile(doc, path); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want, err := e.Emit(compiledDocument())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("file content differs from canonical emission")
	}
}

func TestBuildManifest(t *testing.T) {
	doc := compiledDocument()
	doc.DataSources["Weather"] = ir.DataSource{
		Name: "Weather", Provider: "fiware", Type: "Sensor",
		URI:   "https://data.iiss.at/weather",
		Query: ir.Query{Type: "WeatherObserved", Select: []string{"temperature"}},
	}
	if _, err := New("0.3.0").Emit(doc); err != nil {
		t.Fatal(err)
	}

	m := BuildManifest(doc)
	if !reflect.DeepEqual(m.Providers, []string{"fiware"}) {
		t.Errorf("providers = %v", m.Providers)
	}
	if len(m.DataSources) != 2 || m.DataSources[0].Name != "Measurements" {
		t.Errorf("sources = %+v", m.DataSources)
	}
	if m.DataSources[0].EntityType != "AirQualityObserved" || m.DataSources[0].Selected != 4 {
		t.Errorf("source summary = %+v", m.DataSources[0])
	}

	vs := m.Visualizations[0]
	if vs.Projected != 2 || vs.Derived != 2 {
		t.Errorf("classification counts = %+v", vs)
	}
	if !reflect.DeepEqual(m.Environments, []string{"local"}) {
		t.Errorf("environments = %v", m.Environments)
	}
	if m.ContentHash == "" {
		t.Error("manifest should echo the content hash")
	}
}

func TestEmitManifestShape(t *testing.T) {
	doc := compiledDocument()
	e := New("0.3.0")
	if _, err := e.Emit(doc); err != nil {
		t.Fatal(err)
	}
	b, err := e.EmitManifest(doc)
	if err != nil {
		t.Fatal(err)
	}
	var m CompileManifest
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m.Service.Name != "Air Quality Madrid" {
		t.Errorf("service = %+v", m.Service)
	}
}
