package ir

import (
	"bytes"
	"strings"
	"testing"
)

func minimalDocument() *Document {
	return &Document{
		SchemaVersion:   SchemaV1,
		CompilerVersion: "0.3.0",
		Compatibility:   CompatExact,
		Service:         Service{Name: "Air Quality Madrid", Scope: "Environment", Version: "1.0.0"},
		DataSources: map[string]DataSource{
			"Measurements": {
				Name:     "Measurements",
				Provider: "fiware",
				Type:     "Sensor",
				URI:      "https://data.iiss.at/dataskop/fiwarenosec",
				Query:    Query{Type: "AirQualityObserved", Select: []string{"location", "Nox", "O3", "dateObserved"}},
			},
		},
		Application: Application{Type: "Web", Layout: "SinglePage", Roles: []string{"User", "Admin"}},
		Visualizations: map[string]Visualization{
			"Air Quality Visualization": {
				Name:   "Air Quality Visualization",
				Type:   "Map",
				Source: "Measurements",
				Data: []Field{
					{Name: "location", Class: ClassProjected},
					{Name: "address", Class: ClassDerived},
					{Name: "NOx", Class: ClassDerived},
					{Name: "O3", Class: ClassProjected},
				},
				Roles: []string{"User"},
			},
		},
		DeploymentEnvs: map[string]DeploymentEnv{
			"local": {Name: "local", URI: "http://localhost/test", Port: 50055, Type: "Docker", Roles: []string{"Admin"}},
		},
	}
}

func TestMigrateToCurrentRejectsUnknownVersion(t *testing.T) {
	doc := &Document{SchemaVersion: "99"}
	if err := MigrateToCurrent(doc); err == nil {
		t.Fatal("expected error for unknown schema version")
	}
}

func TestMigrateToCurrentUpgradesLegacy(t *testing.T) {
	for _, legacy := range []string{"", "0"} {
		doc := &Document{SchemaVersion: legacy}
		if err := MigrateToCurrent(doc); err != nil {
			t.Fatalf("migrate %q: %v", legacy, err)
		}
		if doc.SchemaVersion != SchemaV1 {
			t.Errorf("schema version = %q, want %q", doc.SchemaVersion, SchemaV1)
		}
	}
}

func TestMigrateNormalizesEmptyCollections(t *testing.T) {
	doc := &Document{SchemaVersion: SchemaV1}
	if err := MigrateToCurrent(doc); err != nil {
		t.Fatal(err)
	}
	if doc.DataSources == nil || doc.Visualizations == nil || doc.DeploymentEnvs == nil {
		t.Error("collections must never stay nil")
	}
	if doc.Application.Roles == nil {
		t.Error("roles must normalize to an empty list")
	}

	b, err := ToCanonicalJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(b, []byte("null")) {
		t.Errorf("canonical form must not contain null collections:\n%s", b)
	}
}

func TestToCanonicalJSONShape(t *testing.T) {
	b, err := ToCanonicalJSON(minimalDocument())
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.HasSuffix(s, "}\n") {
		t.Error("canonical form ends with a trailing newline")
	}
	if !strings.HasPrefix(s, "{\n  \"") {
		t.Error("canonical form uses two-space indentation")
	}
	// Struct fields marshal in declaration order, starting with the header.
	if strings.Index(s, `"schema_version"`) > strings.Index(s, `"service"`) {
		t.Error("top-level keys are not in declaration order")
	}
}

func TestToCanonicalJSONDeterministic(t *testing.T) {
	a, err := ToCanonicalJSON(minimalDocument())
	if err != nil {
		t.Fatal(err)
	}

	// Rebuild with a different map insertion order.
	doc := minimalDocument()
	extra := DataSource{Name: "Weather", Provider: "fiware", Type: "Sensor",
		URI: "https://data.iiss.at/weather", Query: Query{Type: "WeatherObserved", Select: []string{"temperature"}}}
	doc.DataSources["Weather"] = extra
	delete(doc.DataSources, "Weather")

	b, err := ToCanonicalJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical bytes depend on map history")
	}
}

func TestComputeContentHashExcludesItself(t *testing.T) {
	doc := minimalDocument()
	first, err := ComputeContentHash(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 64 {
		t.Fatalf("hash = %q, want sha256 hex", first)
	}

	doc.ContentHash = first
	second, err := ComputeContentHash(doc)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("stamped hash must not feed its own digest")
	}

	doc.Service.Scope = "Energy"
	third, err := ComputeContentHash(doc)
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Error("content change must change the hash")
	}
}
