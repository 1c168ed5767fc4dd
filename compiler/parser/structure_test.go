package parser

import (
	"strings"
	"testing"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

func parseAndCheck(t *testing.T, src string) diag.List {
	t.Helper()
	doc, err := New().Parse("test.ssdl.yaml", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return CheckStructure(doc)
}

func TestCheckStructureCleanSample(t *testing.T) {
	diags := parseAndCheck(t, sampleYAML)
	if diags.HasFatal() {
		t.Fatalf("unexpected fatals: %v", diags.Fatals())
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestCheckStructureMissingSections(t *testing.T) {
	diags := parseAndCheck(t, "service:\n  name: s\n  version: 1.0.0\n")
	fatals := diags.Fatals()
	if len(fatals) != 3 {
		t.Fatalf("fatals = %d, want 3 (data_sources, application, deployment): %v", len(fatals), fatals)
	}
	paths := map[string]bool{}
	for _, d := range fatals {
		if d.Code != diag.CodeParse {
			t.Fatalf("code = %s, want %s", d.Code, diag.CodeParse)
		}
		paths[d.Path] = true
	}
	for _, want := range []string{"data_sources", "application", "deployment"} {
		if !paths[want] {
			t.Fatalf("missing fatal for section %q: %v", want, fatals)
		}
	}
}

func TestCheckStructurePortOutOfRange(t *testing.T) {
	src := strings.Replace(sampleYAML, "port: 50055", "port: 99999", 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 1 {
		t.Fatalf("fatals = %v, want exactly one", fatals)
	}
	d := fatals[0]
	if d.Code != diag.CodeParse {
		t.Fatalf("code = %s, want %s", d.Code, diag.CodeParse)
	}
	if d.Path != "deployment.env.local.port" {
		t.Fatalf("path = %q", d.Path)
	}
	if !strings.Contains(d.Message, "99999") || !strings.Contains(d.Message, "65535") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestCheckStructurePortAsString(t *testing.T) {
	src := strings.Replace(sampleYAML, "port: 50055", `port: "50055"`, 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 1 {
		t.Fatalf("fatals = %v", fatals)
	}
	if !strings.Contains(fatals[0].Message, "expected int, got string") {
		t.Fatalf("message = %q", fatals[0].Message)
	}
}

func TestCheckStructureEmptySelect(t *testing.T) {
	src := strings.Replace(sampleYAML, `        select:
          - location
          - Nox
          - O3
          - dateObserved`, "        select: []", 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 1 {
		t.Fatalf("fatals = %v", fatals)
	}
	if fatals[0].Path != "data_sources.measurements.Measurements.query.select" {
		t.Fatalf("path = %q", fatals[0].Path)
	}
}

func TestCheckStructureDuplicateSelectEntries(t *testing.T) {
	src := strings.Replace(sampleYAML, "          - dateObserved", "          - dateObserved\n          - location", 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 1 {
		t.Fatalf("fatals = %v", fatals)
	}
	if !strings.Contains(fatals[0].Message, "duplicate entries") {
		t.Fatalf("message = %q", fatals[0].Message)
	}
}

func TestCheckStructureInvalidURI(t *testing.T) {
	src := strings.Replace(sampleYAML, "uri: http://localhost/test", "uri: not a uri", 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 1 {
		t.Fatalf("fatals = %v", fatals)
	}
	if fatals[0].Path != "deployment.env.local.uri" {
		t.Fatalf("path = %q", fatals[0].Path)
	}
}

func TestCheckStructureUnknownTopLevelIgnored(t *testing.T) {
	diags := parseAndCheck(t, sampleYAML+"\nfuture_section:\n  anything: true\n")
	if len(diags) != 0 {
		t.Fatalf("unknown top-level section should be ignored: %v", diags)
	}
}

func TestCheckStructureUnknownEntityKeyWarns(t *testing.T) {
	src := strings.Replace(sampleYAML, "      type: Sensor", "      type: Sensor\n      refresh: hourly", 1)
	diags := parseAndCheck(t, src)
	if diags.HasFatal() {
		t.Fatalf("unexpected fatals: %v", diags.Fatals())
	}
	warns := diags.Warnings()
	if len(warns) != 1 {
		t.Fatalf("warnings = %v, want one", warns)
	}
	w := warns[0]
	if w.Code != diag.CodeUnknownAttribute {
		t.Fatalf("code = %s", w.Code)
	}
	if w.Path != "data_sources.measurements.Measurements.refresh" {
		t.Fatalf("path = %q", w.Path)
	}
}

func TestCheckStructureVisStrayScalarSilent(t *testing.T) {
	src := strings.Replace(sampleYAML, "      source: Measurements", "      source: Measurements\n      refresh: hourly", 1)
	diags := parseAndCheck(t, src)
	if len(diags) != 0 {
		t.Fatalf("scalar stray on a visualization is absorbed, not reported: %v", diags)
	}
}

func TestCheckStructureExtraMustBeScalar(t *testing.T) {
	src := strings.Replace(sampleYAML, "        area: Madrid", "        area:\n          nested: true", 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 1 {
		t.Fatalf("fatals = %v", fatals)
	}
	if !strings.Contains(fatals[0].Message, "scalars") {
		t.Fatalf("message = %q", fatals[0].Message)
	}
}

func TestCheckStructureMissingVersion(t *testing.T) {
	src := strings.Replace(sampleYAML, "  version: 1.0.0\n", "", 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 1 {
		t.Fatalf("fatals = %v", fatals)
	}
	if fatals[0].Path != "service.version" {
		t.Fatalf("path = %q", fatals[0].Path)
	}
}

func TestCheckStructureCollectsAcrossEntities(t *testing.T) {
	src := strings.Replace(sampleYAML, "port: 50055", "port: 99999", 1)
	src = strings.Replace(src, "uri: https://data.iiss.at/dataskop/fiwarenosec", "uri: nope", 1)
	diags := parseAndCheck(t, src)
	fatals := diags.Fatals()
	if len(fatals) != 2 {
		t.Fatalf("fatals = %d, want both entity violations reported: %v", len(fatals), fatals)
	}
}

func TestCheckStructureFileStamped(t *testing.T) {
	diags := parseAndCheck(t, strings.Replace(sampleYAML, "port: 50055", "port: 99999", 1))
	if diags[0].File != "test.ssdl.yaml" {
		t.Fatalf("file = %q", diags[0].File)
	}
	if diags[0].Line == 0 {
		t.Fatal("expected line info")
	}
}
