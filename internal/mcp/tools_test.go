package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ssdl-lang/ssdlc/compiler"
	eventsmem "github.com/ssdl-lang/ssdlc/internal/adapter/events/memory"
	repomem "github.com/ssdl-lang/ssdlc/internal/adapter/repository/memory"
	"github.com/ssdl-lang/ssdlc/internal/service"
)

const probeYAML = `service:
  name: Probe
  scope: Environment
  version: 1.0.0

data_sources:
  measurements:
    Src1:
      name: Src1
      provider: fiware
      type: Sensor
      uri: https://data.example.org/feed/1
      query:
        type: AirQualityObserved
        select:
          - NOx

application:
  type: Web
  roles:
    - User
  visualizations:
    Panel1:
      name: Panel1
      type: Map
      source: Src1
      data:
        - NOx
      roles:
        - User
`

func captureTools(t *testing.T) map[string]toolHandler {
	t.Helper()
	svc := service.NewCompileImpl(
		compiler.New(compiler.DefaultConfig()),
		repomem.NewDescriptorRegistryStub(),
		eventsmem.NewPublisherStub(),
	)
	tools := map[string]toolHandler{}
	addTool := func(name string, tool mcp.Tool, h toolHandler) {
		tools[name] = h
	}
	registerCompileTools(addTool, svc)
	return tools
}

func callTool(t *testing.T, tools map[string]toolHandler, name string, args map[string]any) string {
	t.Helper()
	h, ok := tools[name]
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	resp, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("tool %s: unexpected error: %v", name, err)
	}
	if resp == nil || len(resp.Content) == 0 {
		t.Fatalf("tool %s: empty response", name)
	}
	tc, ok := resp.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool %s: expected text content, got %#v", name, resp.Content[0])
	}
	return tc.Text
}

func TestCompileTool(t *testing.T) {
	tools := captureTools(t)
	text := callTool(t, tools, "ssdl_compile", map[string]any{
		"source": probeYAML,
		"name":   "probe",
	})

	var report map[string]any
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		t.Fatalf("response is not JSON: %v\npayload=%s", err, text)
	}
	if report["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", report["status"])
	}
	if report["state"] != "EMITTED" {
		t.Fatalf("expected EMITTED, got %v", report["state"])
	}
	if report["exit_code"] != float64(0) {
		t.Fatalf("expected exit_code 0, got %v", report["exit_code"])
	}
	if report["ir"] == nil {
		t.Fatal("expected IR in response")
	}
}

func TestCompileToolReportsFatals(t *testing.T) {
	tools := captureTools(t)
	broken := strings.Replace(probeYAML, "source: Src1", "source: Ghost", 1)
	text := callTool(t, tools, "ssdl_compile", map[string]any{
		"source":     broken,
		"include_ir": false,
	})

	var report map[string]any
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if report["status"] != "failed" {
		t.Fatalf("expected status failed, got %v", report["status"])
	}
	if report["ir"] != nil {
		t.Fatal("expected no IR for failed compile")
	}
	if !strings.Contains(text, "ssdl_explain code=E_DANGLING_REF") {
		t.Fatalf("expected explain next action, got %s", text)
	}
}

func TestValidateTool(t *testing.T) {
	tools := captureTools(t)
	text := callTool(t, tools, "ssdl_validate", map[string]any{"source": probeYAML})

	var report map[string]any
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if report["state"] != "EMITTED" {
		t.Fatalf("expected EMITTED, got %v", report["state"])
	}
	if report["ir"] != nil {
		t.Fatal("validate must not carry IR")
	}
}

func TestExplainTool(t *testing.T) {
	tools := captureTools(t)

	text := callTool(t, tools, "ssdl_explain", map[string]any{"code": "e_dangling_ref"})
	if !strings.Contains(text, "E_DANGLING_REF") {
		t.Fatalf("expected explanation, got %s", text)
	}

	text = callTool(t, tools, "ssdl_explain", map[string]any{"code": "E_NOPE"})
	if !strings.Contains(text, "Unknown code") {
		t.Fatalf("expected unknown code message, got %s", text)
	}
}

func TestDescriptorTools(t *testing.T) {
	tools := captureTools(t)
	callTool(t, tools, "ssdl_compile", map[string]any{"source": probeYAML, "name": "probe"})

	text := callTool(t, tools, "ssdl_descriptors", map[string]any{})
	if !strings.Contains(text, `"name": "probe"`) {
		t.Fatalf("expected probe in listing, got %s", text)
	}

	text = callTool(t, tools, "ssdl_descriptor_ir", map[string]any{"name": "probe"})
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("IR payload is not JSON: %v", err)
	}

	text = callTool(t, tools, "ssdl_descriptor_ir", map[string]any{"name": "missing"})
	if !strings.Contains(text, "Lookup error") {
		t.Fatalf("expected lookup error, got %s", text)
	}
}
