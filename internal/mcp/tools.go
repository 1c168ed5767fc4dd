package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/internal/pkg/explain"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

// CompileReport is the unified tool response shape.
type CompileReport struct {
	Status         string            `json:"status"`
	State          string            `json:"state"`
	FailedStage    string            `json:"failed_stage,omitempty"`
	DescriptorHash string            `json:"descriptor_hash"`
	ContentHash    string            `json:"content_hash,omitempty"`
	ExitCode       int               `json:"exit_code"`
	Cached         bool              `json:"cached,omitempty"`
	Diagnostics    []diag.Diagnostic `json:"diagnostics,omitempty"`
	IR             json.RawMessage   `json:"ir,omitempty"`
	NextActions    []string          `json:"next_actions,omitempty"`
}

func (r *CompileReport) ToJSON() string {
	b, _ := json.MarshalIndent(r, "", "  ")
	return string(b)
}

func reportFromCompile(resp port.CompileResponse) *CompileReport {
	report := &CompileReport{
		Status:         "ok",
		State:          resp.State,
		FailedStage:    resp.FailedStage,
		DescriptorHash: resp.DescriptorHash,
		ContentHash:    resp.ContentHash,
		ExitCode:       resp.ExitCode,
		Cached:         resp.Cached,
		Diagnostics:    resp.Diagnostics,
		IR:             resp.IR,
	}
	if resp.ExitCode != 0 {
		report.Status = "failed"
		report.NextActions = explainActions(resp.Diagnostics)
	}
	return report
}

// explainActions suggests one ssdl_explain call per distinct fatal code.
func explainActions(diags []diag.Diagnostic) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range diags {
		if d.Severity != diag.SeverityError || seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		out = append(out, fmt.Sprintf("ssdl_explain code=%s", d.Code))
	}
	return out
}

func registerCompileTools(addTool toolAdder, svc port.Compile) {
	addTool("ssdl_compile", mcp.NewTool("ssdl_compile",
		mcp.WithDescription("Compile an SSDL descriptor to canonical IR. Returns pipeline state, the full diagnostic list, and the IR document."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Descriptor text (YAML, JSON, or CUE).")),
		mcp.WithString("filename", mcp.Description("Source filename; the extension selects the syntax. Defaults to YAML.")),
		mcp.WithString("name", mcp.Description("Register the result in the descriptor registry under this name.")),
		mcp.WithBoolean("include_ir", mcp.Description("Include the canonical IR in the response (default: true).")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := port.CompileRequest{
			Name:     strings.TrimSpace(mcp.ParseString(request, "name", "")),
			Source:   mcp.ParseString(request, "source", ""),
			Filename: strings.TrimSpace(mcp.ParseString(request, "filename", "")),
		}
		resp, err := svc.Compile(ctx, req)
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("Compile error: %v", err)), nil
		}
		report := reportFromCompile(resp)
		if !mcp.ParseBoolean(request, "include_ir", true) {
			report.IR = nil
		}
		return mcp.NewToolResultText(report.ToJSON()), nil
	})

	addTool("ssdl_validate", mcp.NewTool("ssdl_validate",
		mcp.WithDescription("Validate an SSDL descriptor without emitting IR. Same pipeline, same diagnostics, lighter response."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Descriptor text (YAML, JSON, or CUE).")),
		mcp.WithString("filename", mcp.Description("Source filename; the extension selects the syntax.")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := port.ValidateRequest{
			Source:   mcp.ParseString(request, "source", ""),
			Filename: strings.TrimSpace(mcp.ParseString(request, "filename", "")),
		}
		resp, err := svc.Validate(ctx, req)
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("Validate error: %v", err)), nil
		}
		report := &CompileReport{
			Status:         "ok",
			State:          resp.State,
			FailedStage:    resp.FailedStage,
			DescriptorHash: resp.DescriptorHash,
			ExitCode:       resp.ExitCode,
			Diagnostics:    resp.Diagnostics,
		}
		if resp.ExitCode != 0 {
			report.Status = "failed"
			report.NextActions = explainActions(resp.Diagnostics)
		}
		return mcp.NewToolResultText(report.ToJSON()), nil
	})

	addTool("ssdl_explain", mcp.NewTool("ssdl_explain",
		mcp.WithDescription("Explain a stable diagnostic or pipeline error code."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Code to explain, e.g. E_DANGLING_REF.")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := mcp.ParseString(request, "code", "")
		entry, ok := explain.Lookup(code)
		if !ok {
			known := explain.All()
			codes := make([]string, 0, len(known))
			for _, e := range known {
				codes = append(codes, e.Code)
			}
			return mcp.NewToolResultText(fmt.Sprintf("Unknown code: %s\nKnown codes: %s",
				strings.TrimSpace(code), strings.Join(codes, ", "))), nil
		}
		b, _ := json.MarshalIndent(entry, "", "  ")
		return mcp.NewToolResultText(string(b)), nil
	})

	addTool("ssdl_descriptors", mcp.NewTool("ssdl_descriptors",
		mcp.WithDescription("List registered descriptors with state and hash."),
		mcp.WithNumber("offset", mcp.Description("List offset (default: 0).")),
		mcp.WithNumber("limit", mcp.Description("Max entries (default: 50).")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		offset := int(mcp.ParseFloat64(request, "offset", 0))
		limit := int(mcp.ParseFloat64(request, "limit", 50))
		recs, err := svc.ListDescriptors(ctx, offset, limit)
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("List error: %v", err)), nil
		}
		type item struct {
			Name        string `json:"name"`
			Hash        string `json:"hash"`
			State       string `json:"state"`
			FailedStage string `json:"failed_stage,omitempty"`
		}
		out := struct {
			Status      string `json:"status"`
			Descriptors []item `json:"descriptors"`
		}{Status: "ok", Descriptors: make([]item, 0, len(recs))}
		for _, rec := range recs {
			out.Descriptors = append(out.Descriptors, item{
				Name:        rec.Name,
				Hash:        rec.Hash,
				State:       rec.State,
				FailedStage: rec.FailedStage,
			})
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(b)), nil
	})

	addTool("ssdl_descriptor_ir", mcp.NewTool("ssdl_descriptor_ir",
		mcp.WithDescription("Fetch the emitted canonical IR of a registered descriptor."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered descriptor name.")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := strings.TrimSpace(mcp.ParseString(request, "name", ""))
		rec, err := svc.GetDescriptor(ctx, name)
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("Lookup error: %v", err)), nil
		}
		if len(rec.IR) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("Descriptor %s has no emitted IR (state %s).", rec.Name, rec.State)), nil
		}
		return mcp.NewToolResultText(string(rec.IR)), nil
	})
}
