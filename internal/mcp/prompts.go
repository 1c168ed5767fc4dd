package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("ssdl/fix-descriptor",
		mcp.WithPromptDescription("Guided flow to drive a failing SSDL descriptor to a clean compile."),
		mcp.WithArgument("source", mcp.ArgumentDescription("Descriptor text to repair"), mcp.RequiredArgument()),
		mcp.WithArgument("filename", mcp.ArgumentDescription("Source filename, selects the syntax; optional")),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		source := strings.TrimSpace(request.Params.Arguments["source"])
		filename := strings.TrimSpace(request.Params.Arguments["filename"])
		if source == "" {
			return nil, fmt.Errorf("source is required")
		}
		text := fmt.Sprintf(
			"You are repairing an SSDL descriptor until it compiles cleanly.\n"+
				"Input:\n- filename: %s\n\nDescriptor:\n%s\n\n"+
				"Execution plan (use MCP tools in order):\n"+
				"1) Call ssdl_compile with the descriptor (include_ir: false).\n"+
				"2) The response lists EVERY diagnostic at once; do not fix one and recompile blindly.\n"+
				"3) For each unfamiliar code, call ssdl_explain to get the rule and an example.\n"+
				"4) Patch the descriptor text to resolve all fatals; address W_ codes when they look like typos.\n"+
				"5) Recompile until exit_code is 0.\n"+
				"6) Return the fixed descriptor and a one-line note per change.\n\n"+
				"Rules:\n- Keep the author's key order and formatting where possible.\n- Never invent data sources or roles; declare what the descriptor already uses.\n",
			filename, source,
		)
		return mcp.NewGetPromptResult(
			"SSDL guided prompt: fix descriptor",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		), nil
	})

	s.AddPrompt(mcp.NewPrompt("ssdl/author-descriptor",
		mcp.WithPromptDescription("Guided flow to author a new SSDL descriptor from a service sketch."),
		mcp.WithArgument("service_name", mcp.ArgumentDescription("Service name, e.g. Air Quality Madrid"), mcp.RequiredArgument()),
		mcp.WithArgument("provider", mcp.ArgumentDescription("Data provider tag, e.g. fiware"), mcp.RequiredArgument()),
		mcp.WithArgument("visualization", mcp.ArgumentDescription("Visualization type, e.g. Map; optional")),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		serviceName := strings.TrimSpace(request.Params.Arguments["service_name"])
		provider := strings.TrimSpace(request.Params.Arguments["provider"])
		visualization := strings.TrimSpace(request.Params.Arguments["visualization"])
		if serviceName == "" || provider == "" {
			return nil, fmt.Errorf("service_name and provider are required")
		}
		text := fmt.Sprintf(
			"You are authoring a new SSDL descriptor.\n"+
				"Goal:\n- service: %s\n- provider: %s\n- visualization: %s\n\n"+
				"Execution plan (use MCP tools in order):\n"+
				"1) Draft the descriptor with service, data_sources, and application blocks.\n"+
				"2) Every visualization's source must name a declared data source; every role must be declared under application.roles.\n"+
				"3) Call ssdl_validate on the draft and resolve all diagnostics (use ssdl_explain for codes).\n"+
				"4) Call ssdl_compile with a registry name once validation is clean.\n"+
				"5) Return the descriptor and its content hash.\n",
			serviceName, provider, visualization,
		)
		return mcp.NewGetPromptResult(
			"SSDL guided prompt: author descriptor",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		), nil
	})
}
