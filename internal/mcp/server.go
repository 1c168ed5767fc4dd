// Package mcp serves the compiler to agent tooling over MCP stdio. Tools
// wrap the same compile service the HTTP transport uses, so results match
// byte for byte across surfaces.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ssdl-lang/ssdlc/compiler"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

type toolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// toolAdder decouples tool registration from the server so tests can
// capture handlers directly.
type toolAdder func(name string, tool mcp.Tool, h toolHandler)

func Run(svc port.Compile) {
	s := server.NewMCPServer(
		"SSDL Compiler MCP Server",
		compiler.Version,
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
	)

	addTool := func(name string, tool mcp.Tool, h toolHandler) {
		s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return safeInvokeTool(name, func() (*mcp.CallToolResult, error) {
				return h(ctx, request)
			})
		})
	}

	registerCompileTools(addTool, svc)
	registerPrompts(s)
	registerResources(s, svc)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("Server error: %v\n", err)
	}
}
