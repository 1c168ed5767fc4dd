package mcp

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
)

// safeInvokeTool converts tool handler panics into tool results so one bad
// request cannot crash the process and close the stdio transport.
func safeInvokeTool(name string, h func() (*mcp.CallToolResult, error)) (resp *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("tool panic in %s: %v", name, r)
			fmt.Fprintln(os.Stderr, "[ssdlc mcp] "+msg)
			resp = mcp.NewToolResultText(msg)
			err = nil
		}
	}()
	return h()
}
