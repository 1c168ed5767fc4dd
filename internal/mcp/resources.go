package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ssdl-lang/ssdlc/internal/pkg/explain"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

func registerResources(s *server.MCPServer, svc port.Compile) {
	s.AddResource(mcp.NewResource(
		"resource://ssdl/codes",
		"SSDL Error Code Register",
		mcp.WithResourceDescription("Every stable diagnostic and pipeline error code with title and description."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		out, _ := json.MarshalIndent(explain.All(), "", "  ")
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      "resource://ssdl/codes",
			MIMEType: "application/json",
			Text:     string(out),
		}}, nil
	})

	s.AddResourceTemplate(mcp.NewResourceTemplate(
		"resource://ssdl/descriptors/{name}",
		"Registered Descriptor",
		mcp.WithTemplateDescription("Source and compile verdict of a registered descriptor."),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		name := strings.TrimPrefix(request.Params.URI, "resource://ssdl/descriptors/")
		if name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("invalid descriptor URI: %s", request.Params.URI)
		}
		rec, err := svc.GetDescriptor(ctx, name)
		if err != nil {
			return nil, err
		}
		body := map[string]any{
			"name":   rec.Name,
			"hash":   rec.Hash,
			"state":  rec.State,
			"source": string(rec.Source),
		}
		if rec.FailedStage != "" {
			body["failed_stage"] = rec.FailedStage
		}
		out, _ := json.MarshalIndent(body, "", "  ")
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(out),
		}}, nil
	})
}
