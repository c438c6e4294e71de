// Package mcp provides the MCP (Model Context Protocol) server implementation.
//
// This package exposes the pCloudy device cloud as tools that can be called
// by AI agents via the MCP protocol. Every tool returns a response envelope
// (a list of content blocks plus an isError flag) and never surfaces a Go
// error to the caller: the tool handlers are the single failure boundary.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rishav781/Pcloudy-MCP/internal/api"
	"github.com/rishav781/Pcloudy-MCP/internal/config"
)

// Server wraps the MCP server with the pCloudy API client.
type Server struct {
	mcpServer *mcp.Server
	apiClient *api.Client
	version   string
}

// NewServer creates a new pCloudy MCP server from the process environment.
//
// Parameters:
//   - version: The server version string
//
// Returns:
//   - *Server: A new server instance
//   - error: If required credentials are missing from the environment
func NewServer(version string) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("not configured: %w", err)
	}
	return NewServerWithClient(api.NewClient(cfg), version), nil
}

// NewServerWithClient creates a server around an existing API client.
// Used by tests to point the tools at a fake backend.
func NewServerWithClient(client *api.Client, version string) *Server {
	s := &Server{
		apiClient: client,
		version:   version,
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    "pcloudy",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server over stdio and blocks until the client
// disconnects. The API client is closed on return.
func (s *Server) Run(ctx context.Context) error {
	defer s.apiClient.Close()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns an http.Handler serving the MCP protocol over streamable
// HTTP, for hosts that connect over the network instead of stdio.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// boolPtr returns a pointer to a bool value. Used for ToolAnnotations fields.
func boolPtr(b bool) *bool { return &b }

// registerTools registers all pCloudy tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_available_devices",
		Description: "List the names of Android devices currently available for booking on pCloudy.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "List Available Devices",
			ReadOnlyHint: true,
		},
	}, s.handleListAvailableDevices)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "book_device",
		Description: "Book an Android device by name. Matches the name case-insensitively against the available device models and books the first match. Returns the RID used by all per-device tools.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Book Device",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleBookDevice)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "upload_file",
		Description: "Upload a local file (e.g. an APK) to the pCloudy cloud drive. Skips the upload if a file with the same name already exists.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Upload File",
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleUploadFile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "execute_adb_command",
		Description: "Execute an ADB command on a booked device and return its output.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Execute ADB Command",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleExecuteADBCommand)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "capture_device_screenshot",
		Description: "Capture a screenshot of a booked device. Returns the URL of the image file.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Capture Device Screenshot",
			ReadOnlyHint: true,
		},
	}, s.handleCaptureDeviceScreenshot)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "install_and_launch_app",
		Description: "Install an app from the cloud drive on a booked device and launch it.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Install and Launch App",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleInstallAndLaunchApp)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "release_device",
		Description: "Release a booked device and end its billing.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Release Device",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleReleaseDevice)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_device_page_url",
		Description: "Get the pCloudy device page URL to view the booked device's screen in a browser.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Get Device Page URL",
			ReadOnlyHint: true,
		},
	}, s.handleGetDevicePageURL)
}

// successResult builds a non-error response envelope with a single text
// content block.
func successResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: false,
	}
}

// errorResult builds an error response envelope with a single text content
// block describing the failure.
func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
