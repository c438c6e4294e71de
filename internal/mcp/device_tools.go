package mcp

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"

	"github.com/rishav781/Pcloudy-MCP/internal/api"
	"github.com/rishav781/Pcloudy-MCP/internal/config"
)

// --- List Available Devices ---

// ListAvailableDevicesInput defines input for list_available_devices.
type ListAvailableDevicesInput struct{}

func (s *Server) handleListAvailableDevices(ctx context.Context, req *mcp.CallToolRequest, input ListAvailableDevicesInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: list_available_devices")

	devices, err := s.apiClient.ListDevices(ctx, config.DefaultPlatform, config.DefaultDuration, true)
	if err != nil {
		return errorResult("Error listing devices: %v", err), nil, nil
	}

	available := lo.FilterMap(devices, func(d api.Device, _ int) (string, bool) {
		return d.Model, d.Available
	})
	if len(available) == 0 {
		// A successful call with zero usable results is still a tool failure.
		return errorResult("No devices are currently available."), nil, nil
	}

	return successResult("Available devices: %s", strings.Join(available, ", ")), nil, nil
}

// --- Book Device ---

// BookDeviceInput defines input for book_device.
type BookDeviceInput struct {
	DeviceName string `json:"device_name" jsonschema:"Device name or fragment to match against available models, e.g. 'Galaxy' (REQUIRED)"`
}

func (s *Server) handleBookDevice(ctx context.Context, req *mcp.CallToolRequest, input BookDeviceInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: book_device", "device_name", input.DeviceName)

	if input.DeviceName == "" {
		return errorResult("device_name is required"), nil, nil
	}

	devices, err := s.apiClient.ListDevices(ctx, config.DefaultPlatform, config.DefaultDuration, true)
	if err != nil {
		return errorResult("Error booking device: %v", err), nil, nil
	}
	if len(devices) == 0 {
		return errorResult("No devices available"), nil, nil
	}

	// Case-insensitive substring match, first match in listing order wins.
	query := strings.ToLower(strings.TrimSpace(input.DeviceName))
	selected, found := lo.Find(devices, func(d api.Device) bool {
		return d.Available && strings.Contains(strings.ToLower(d.Model), query)
	})
	if !found {
		return errorResult("No available device found matching '%s'. Please choose from the available devices.", query), nil, nil
	}

	rid, err := s.apiClient.BookDevice(ctx, selected.ID, config.DefaultDuration)
	if err != nil {
		return errorResult("Error booking device: %v", err), nil, nil
	}

	return successResult("Device '%s' booked successfully. RID: %s", selected.Model, rid), nil, nil
}

// --- Execute ADB Command ---

// ExecuteADBCommandInput defines input for execute_adb_command.
type ExecuteADBCommandInput struct {
	RID        string `json:"rid" jsonschema:"Reservation ID from book_device (REQUIRED)"`
	ADBCommand string `json:"adb_command" jsonschema:"ADB command to execute, e.g. 'adb shell getprop' (REQUIRED)"`
}

func (s *Server) handleExecuteADBCommand(ctx context.Context, req *mcp.CallToolRequest, input ExecuteADBCommandInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: execute_adb_command", "rid", input.RID, "adb_command", input.ADBCommand)

	if input.RID == "" {
		return errorResult("rid is required -- book a device first"), nil, nil
	}
	if input.ADBCommand == "" {
		return errorResult("adb_command is required"), nil, nil
	}

	output, err := s.apiClient.ExecuteADB(ctx, input.RID, input.ADBCommand)
	if err != nil {
		return errorResult("Error executing ADB command: %v", err), nil, nil
	}
	if output == "" {
		output = "No output returned"
	}

	return successResult("ADB command executed successfully: %s", output), nil, nil
}

// --- Capture Device Screenshot ---

// CaptureDeviceScreenshotInput defines input for capture_device_screenshot.
type CaptureDeviceScreenshotInput struct {
	RID  string `json:"rid" jsonschema:"Reservation ID from book_device (REQUIRED)"`
	Skin *bool  `json:"skin,omitempty" jsonschema:"Include the device skin in the capture (default true)"`
}

func (s *Server) handleCaptureDeviceScreenshot(ctx context.Context, req *mcp.CallToolRequest, input CaptureDeviceScreenshotInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: capture_device_screenshot", "rid", input.RID)

	if input.RID == "" {
		return errorResult("rid is required -- book a device first"), nil, nil
	}

	skin := true
	if input.Skin != nil {
		skin = *input.Skin
	}

	fileURL, err := s.apiClient.CaptureScreenshot(ctx, input.RID, skin)
	if err != nil {
		return errorResult("Error capturing screenshot: %v", err), nil, nil
	}

	return successResult("Screenshot captured successfully: %s", fileURL), nil, nil
}

// --- Install and Launch App ---

// InstallAndLaunchAppInput defines input for install_and_launch_app.
type InstallAndLaunchAppInput struct {
	RID                 string `json:"rid" jsonschema:"Reservation ID from book_device (REQUIRED)"`
	Filename            string `json:"filename" jsonschema:"App file name in the cloud drive, e.g. 'app.apk' (REQUIRED)"`
	GrantAllPermissions *bool  `json:"grant_all_permissions,omitempty" jsonschema:"Grant all runtime permissions on install (default true)"`
}

func (s *Server) handleInstallAndLaunchApp(ctx context.Context, req *mcp.CallToolRequest, input InstallAndLaunchAppInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: install_and_launch_app", "rid", input.RID, "filename", input.Filename)

	if input.RID == "" {
		return errorResult("rid is required -- book a device first"), nil, nil
	}
	if input.Filename == "" {
		return errorResult("filename is required -- upload_file first if the app is not in the cloud drive"), nil, nil
	}

	grant := true
	if input.GrantAllPermissions != nil {
		grant = *input.GrantAllPermissions
	}

	if _, err := s.apiClient.InstallAndLaunchApp(ctx, input.RID, input.Filename, grant); err != nil {
		return errorResult("Error installing and launching app: %v", err), nil, nil
	}

	return successResult("App '%s' installed and launched successfully on RID: %s", input.Filename, input.RID), nil, nil
}

// --- Release Device ---

// ReleaseDeviceInput defines input for release_device.
type ReleaseDeviceInput struct {
	RID string `json:"rid" jsonschema:"Reservation ID to release (REQUIRED)"`
}

func (s *Server) handleReleaseDevice(ctx context.Context, req *mcp.CallToolRequest, input ReleaseDeviceInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: release_device", "rid", input.RID)

	if input.RID == "" {
		return errorResult("rid is required"), nil, nil
	}

	if err := s.apiClient.ReleaseDevice(ctx, input.RID); err != nil {
		return errorResult("Error releasing device: %v", err), nil, nil
	}

	return successResult("Device with RID %s released successfully", input.RID), nil, nil
}

// --- Get Device Page URL ---

// GetDevicePageURLInput defines input for get_device_page_url.
type GetDevicePageURLInput struct {
	RID string `json:"rid" jsonschema:"Reservation ID from book_device (REQUIRED)"`
}

func (s *Server) handleGetDevicePageURL(ctx context.Context, req *mcp.CallToolRequest, input GetDevicePageURLInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: get_device_page_url", "rid", input.RID)

	if input.RID == "" {
		return errorResult("rid is required -- book a device first"), nil, nil
	}

	deviceURL, err := s.apiClient.GetDevicePageURL(ctx, input.RID)
	if err != nil {
		return errorResult("Error getting device page URL: %v", err), nil, nil
	}

	return successResult("Device page URL: %s", deviceURL), nil, nil
}
