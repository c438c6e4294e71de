package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rishav781/Pcloudy-MCP/internal/api"
)

// newTestServer builds a Server whose API client talks to a fake pCloudy
// backend serving the given responses per endpoint path. The access
// endpoint is always served.
func newTestServer(t *testing.T, responses map[string]string) *Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/access" {
			_, _ = w.Write([]byte(`{"result":{"token":"tok-1"}}`))
			return
		}
		body, ok := responses[r.URL.Path]
		if !ok {
			http.Error(w, `{"error":"no such endpoint"}`, http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewServerWithClient(api.NewClientWithBaseURL("user@example.com", "key", srv.URL), "test")
}

// resultText extracts the single text block of a response envelope.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content blocks = %d, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content block is %T, want *mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestListAvailableDevices(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantText string
	}{
		{
			name: "lists only available models",
			body: `{"result":{"models":[
				{"id":1,"model":"Galaxy S21","available":true},
				{"id":2,"model":"Pixel 7","available":false},
				{"id":3,"model":"OnePlus 11","available":true}]}}`,
			wantText: "Available devices: Galaxy S21, OnePlus 11",
		},
		{
			name:     "no devices at all",
			body:     `{"result":{"models":[]}}`,
			wantErr:  true,
			wantText: "No devices are currently available.",
		},
		{
			name:     "devices exist but none available",
			body:     `{"result":{"models":[{"id":1,"model":"Galaxy S21","available":false}]}}`,
			wantErr:  true,
			wantText: "No devices are currently available.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, map[string]string{"/devices": tt.body})
			res, _, err := s.handleListAvailableDevices(context.Background(), nil, ListAvailableDevicesInput{})
			if err != nil {
				t.Fatalf("handler returned a raised error: %v", err)
			}
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, resultText(t, res))
			}
			if got := resultText(t, res); got != tt.wantText {
				t.Fatalf("text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestBookDevice(t *testing.T) {
	listing := `{"result":{"models":[
		{"id":1,"model":"Galaxy S21","available":true},
		{"id":2,"model":"Pixel 7","available":false}]}}`

	tests := []struct {
		name       string
		deviceName string
		responses  map[string]string
		wantErr    bool
		wantText   string
	}{
		{
			name:       "case-insensitive substring match",
			deviceName: "galaxy",
			responses: map[string]string{
				"/devices":     listing,
				"/book_device": `{"result":{"rid":660033}}`,
			},
			wantText: "Device 'Galaxy S21' booked successfully. RID: 660033",
		},
		{
			name:       "unavailable devices cannot match",
			deviceName: "Pixel",
			responses:  map[string]string{"/devices": listing},
			wantErr:    true,
			wantText:   "No available device found matching 'pixel'. Please choose from the available devices.",
		},
		{
			name:       "no match at all",
			deviceName: "S22",
			responses:  map[string]string{"/devices": listing},
			wantErr:    true,
			wantText:   "No available device found matching 's22'. Please choose from the available devices.",
		},
		{
			name:       "missing device_name",
			deviceName: "",
			responses:  map[string]string{"/devices": listing},
			wantErr:    true,
			wantText:   "device_name is required",
		},
		{
			name:       "empty listing",
			deviceName: "Galaxy",
			responses:  map[string]string{"/devices": `{"result":{"models":[]}}`},
			wantErr:    true,
			wantText:   "No devices available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.responses)
			res, _, err := s.handleBookDevice(context.Background(), nil, BookDeviceInput{DeviceName: tt.deviceName})
			if err != nil {
				t.Fatalf("handler returned a raised error: %v", err)
			}
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, resultText(t, res))
			}
			if got := resultText(t, res); got != tt.wantText {
				t.Fatalf("text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestExecuteADBCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    ExecuteADBCommandInput
		body     string
		wantErr  bool
		wantText string
	}{
		{
			name:     "returns output",
			input:    ExecuteADBCommandInput{RID: "660033", ADBCommand: "shell getprop"},
			body:     `{"result":{"output":"[ro.build.version.release]: [13]"}}`,
			wantText: "ADB command executed successfully: [ro.build.version.release]: [13]",
		},
		{
			name:     "empty output placeholder",
			input:    ExecuteADBCommandInput{RID: "660033", ADBCommand: "shell true"},
			body:     `{"result":{"output":""}}`,
			wantText: "ADB command executed successfully: No output returned",
		},
		{
			name:     "missing rid",
			input:    ExecuteADBCommandInput{ADBCommand: "shell getprop"},
			wantErr:  true,
			wantText: "rid is required -- book a device first",
		},
		{
			name:     "missing adb_command",
			input:    ExecuteADBCommandInput{RID: "660033"},
			wantErr:  true,
			wantText: "adb_command is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, map[string]string{"/execute_adb": tt.body})
			res, _, err := s.handleExecuteADBCommand(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("handler returned a raised error: %v", err)
			}
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, resultText(t, res))
			}
			if got := resultText(t, res); got != tt.wantText {
				t.Fatalf("text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

// A transport failure must come back as a structured error envelope, never
// as a raised error.
func TestExecuteADBCommand_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	srv.Close() // connections now refused

	s := NewServerWithClient(api.NewClientWithBaseURL("user@example.com", "key", srv.URL), "test")
	res, _, err := s.handleExecuteADBCommand(context.Background(), nil,
		ExecuteADBCommandInput{RID: "660033", ADBCommand: "shell getprop"})
	if err != nil {
		t.Fatalf("handler returned a raised error: %v", err)
	}
	if !res.IsError {
		t.Fatal("IsError = false, want true on transport failure")
	}
	if got := resultText(t, res); !strings.HasPrefix(got, "Error executing ADB command: ") {
		t.Fatalf("text = %q, want the original failure prefixed", got)
	}
}

func TestCaptureDeviceScreenshot(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"/capture_device_screenshot": `{"result":{"filename":"shot.png","dir":"abc123"}}`,
	})
	res, _, err := s.handleCaptureDeviceScreenshot(context.Background(), nil,
		CaptureDeviceScreenshotInput{RID: "660033"})
	if err != nil {
		t.Fatalf("handler returned a raised error: %v", err)
	}
	if res.IsError {
		t.Fatalf("IsError = true: %s", resultText(t, res))
	}
	want := "Screenshot captured successfully: https://device.pcloudy.com/recent/abc123/shot.png"
	if got := resultText(t, res); got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestInstallAndLaunchApp(t *testing.T) {
	tests := []struct {
		name     string
		input    InstallAndLaunchAppInput
		wantErr  bool
		wantText string
	}{
		{
			name:     "success",
			input:    InstallAndLaunchAppInput{RID: "660033", Filename: "app.apk"},
			wantText: "App 'app.apk' installed and launched successfully on RID: 660033",
		},
		{
			name:     "missing filename",
			input:    InstallAndLaunchAppInput{RID: "660033"},
			wantErr:  true,
			wantText: "filename is required -- upload_file first if the app is not in the cloud drive",
		},
		{
			name:     "missing rid",
			input:    InstallAndLaunchAppInput{Filename: "app.apk"},
			wantErr:  true,
			wantText: "rid is required -- book a device first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, map[string]string{
				"/install_app": `{"result":{"code":200,"msg":"launched"}}`,
			})
			res, _, err := s.handleInstallAndLaunchApp(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("handler returned a raised error: %v", err)
			}
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, resultText(t, res))
			}
			if got := resultText(t, res); got != tt.wantText {
				t.Fatalf("text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestReleaseDevice(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"/release_device": `{"result":{"code":200}}`,
	})
	res, _, err := s.handleReleaseDevice(context.Background(), nil, ReleaseDeviceInput{RID: "660033"})
	if err != nil {
		t.Fatalf("handler returned a raised error: %v", err)
	}
	if res.IsError {
		t.Fatalf("IsError = true: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "Device with RID 660033 released successfully" {
		t.Fatalf("text = %q", got)
	}
}

// Releasing a rid the backend rejects yields an error envelope, not a
// raised error.
func TestReleaseDevice_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/access" {
			_, _ = w.Write([]byte(`{"result":{"token":"tok-1"}}`))
			return
		}
		http.Error(w, `{"error":"no such booking"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	s := NewServerWithClient(api.NewClientWithBaseURL("user@example.com", "key", srv.URL), "test")
	res, _, err := s.handleReleaseDevice(context.Background(), nil, ReleaseDeviceInput{RID: "never-booked"})
	if err != nil {
		t.Fatalf("handler returned a raised error: %v", err)
	}
	if !res.IsError {
		t.Fatal("IsError = false, want true")
	}
	if got := resultText(t, res); !strings.HasPrefix(got, "Error releasing device: ") {
		t.Fatalf("text = %q, want release failure prefix", got)
	}
}

func TestGetDevicePageURL(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"/get_device_url": `{"result":{"code":200,"URL":"https://device.pcloudy.com/device/660033"}}`,
	})
	res, _, err := s.handleGetDevicePageURL(context.Background(), nil, GetDevicePageURLInput{RID: "660033"})
	if err != nil {
		t.Fatalf("handler returned a raised error: %v", err)
	}
	if res.IsError {
		t.Fatalf("IsError = true: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "Device page URL: https://device.pcloudy.com/device/660033" {
		t.Fatalf("text = %q", got)
	}
}
