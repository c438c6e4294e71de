package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

// screenshotURLFormat is the fully-qualified location of captured
// screenshots. The dir and filename segments come from the capture response.
const screenshotURLFormat = "https://device.pcloudy.com/recent/%s/%s"

// Device is a device descriptor as returned by the devices endpoint.
// Descriptors are fetched fresh on every listing call and never cached.
type Device struct {
	// ID is the remote device identifier used for booking.
	ID int `json:"id"`

	// Model is the human-readable device model name (e.g. "Galaxy S21").
	Model string `json:"model"`

	// Available reports whether the device can be booked right now.
	Available bool `json:"available"`
}

// devicesResult is the payload of the devices endpoint.
type devicesResult struct {
	Models []Device `json:"models"`
}

// ListDevices fetches the device list for a platform.
//
// Parameters:
//   - ctx: Context for cancellation
//   - platform: Target platform ("android" or "ios")
//   - duration: Booking duration in minutes used for availability filtering
//   - availableNow: Restrict the listing to devices bookable right now
//
// Returns:
//   - []Device: The device descriptors under the "models" key
//   - error: Any transport or envelope error
func (c *Client) ListDevices(ctx context.Context, platform string, duration int, availableNow bool) ([]Device, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug("Getting device list", "platform", platform)
	payload := map[string]interface{}{
		"token":         token,
		"platform":      platform,
		"duration":      duration,
		"available_now": strconv.FormatBool(availableNow),
	}

	var result devicesResult
	if err := c.postJSON(ctx, "/devices", payload, &result); err != nil {
		return nil, err
	}

	log.Debug("Retrieved devices", "count", len(result.Models))
	return result.Models, nil
}

// BookDevice books a device by ID and returns the reservation ID used by
// all subsequent per-device operations.
//
// Parameters:
//   - ctx: Context for cancellation
//   - deviceID: The device ID from a listing
//   - duration: Booking duration in minutes
//
// Returns:
//   - string: The reservation ID (RID)
//   - error: *EnvelopeError if the response carries no rid
func (c *Client) BookDevice(ctx context.Context, deviceID, duration int) (string, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return "", err
	}

	log.Debug("Booking device", "id", deviceID)
	payload := map[string]interface{}{
		"token":    token,
		"id":       deviceID,
		"duration": duration,
	}

	// The rid is numeric in practice but documented as an opaque handle;
	// gjson stringifies either shape without float mangling.
	var result json.RawMessage
	if err := c.postJSON(ctx, "/book_device", payload, &result); err != nil {
		return "", err
	}
	rid := gjson.GetBytes(result, "rid")
	if !rid.Exists() || rid.String() == "" {
		return "", &EnvelopeError{Endpoint: "book_device", Reason: "missing rid in response"}
	}

	log.Debug("Device booked", "rid", rid.String())
	return rid.String(), nil
}

// ExecuteADB runs an ADB command on a booked device. The command string is
// passed verbatim; the remote service sandboxes execution.
//
// Parameters:
//   - ctx: Context for cancellation
//   - rid: The reservation ID from BookDevice
//   - command: The ADB command to run
//
// Returns:
//   - string: The command output (empty if the remote returned none)
//   - error: Any transport or envelope error
func (c *Client) ExecuteADB(ctx context.Context, rid, command string) (string, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return "", err
	}

	log.Debug("Executing ADB command", "rid", rid, "command", command)
	payload := map[string]interface{}{
		"token":      token,
		"rid":        rid,
		"adbCommand": command,
	}

	var result struct {
		Output string `json:"output"`
	}
	if err := c.postJSON(ctx, "/execute_adb", payload, &result); err != nil {
		return "", err
	}
	return result.Output, nil
}

// CaptureScreenshot captures the device screen and returns the
// fully-qualified URL of the image file.
//
// Parameters:
//   - ctx: Context for cancellation
//   - rid: The reservation ID from BookDevice
//   - skin: Include the device skin in the capture
//
// Returns:
//   - string: The screenshot file URL
//   - error: *EnvelopeError if filename or dir is missing
func (c *Client) CaptureScreenshot(ctx context.Context, rid string, skin bool) (string, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return "", err
	}

	log.Debug("Capturing screenshot", "rid", rid, "skin", skin)
	payload := map[string]interface{}{
		"token": token,
		"rid":   rid,
		"skin":  strconv.FormatBool(skin),
	}

	// The capture endpoint returns 'filename' and 'dir', not a single file
	// reference; the client combines them into the final URL.
	var result struct {
		Filename string `json:"filename"`
		Dir      string `json:"dir"`
	}
	if err := c.postJSON(ctx, "/capture_device_screenshot", payload, &result); err != nil {
		return "", err
	}
	if result.Filename == "" || result.Dir == "" {
		return "", &EnvelopeError{Endpoint: "capture_device_screenshot", Reason: "missing filename or dir in response"}
	}

	fileURL := fmt.Sprintf(screenshotURLFormat, result.Dir, result.Filename)
	log.Debug("Screenshot captured", "url", fileURL)
	return fileURL, nil
}

// InstallAndLaunchApp installs an app from the cloud drive onto a booked
// device and launches it.
//
// Parameters:
//   - ctx: Context for cancellation
//   - rid: The reservation ID from BookDevice
//   - filename: The app file name in the cloud drive
//   - grantAllPermissions: Grant all runtime permissions on install
//
// Returns:
//   - json.RawMessage: The raw result payload
//   - error: Any transport or envelope error
func (c *Client) InstallAndLaunchApp(ctx context.Context, rid, filename string, grantAllPermissions bool) (json.RawMessage, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug("Installing and launching app", "rid", rid, "filename", filename)
	payload := map[string]interface{}{
		"token":                 token,
		"rid":                   rid,
		"filename":              filename,
		"grant_all_permissions": strconv.FormatBool(grantAllPermissions),
	}

	var result json.RawMessage
	if err := c.postJSON(ctx, "/install_app", payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseDevice releases a booked device. Releasing is a best-effort
// cleanup step; the caller converts any error to a structured envelope.
//
// Parameters:
//   - ctx: Context for cancellation
//   - rid: The reservation ID to release
//
// Returns:
//   - error: Any transport or envelope error
func (c *Client) ReleaseDevice(ctx context.Context, rid string) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	log.Debug("Releasing device", "rid", rid)
	payload := map[string]interface{}{
		"token": token,
		"rid":   rid,
	}
	return c.postJSON(ctx, "/release_device", payload, nil)
}

// GetDevicePageURL returns the browser URL of the device page for a booked
// device.
//
// The get_device_url endpoint nests its payload differently from the rest
// of the API ({"result":{"code":200,"URL":...}}), so it is decoded with its
// own schema instead of the shared envelope helper.
//
// Parameters:
//   - ctx: Context for cancellation
//   - rid: The reservation ID from BookDevice
//
// Returns:
//   - string: The device page URL
//   - error: *EnvelopeError if the URL is absent
func (c *Client) GetDevicePageURL(ctx context.Context, rid string) (string, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return "", err
	}

	log.Debug("Getting device page URL", "rid", rid)
	payload := map[string]interface{}{
		"token": token,
		"rid":   rid,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get_device_url", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	deviceURL := gjson.GetBytes(body, "result.URL")
	if !deviceURL.Exists() || deviceURL.String() == "" {
		return "", &EnvelopeError{Endpoint: "get_device_url", Reason: "missing URL in response: " + truncate(string(body), 200)}
	}
	return deviceURL.String(), nil
}
