// Package api provides the HTTP client for the pCloudy device cloud API.
//
// This package handles all communication with the pCloudy backend:
// authentication and token lifecycle, request construction, and response
// envelope handling. Every endpoint except get_device_url wraps its payload
// as {"result": ...}; parseResult unwraps that envelope and fails hard when
// it is absent.
//
// Booking state is not held on the client. BookDevice returns the
// reservation ID (RID) as a value and every per-device operation takes it
// as a parameter, so concurrent sessions cannot race on shared state.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rishav781/Pcloudy-MCP/internal/config"
)

// Client is the pCloudy API client.
type Client struct {
	baseURL    string
	username   string
	apiKey     string
	httpClient *http.Client

	// mu guards token and tokenAt. Tool calls may run concurrently and
	// both trigger a refresh; the lock makes the refresh single-flight.
	mu      sync.Mutex
	token   string
	tokenAt time.Time

	refreshThreshold time.Duration
}

// NewClient creates a new API client from the process configuration.
//
// Parameters:
//   - cfg: The loaded process configuration
//
// Returns:
//   - *Client: A new client instance
func NewClient(cfg *config.Config) *Client {
	return NewClientWithBaseURL(cfg.Username, cfg.APIKey, cfg.BaseURL)
}

// NewClientWithBaseURL creates a new API client with a custom base URL.
// Used by tests to point the client at a fake backend.
//
// Parameters:
//   - username: The pCloudy account username
//   - apiKey: The API key paired with the username
//   - baseURL: The base URL for the API
//
// Returns:
//   - *Client: A new client instance
func NewClientWithBaseURL(username, apiKey, baseURL string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		refreshThreshold: config.TokenRefreshThreshold,
	}
}

// Close releases the client's network resources. Called during process
// shutdown.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// basicAuth derives the Basic-auth header value from the credentials.
func (c *Client) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.apiKey))
}

// accessResult is the payload of the access endpoint.
type accessResult struct {
	Token string `json:"token"`
}

// Authenticate obtains a fresh session token from the access endpoint and
// records its acquisition time.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - string: The session token
//   - error: *AuthenticationError if the response carries no token, or the
//     underlying transport/envelope error
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

// authenticateLocked performs the auth request. Caller must hold c.mu.
func (c *Client) authenticateLocked(ctx context.Context) (string, error) {
	log.Debug("Authenticating with pCloudy")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/access", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.basicAuth())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("authentication request failed: %w", err)
	}

	var result accessResult
	if err := parseResult(resp, "access", &result); err != nil {
		return "", err
	}

	if result.Token == "" {
		return "", &AuthenticationError{Reason: "no token received"}
	}

	c.token = result.Token
	c.tokenAt = time.Now()
	log.Debug("Authentication successful")
	return c.token, nil
}

// ensureToken returns a token younger than the refresh threshold,
// reauthenticating when the current one is absent or stale.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" {
		log.Debug("No authentication token present, authenticating")
		return c.authenticateLocked(ctx)
	}
	if time.Since(c.tokenAt) > c.refreshThreshold {
		log.Debug("Token expired, refreshing")
		return c.authenticateLocked(ctx)
	}
	return c.token, nil
}

// postJSON performs an authenticated POST with a JSON body against path and
// unwraps the result envelope into target.
func (c *Client) postJSON(ctx context.Context, path string, body interface{}, target interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	return parseResult(resp, path, target)
}

// parseResult validates the HTTP status, unwraps the {"result": ...}
// envelope, and decodes the payload into target. A missing result key is a
// hard failure.
func parseResult(resp *http.Response, endpoint string, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &EnvelopeError{Endpoint: endpointName(endpoint), Reason: "invalid JSON response: " + truncate(string(body), 200)}
	}
	if envelope.Result == nil {
		return &EnvelopeError{Endpoint: endpointName(endpoint), Reason: "missing result in response: " + truncate(string(body), 200)}
	}

	if target != nil {
		if err := json.Unmarshal(envelope.Result, target); err != nil {
			return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
		}
	}
	return nil
}

// endpointName strips a leading slash so error messages read naturally.
func endpointName(endpoint string) string {
	if len(endpoint) > 0 && endpoint[0] == '/' {
		return endpoint[1:]
	}
	return endpoint
}

// truncate shortens s to at most n runes for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
