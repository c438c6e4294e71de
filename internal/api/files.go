package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

// cloudFile is a file entry in the user's cloud drive listing.
type cloudFile struct {
	Name string `json:"name"`
}

// ListCloudFiles lists the file names in the user's pCloudy cloud drive.
//
// Listing is used only as an existence check before uploads, so it is
// deliberately non-raising: any transport or parsing failure yields an
// empty list.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - []string: The cloud drive file names (empty on any failure)
func (c *Client) ListCloudFiles(ctx context.Context) []string {
	token, err := c.ensureToken(ctx)
	if err != nil {
		log.Error("Error listing cloud files", "err", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/content?token="+url.QueryEscape(token), nil)
	if err != nil {
		log.Error("Error listing cloud files", "err", err)
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Error listing cloud files", "err", err)
		return nil
	}

	var result struct {
		Files []cloudFile `json:"files"`
	}
	if err := parseResult(resp, "content", &result); err != nil {
		log.Error("Error listing cloud files", "err", err)
		return nil
	}

	return lo.Map(result.Files, func(f cloudFile, _ int) string { return f.Name })
}

// UploadFile uploads a local file to the pCloudy cloud drive, unless a file
// with the same name is already there.
//
// The path is stripped of surrounding quote characters (defensive against
// shell-copied paths) and must point at an existing regular file. Uploads
// are idempotent in effect: when the file name already appears in the cloud
// listing, no upload request is made and alreadyExists is true.
//
// Parameters:
//   - ctx: Context for cancellation
//   - path: The local file path
//   - sourceType: The upload source type (e.g. "raw")
//   - filterType: The upload filter (e.g. "all")
//
// Returns:
//   - fileName: The name of the file in the cloud drive
//   - alreadyExists: True when the upload was skipped
//   - err: *LocalValidationError before any network call when the path is
//     invalid; *EnvelopeError when the response carries no file name
func (c *Client) UploadFile(ctx context.Context, path, sourceType, filterType string) (fileName string, alreadyExists bool, err error) {
	path = strings.Trim(path, `"'`)

	// Fail fast on a bad path before any network round-trip.
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false, &LocalValidationError{Reason: fmt.Sprintf("provided path is not a file: %s", path)}
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return "", false, err
	}

	name := filepath.Base(path)
	if lo.Contains(c.ListCloudFiles(ctx), name) {
		log.Debug("File already exists in cloud drive", "file", name)
		return name, true, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", false, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", false, fmt.Errorf("failed to copy file: %w", err)
	}
	for field, value := range map[string]string{
		"source_type": sourceType,
		"token":       token,
		"filter":      filterType,
	} {
		if err := writer.WriteField(field, value); err != nil {
			return "", false, fmt.Errorf("failed to write %s field: %w", field, err)
		}
	}
	writer.Close()

	log.Debug("Uploading file", "file", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload_file", body)
	if err != nil {
		return "", false, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Basic "+c.basicAuth())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("file upload request failed: %w", err)
	}

	var result struct {
		File string `json:"file"`
	}
	if err := parseResult(resp, "upload_file", &result); err != nil {
		return "", false, err
	}
	if result.File == "" {
		return "", false, &EnvelopeError{Endpoint: "upload_file", Reason: "missing uploaded file name in response"}
	}

	log.Debug("File uploaded", "file", result.File)
	return result.File, false, nil
}
