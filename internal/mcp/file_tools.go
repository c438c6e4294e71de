package mcp

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// UploadFileInput defines input for upload_file.
type UploadFileInput struct {
	FilePath   string `json:"file_path" jsonschema:"Local path of the file to upload (REQUIRED)"`
	SourceType string `json:"source_type,omitempty" jsonschema:"Upload source type (default 'raw')"`
	FilterType string `json:"filter_type,omitempty" jsonschema:"Upload filter (default 'all')"`
}

func (s *Server) handleUploadFile(ctx context.Context, req *mcp.CallToolRequest, input UploadFileInput) (*mcp.CallToolResult, any, error) {
	log.Debug("Tool called: upload_file", "file_path", input.FilePath)

	if input.FilePath == "" {
		return errorResult("file_path is required"), nil, nil
	}

	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = "raw"
	}
	filterType := input.FilterType
	if filterType == "" {
		filterType = "all"
	}

	name, alreadyExists, err := s.apiClient.UploadFile(ctx, input.FilePath, sourceType, filterType)
	if err != nil {
		return errorResult("Error uploading file: %v", err), nil, nil
	}
	if alreadyExists {
		return successResult("File '%s' already exists in your pCloudy cloud drive.", name), nil, nil
	}

	return successResult("File '%s' uploaded successfully", name), nil, nil
}
