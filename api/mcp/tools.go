package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/coordinator"
)

var (
	listHistoryToolName    = "list_history"
	listHistoryDescription = "List clipboard history entries, newest first. An optional query keeps only entries whose text, title or url contains it (case-insensitive)."

	recordCaptureToolName    = "record_capture"
	recordCaptureDescription = "Record a piece of text in the clipboard history, as if it had just been copied. Blank text is ignored."

	clearHistoryToolName    = "clear_history"
	clearHistoryDescription = "Remove every entry from the clipboard history. Settings are kept."
)

// ListHistoryInput represents the input arguments for the list_history tool.
type ListHistoryInput struct {
	Query string `json:"query,omitempty" jsonschema:"case-insensitive text to look for in entry text, title or url"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of entries to return (default: all)"`
}

// ListHistoryOutput represents the output of the list_history tool.
type ListHistoryOutput struct {
	Query string      `json:"query,omitempty"`
	Items []clip.Item `json:"items"`
	Count int         `json:"count"`
	Total int         `json:"total"`
}

// RecordCaptureInput represents the input arguments for the record_capture tool.
type RecordCaptureInput struct {
	Text  string `json:"text" jsonschema:"the text to record"`
	URL   string `json:"url,omitempty" jsonschema:"where the text came from"`
	Title string `json:"title,omitempty" jsonschema:"title of the source"`
}

// RecordCaptureOutput represents the output of the record_capture tool.
type RecordCaptureOutput struct {
	Recorded bool `json:"recorded"`
}

// ClearHistoryInput takes no arguments.
type ClearHistoryInput struct{}

// ClearHistoryOutput represents the output of the clear_history tool.
type ClearHistoryOutput struct {
	Cleared bool `json:"cleared"`
}

func (s *Server) handleListHistory(ctx context.Context, _ *mcp.CallToolRequest, input ListHistoryInput) (*mcp.CallToolResult, ListHistoryOutput, error) {
	s.config.Logger.Debug("MCP list_history request",
		"query", input.Query,
		"limit", input.Limit,
	)

	resp := s.config.Dispatcher.Dispatch(ctx, coordinator.ListHistory{})
	if !resp.OK {
		s.config.Logger.Error("failed to list history", "error", resp.Error)
		return toolError(fmt.Sprintf("Failed to list history: %s", resp.Error)), ListHistoryOutput{}, nil
	}

	items := clip.Filter(resp.History, input.Query)
	if items == nil {
		items = []clip.Item{}
	}
	if input.Limit > 0 && len(items) > input.Limit {
		items = items[:input.Limit]
	}

	return nil, ListHistoryOutput{
		Query: input.Query,
		Items: items,
		Count: len(items),
		Total: len(resp.History),
	}, nil
}

func (s *Server) handleRecordCapture(ctx context.Context, _ *mcp.CallToolRequest, input RecordCaptureInput) (*mcp.CallToolResult, RecordCaptureOutput, error) {
	if clip.Blank(input.Text) {
		return nil, RecordCaptureOutput{Recorded: false}, nil
	}

	resp := s.config.Dispatcher.Dispatch(ctx, coordinator.Capture{
		Text:  input.Text,
		URL:   input.URL,
		Title: input.Title,
	})
	if !resp.OK {
		s.config.Logger.Error("failed to record capture", "error", resp.Error)
		return toolError(fmt.Sprintf("Failed to record capture: %s", resp.Error)), RecordCaptureOutput{}, nil
	}

	return nil, RecordCaptureOutput{Recorded: true}, nil
}

func (s *Server) handleClearHistory(ctx context.Context, _ *mcp.CallToolRequest, _ ClearHistoryInput) (*mcp.CallToolResult, ClearHistoryOutput, error) {
	resp := s.config.Dispatcher.Dispatch(ctx, coordinator.ClearHistory{})
	if !resp.OK {
		s.config.Logger.Error("failed to clear history", "error", resp.Error)
		return toolError(fmt.Sprintf("Failed to clear history: %s", resp.Error)), ClearHistoryOutput{}, nil
	}

	return nil, ClearHistoryOutput{Cleared: true}, nil
}
