// Package mcp exposes the clipboard history to MCP (Model Context Protocol)
// clients.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/cliptape/pkg/coordinator"
	"github.com/papercomputeco/cliptape/pkg/utils"
)

// Dispatcher answers coordinator requests. *coordinator.Dispatcher
// implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req coordinator.Request) coordinator.Response
}

type Config struct {
	// Dispatcher serves every tool call
	Dispatcher Dispatcher

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the history tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cliptape",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Dispatcher == nil {
			return nil, errors.New("dispatcher is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        listHistoryToolName,
			Description: listHistoryDescription,
		}, s.handleListHistory)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        recordCaptureToolName,
			Description: recordCaptureDescription,
		}, s.handleRecordCapture)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        clearHistoryToolName,
			Description: clearHistoryDescription,
		}, s.handleClearHistory)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// toolError is the result reported for a failed tool call.
func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
