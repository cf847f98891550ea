package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config holds server dependencies.
type Config struct {
	Assistant  Assistant
	Index      IndexAdmin
	CorpusRoot string
}

// Server wraps the MCP server with its tool dependencies.
type Server struct {
	server *mcp.Server
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "business-insights-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a business question from the indexed reports. Retrieves relevant report excerpts and grounds the answer in them.",
	}, makeAskHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize",
		Description: "Produce an executive summary of overall performance and key insights across the indexed reports.",
	}, makeSummarizeHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the indexed report units most similar to a query, without synthesizing an answer. Useful for inspecting what grounds an answer.",
	}, makeSearchHandler(cfg.Index))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "Delete the persisted similarity index and rebuild it from the corpus directory. Use after source reports change.",
	}, makeRebuildHandler(cfg.Index, cfg.CorpusRoot))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the current index state: total indexed units and corpus root.",
	}, makeStatusHandler(cfg.Index, cfg.CorpusRoot))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until the client
// disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance for transport
// handlers that need to wrap it.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
