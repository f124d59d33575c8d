package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/stepwise/pkg/corpus"
)

// NewServer creates a new MCP server with stepwise tools registered.
// The tools let an agent search the corpus and drive guided sessions.
func NewServer(version string, store *corpus.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"stepwise",
		version,
		server.WithToolCapabilities(true),
	)

	svc := NewService(store)

	s.AddTool(
		mcp.NewTool("stepwise/search",
			mcp.WithDescription("Search the troubleshooting corpus for articles matching a problem description"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Free-text problem description")),
		),
		svc.HandleSearch,
	)

	s.AddTool(
		mcp.NewTool("stepwise/start",
			mcp.WithDescription("Start a guided session for an article; returns a session id and the first step"),
			mcp.WithString("article_id", mcp.Required(), mcp.Description("Article to walk through")),
		),
		svc.HandleStart,
	)

	s.AddTool(
		mcp.NewTool("stepwise/continue",
			mcp.WithDescription("Mark the current step done and advance to the next one"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by stepwise/start")),
		),
		svc.HandleContinue,
	)

	s.AddTool(
		mcp.NewTool("stepwise/back",
			mcp.WithDescription("Go back one step without uncompleting anything"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by stepwise/start")),
		),
		svc.HandleBack,
	)

	s.AddTool(
		mcp.NewTool("stepwise/fail",
			mcp.WithDescription("Report that the current step did not work and resolve a fallback path"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by stepwise/start")),
			mcp.WithString("reason", mcp.Required(), mcp.Description("Failure category: cant-find-option, system-error, permission-issue, no-change, other")),
			mcp.WithString("note", mcp.Description("Free-text description of what happened")),
		),
		svc.HandleFail,
	)

	s.AddTool(
		mcp.NewTool("stepwise/status",
			mcp.WithDescription("Return the full state of a guided session"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by stepwise/start")),
		),
		svc.HandleStatus,
	)

	s.AddTool(
		mcp.NewTool("stepwise/validate",
			mcp.WithDescription("Validate a troubleshooting article YAML file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the article YAML file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("stepwise/schema",
			mcp.WithDescription("Export the article JSON Schema"),
		),
		HandleSchema,
	)

	return s
}
