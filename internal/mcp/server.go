// Package mcp exposes the monitoring console as MCP tools so an agent can
// read incidents and traffic and run the same row commands as an operator.
package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/view"
)

// API is the backend surface the tools use.
type API interface {
	view.API
	actions.Backend
}

// AuditLog is the audit trail the tools record to and query.
type AuditLog interface {
	actions.Recorder
	Query(opts audit.QueryOpts) ([]audit.Entry, error)
}

// Options configures the tool server.
type Options struct {
	API     API
	Audit   AuditLog
	Actor   string
	Version string
	Logger  *slog.Logger
}

// NewServer creates an MCP server exposing trafficmon tools.
func NewServer(opts Options) *mcp.Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "trafficmon",
		Version: opts.Version,
	}, &mcp.ServerOptions{
		Instructions: "trafficmon is a network security monitoring console. " +
			"Use these tools to read system status, incidents, filtering rules and " +
			"top traffic, close incidents, create rules and start traffic captures.",
	})

	actor := opts.Actor
	if actor == "" {
		actor = "mcp"
	}
	h := &handlers{
		api:      opts.API,
		audit:    opts.Audit,
		commands: &actions.Commands{API: opts.API, Actor: actor},
		logger:   opts.Logger,
	}
	if opts.Audit != nil {
		h.commands.Audit = opts.Audit
	}

	mcp.AddTool(s, getStatusTool(), h.handleGetStatus)
	mcp.AddTool(s, listIncidentsTool(), h.handleListIncidents)
	mcp.AddTool(s, closeIncidentTool(), h.handleCloseIncident)
	mcp.AddTool(s, listRulesTool(), h.handleListRules)
	mcp.AddTool(s, createRuleTool(), h.handleCreateRule)
	mcp.AddTool(s, topTrafficTool(), h.handleTopTraffic)
	mcp.AddTool(s, startCaptureTool(), h.handleStartCapture)
	if opts.Audit != nil {
		mcp.AddTool(s, auditQueryTool(), h.handleAuditQuery)
	}

	return s
}

// Serve runs the MCP server on stdio until ctx is done or the client
// disconnects.
func Serve(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}
