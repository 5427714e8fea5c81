package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/sdk"
)

type handlers struct {
	api      API
	audit    AuditLog
	commands *actions.Commands
	logger   *slog.Logger
}

func boolPtr(b bool) *bool { return &b }

func readOnly() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{ReadOnlyHint: true, DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(false)}
}

// --- Tool definitions ---

type noArgs struct{}

func getStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_status",
		Description: "Get the system summary: active incidents, critical events, network load and backend status.",
		Annotations: readOnly(),
	}
}

type listIncidentsArgs struct {
	Status   string `json:"status,omitempty" jsonschema:"Filter by status: Detected, Investigating, Mitigated, Closed"`
	OpenOnly bool   `json:"open_only,omitempty" jsonschema:"Only return incidents that are not Closed"`
}

func listIncidentsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_incidents",
		Description: "List security incidents of the last week with severity, addresses and status.",
		Annotations: readOnly(),
	}
}

type closeIncidentArgs struct {
	ID int64 `json:"id" jsonschema:"Incident ID to close"`
}

func closeIncidentTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "close_incident",
		Description: "Mark an incident Closed.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true, OpenWorldHint: boolPtr(false)},
	}
}

func listRulesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_rules",
		Description: "List active filtering rules.",
		Annotations: readOnly(),
	}
}

type createRuleArgs struct {
	Name     string `json:"name" jsonschema:"Rule name"`
	Category string `json:"category,omitempty" jsonschema:"Rule category (default custom)"`
	Severity int    `json:"severity" jsonschema:"Severity from 1 to 5"`
	SrcIP    string `json:"src_ip,omitempty" jsonschema:"Source address or CIDR; empty or * for any"`
	DstIP    string `json:"dst_ip,omitempty" jsonschema:"Destination address or CIDR; empty or * for any"`
	Action   string `json:"action" jsonschema:"DROP, REJECT or ACCEPT"`
}

func createRuleTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_rule",
		Description: "Create a manual filtering rule on the backend.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(false)},
	}
}

func topTrafficTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "top_traffic",
		Description: "List the heaviest source/destination pairs of the last hour.",
		Annotations: readOnly(),
	}
}

func startCaptureTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "start_capture",
		Description: "Run one traffic capture and analysis batch on the backend. " +
			"Returns the number of captured packets, processed events and new incidents.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(true)},
	}
}

type auditQueryArgs struct {
	Action string `json:"action,omitempty" jsonschema:"Filter by action, e.g. incident.close"`
	Actor  string `json:"actor,omitempty" jsonschema:"Filter by operator"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum entries to return (default 20)"`
}

func auditQueryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "audit_query",
		Description: "Query the operator audit trail, newest first.",
		Annotations: readOnly(),
	}
}

// --- Handlers ---

func textResult(v any) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(v, "", "  ")
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

// failure turns a backend or command error into a tool error the agent can
// act on.
func (h *handlers) failure(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, sdk.ErrUnauthorized):
		return toolError("not signed in: run `trafficmon login` and retry")
	case errors.Is(err, actions.ErrInvalidRule), errors.Is(err, actions.ErrInvalidAddress), errors.Is(err, actions.ErrNotFound):
		return toolError(err.Error())
	}
	h.logger.Warn("mcp tool failed", "tool", tool, "error", err)
	return toolError(fmt.Sprintf("%s failed: %v", tool, err))
}

func (h *handlers) handleGetStatus(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	st, err := h.api.Status(ctx)
	if err != nil {
		return h.failure("get_status", err), nil, nil
	}
	return textResult(st), nil, nil
}

func (h *handlers) handleListIncidents(ctx context.Context, _ *mcp.CallToolRequest, args listIncidentsArgs) (*mcp.CallToolResult, any, error) {
	incidents, err := h.api.Incidents(ctx)
	if err != nil {
		return h.failure("list_incidents", err), nil, nil
	}
	out := make([]sdk.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if args.Status != "" && !strings.EqualFold(inc.Status, args.Status) {
			continue
		}
		if args.OpenOnly && inc.Closed() {
			continue
		}
		out = append(out, inc)
	}
	return textResult(map[string]any{"incidents": out, "total": len(out)}), nil, nil
}

func (h *handlers) handleCloseIncident(ctx context.Context, _ *mcp.CallToolRequest, args closeIncidentArgs) (*mcp.CallToolResult, any, error) {
	if args.ID <= 0 {
		return toolError("id is required"), nil, nil
	}
	if err := h.commands.Close(ctx, args.ID); err != nil {
		return h.failure("close_incident", err), nil, nil
	}
	return textResult(map[string]any{"id": args.ID, "status": sdk.StatusClosed}), nil, nil
}

func (h *handlers) handleListRules(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	rules, err := h.api.Rules(ctx)
	if err != nil {
		return h.failure("list_rules", err), nil, nil
	}
	return textResult(map[string]any{"rules": rules, "total": len(rules)}), nil, nil
}

func (h *handlers) handleCreateRule(ctx context.Context, _ *mcp.CallToolRequest, args createRuleArgs) (*mcp.CallToolResult, any, error) {
	created, err := h.commands.Create(ctx, sdk.Rule{
		Name:     args.Name,
		Category: args.Category,
		Severity: args.Severity,
		SrcIP:    args.SrcIP,
		DstIP:    args.DstIP,
		Action:   args.Action,
	})
	if err != nil {
		return h.failure("create_rule", err), nil, nil
	}
	return textResult(created), nil, nil
}

func (h *handlers) handleTopTraffic(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	samples, err := h.api.TopTraffic(ctx)
	if err != nil {
		return h.failure("top_traffic", err), nil, nil
	}
	return textResult(map[string]any{"traffic": samples, "total": len(samples)}), nil, nil
}

func (h *handlers) handleStartCapture(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	res, err := h.commands.Start(ctx)
	if err != nil {
		return h.failure("start_capture", err), nil, nil
	}
	return textResult(res), nil, nil
}

func (h *handlers) handleAuditQuery(_ context.Context, _ *mcp.CallToolRequest, args auditQueryArgs) (*mcp.CallToolResult, any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, err := h.audit.Query(audit.QueryOpts{Action: args.Action, Actor: args.Actor, Limit: limit})
	if err != nil {
		return toolError(fmt.Sprintf("query failed: %v", err)), nil, nil
	}
	return textResult(entries), nil, nil
}
