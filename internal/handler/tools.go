package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tejzpr/privacy-portal/internal/manager"
)

// Tools exposes deletion-request intake and listing to MCP clients.
type Tools struct {
	requests *manager.DeletionManager
}

func NewTools(requests *manager.DeletionManager) *Tools {
	return &Tools{requests: requests}
}

// Register adds every tool to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("list_deletion_requests",
		mcp.WithDescription("List every data deletion request received so far, newest first."),
	), t.ListDeletionRequests)

	s.AddTool(mcp.NewTool("submit_deletion_request",
		mcp.WithDescription("Record a data deletion request on behalf of a user, e.g. one received by email."),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("The email address or phone number the user contacted us with"),
		),
		mcp.WithString("channel",
			mcp.Description("Where the user contacted us, e.g. whatsapp or email"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-text notes about the request"),
		),
	), t.SubmitDeletionRequest)
}

func (t *Tools) ListDeletionRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requests, err := t.requests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deletion requests: %w", err)
	}
	payload, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deletion requests: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (t *Tools) SubmitDeletionRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := request.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError("identifier is required"), nil
	}

	req, err := t.requests.Submit(ctx, manager.SubmitInput{
		Identifier: identifier,
		Channel:    request.GetString("channel", ""),
		Notes:      request.GetString("notes", ""),
	})
	if errors.Is(err, manager.ErrMissingIdentifier) {
		return mcp.NewToolResultError(manager.MissingIdentifierMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit deletion request: %w", err)
	}
	return mcp.NewToolResultText(manager.ConfirmationMessage(req.RequestID)), nil
}
