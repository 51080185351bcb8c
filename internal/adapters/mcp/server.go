package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/ports"
	"github.com/facturaflow/validator/internal/core/validation"
)

// Server exposes group validation over the Model Context Protocol so an
// agent can drive the validator from a chat session.
type Server struct {
	groups      ports.GroupService
	validations ports.ValidationService
}

func NewServer(groups ports.GroupService, validations ports.ValidationService) *server.MCPServer {
	s := &Server{groups: groups, validations: validations}

	mcpServer := server.NewMCPServer(
		"facturaflow-validator",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	mcpServer.AddTool(
		mcp.NewTool("get_group",
			mcp.WithDescription("Fetch a document group: the primary document and the related documents attached to it."),
			mcp.WithString("group_id", mcp.Required(), mcp.Description("Document group identifier")),
		),
		s.getGroup,
	)
	mcpServer.AddTool(
		mcp.NewTool("validate_group",
			mcp.WithDescription("Start an asynchronous validation run for a document group and return the pending run."),
			mcp.WithString("group_id", mcp.Required(), mcp.Description("Document group identifier")),
		),
		s.validateGroup,
	)
	mcpServer.AddTool(
		mcp.NewTool("get_validation_run",
			mcp.WithDescription("Fetch a validation run with its result once completed: score, status and findings."),
			mcp.WithString("run_id", mcp.Required(), mcp.Description("Validation run identifier")),
		),
		s.getValidationRun,
	)
	mcpServer.AddTool(
		mcp.NewTool("validate_items",
			mcp.WithDescription("Validate raw line items directly, without uploading documents. Input is the JSON body of the /v1/validate endpoint."),
			mcp.WithString("input", mcp.Required(), mcp.Description(`JSON object with "primary" and "related" documents, each carrying "document_id" and "items"`)),
		),
		s.validateItems,
	)

	return mcpServer
}

func (s *Server) getGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupID, err := request.RequireString("group_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get group: %v", err)), nil
	}
	return jsonToolResult(group)
}

func (s *Server) validateGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupID, err := request.RequireString("group_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.validations.StartRun(ctx, groupID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start validation: %v", err)), nil
	}
	return jsonToolResult(run)
}

func (s *Server) getValidationRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.validations.GetRun(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get run: %v", err)), nil
	}
	return jsonToolResult(run)
}

func (s *Server) validateItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var req struct {
		Primary struct {
			DocumentID string               `json:"document_id"`
			Items      []domain.RawLineItem `json:"items"`
		} `json:"primary"`
		Related []struct {
			DocumentID string               `json:"document_id"`
			Items      []domain.RawLineItem `json:"items"`
		} `json:"related"`
	}
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse input: %v", err)), nil
	}

	input := validation.RunInput{
		PrimaryDocumentID: req.Primary.DocumentID,
		PrimaryItems:      req.Primary.Items,
	}
	for _, related := range req.Related {
		input.RelatedSets = append(input.RelatedSets, validation.RelatedSet{
			DocumentID: related.DocumentID,
			Items:      related.Items,
		})
	}

	result, err := s.validations.ValidateDirect(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validate: %v", err)), nil
	}
	return jsonToolResult(result)
}

func jsonToolResult(payload any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
